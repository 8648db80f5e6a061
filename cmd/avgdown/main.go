package main

import (
	"os"

	"github.com/aristath/avgdown/cmd/avgdown/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
