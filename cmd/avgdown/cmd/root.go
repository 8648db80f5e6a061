// Package cmd implements the avgdown command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/aristath/avgdown/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "avgdown",
	Short: "Averaging-down calculator for stock positions",
	Long: `avgdown projects what happens to a position's average cost when you buy more.

Modes:
  manual  - buy a fixed number of shares at a fixed price
  target  - find the fewest whole shares that bring the average down to a target

Markets:
  kr      - prices in KRW, no conversion
  us      - prices in USD, amounts also shown in KRW at the live rate`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(newCalcCmd())
	rootCmd.AddCommand(newRateCmd())
	rootCmd.AddCommand(versionCmd)
}

// cliLogger logs to stderr so stdout stays clean for results.
func cliLogger() zerolog.Logger {
	return logger.New(logger.Config{
		Level:  logLevel,
		Pretty: true,
		Output: os.Stderr,
	})
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
