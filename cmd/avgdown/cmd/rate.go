package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/avgdown/internal/clients/exchangerate"
	"github.com/spf13/cobra"
)

func newRateCmd() *cobra.Command {
	var (
		url  string
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Fetch the live exchange rate once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()

			q, err := exchangerate.NewClient(url, nil, cliLogger()).GetRate(ctx, from, to)
			if err != nil {
				printError("could not fetch rate", err)
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return json.NewEncoder(out).Encode(q)
			}

			_, err = fmt.Fprintf(out, "1 %s = %s %s (updated %s)\n",
				q.From, money(q.Rate), q.To, q.UpdatedAt.Format(time.RFC1123))
			return err
		},
	}

	cmd.Flags().StringVar(&url, "rate-url", exchangerate.DefaultBaseURL, "Exchange rate API base URL")
	cmd.Flags().StringVar(&from, "from", "USD", "Base currency")
	cmd.Flags().StringVar(&to, "to", "KRW", "Quote currency")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		from = strings.ToUpper(from)
		to = strings.ToUpper(to)
	}

	return cmd
}
