package cmd

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aristath/avgdown/internal/clients/exchangerate"
	"github.com/aristath/avgdown/internal/modules/averaging"
	"github.com/spf13/cobra"
)

type calcOptions struct {
	file string

	scenario Scenario
	rateURL  string
}

func newCalcCmd() *cobra.Command {
	opts := &calcOptions{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Project a position after an additional purchase",
		Example: `  avgdown calc --shares 10 --avg 100 --price 80 --buy-shares 10 --buy-price 80
  avgdown calc --mode target --shares 10 --avg 100 --price 80 --target 90 --fees
  avgdown calc --market us --shares 5 --avg 210 --price 180 --buy-shares 5 --original-rate 1300
  avgdown calc --file scenario.yaml --fees`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, opts)
		},
	}

	s := &opts.scenario
	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "YAML scenario file; flags given explicitly override it")
	f.StringVar(&s.Name, "name", "", "Stock name shown in the output")
	f.StringVar(&s.Mode, "mode", string(averaging.ModeManual), "Calculation mode: manual or target")
	f.StringVar(&s.Market, "market", string(averaging.MarketKR), "Market: kr or us")
	f.BoolVar(&s.IncludeFees, "fees", false, "Include the 0.25% trading fee on the purchase")
	f.Float64Var(&s.Position.Shares, "shares", 0, "Shares currently held")
	f.Float64Var(&s.Position.AvgPrice, "avg", 0, "Current average price")
	f.Float64Var(&s.Position.MarketPrice, "price", 0, "Current market price")
	f.Float64Var(&s.Buy.Shares, "buy-shares", 0, "Shares to buy (manual mode)")
	f.Float64Var(&s.Buy.Price, "buy-price", 0, "Buy price (manual mode)")
	f.Float64Var(&s.Target.AvgPrice, "target", 0, "Target average price (target mode)")
	f.Float64Var(&s.Target.BuyPrice, "target-price", 0, "Buy price in target mode (default: market price)")
	f.Float64Var(&s.Exchange.Rate, "rate", 0, "USD/KRW rate for US positions (default: fetch live)")
	f.Float64Var(&s.Exchange.OriginalRate, "original-rate", 0, "USD/KRW rate the existing holding was bought at")
	f.StringVar(&opts.rateURL, "rate-url", exchangerate.DefaultBaseURL, "Exchange rate API base URL")

	return cmd
}

func runCalc(cmd *cobra.Command, opts *calcOptions) error {
	scenario := opts.scenario
	if opts.file != "" {
		loaded, err := loadScenario(opts.file)
		if err != nil {
			printError("could not load scenario", err)
			return err
		}
		scenario = mergeScenario(*loaded, opts.scenario, cmd)
	}

	form := scenario.Form()

	rate := field(scenario.Exchange.Rate).Float()
	if form.Market == averaging.MarketUS && rate <= 0 {
		rate = liveRate(cmd.Context(), opts.rateURL)
	}

	req := form.Request(rate)
	result := averaging.NewEngine().Compute(req)

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"input":  form,
			"result": result,
		})
	}

	_, err := out.Write([]byte(renderResult(form, req, result)))
	return err
}

// mergeScenario lays explicitly set flags over a file-loaded scenario.
func mergeScenario(file, flags Scenario, cmd *cobra.Command) Scenario {
	changed := cmd.Flags().Changed
	if changed("name") {
		file.Name = flags.Name
	}
	if changed("mode") || file.Mode == "" {
		file.Mode = flags.Mode
	}
	if changed("market") || file.Market == "" {
		file.Market = flags.Market
	}
	if changed("fees") {
		file.IncludeFees = flags.IncludeFees
	}
	if changed("shares") {
		file.Position.Shares = flags.Position.Shares
	}
	if changed("avg") {
		file.Position.AvgPrice = flags.Position.AvgPrice
	}
	if changed("price") {
		file.Position.MarketPrice = flags.Position.MarketPrice
	}
	if changed("buy-shares") {
		file.Buy.Shares = flags.Buy.Shares
	}
	if changed("buy-price") {
		file.Buy.Price = flags.Buy.Price
	}
	if changed("target") {
		file.Target.AvgPrice = flags.Target.AvgPrice
	}
	if changed("target-price") {
		file.Target.BuyPrice = flags.Target.BuyPrice
	}
	if changed("rate") {
		file.Exchange.Rate = flags.Exchange.Rate
	}
	if changed("original-rate") {
		file.Exchange.OriginalRate = flags.Exchange.OriginalRate
	}
	return file
}

// liveRate fetches USD/KRW once. Failures are logged and yield 0, which the
// calculator treats as a 1:1 multiplier.
func liveRate(ctx context.Context, url string) float64 {
	log := cliLogger()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	q, err := exchangerate.NewClient(url, nil, log).GetRate(ctx, "USD", "KRW")
	if err != nil {
		log.Warn().Err(err).Msg("Could not fetch USD/KRW rate, amounts are not converted")
		return 0
	}
	return q.Rate
}
