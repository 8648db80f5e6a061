package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/aristath/avgdown/internal/modules/averaging"
	"gopkg.in/yaml.v3"
)

// Scenario is the YAML form of a calculator input.
//
//	name: Samsung Electronics
//	mode: target
//	market: kr
//	include_fees: true
//	position: {shares: 10, avg_price: 100, market_price: 80}
//	target: {avg_price: 90}
type Scenario struct {
	Name        string `yaml:"name"`
	Mode        string `yaml:"mode"`
	Market      string `yaml:"market"`
	IncludeFees bool   `yaml:"include_fees"`

	Position struct {
		Shares      float64 `yaml:"shares"`
		AvgPrice    float64 `yaml:"avg_price"`
		MarketPrice float64 `yaml:"market_price"`
	} `yaml:"position"`

	Buy struct {
		Shares float64 `yaml:"shares"`
		Price  float64 `yaml:"price"`
	} `yaml:"buy"`

	Target struct {
		AvgPrice float64 `yaml:"avg_price"`
		BuyPrice float64 `yaml:"buy_price"`
	} `yaml:"target"`

	Exchange struct {
		Rate         float64 `yaml:"rate"`
		OriginalRate float64 `yaml:"original_rate"`
	} `yaml:"exchange"`
}

// loadScenario reads a scenario file.
func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}

	return &s, nil
}

// Form converts the scenario into calculator input. Negative, NaN and infinite
// numbers become 0, the same as on the HTTP form.
func (s *Scenario) Form() averaging.Form {
	return averaging.Form{
		Mode:                 averaging.Mode(s.Mode),
		Market:               averaging.Market(s.Market),
		IncludeFees:          s.IncludeFees,
		StockName:            s.Name,
		CurrentShares:        field(s.Position.Shares),
		CurrentAvgPrice:      field(s.Position.AvgPrice),
		MarketPrice:          field(s.Position.MarketPrice),
		AdditionalShares:     field(s.Buy.Shares),
		AdditionalPrice:      field(s.Buy.Price),
		TargetAvgPrice:       field(s.Target.AvgPrice),
		TargetBuyPrice:       field(s.Target.BuyPrice),
		OriginalExchangeRate: field(s.Exchange.OriginalRate),
	}
}

func field(v float64) averaging.Field {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return averaging.Field(v)
}
