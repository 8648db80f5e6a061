package averaging

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Market selects the listing the position trades on.
type Market string

const (
	// MarketUS positions are priced in USD and converted to KRW.
	MarketUS Market = "us"
	// MarketKR positions are priced in KRW; no conversion applies.
	MarketKR Market = "kr"
)

// Coerce parses a user-entered number. Blank, non-numeric, negative, NaN and
// infinite input all become 0. Thousands separators are ignored.
func Coerce(raw string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Field is a form number that decodes from a JSON number, a numeric string, or
// anything else (which decodes to 0). Decoding never fails.
type Field float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = 0
			return nil
		}
		*f = Field(Coerce(s))
		return nil
	}
	*f = Field(Coerce(string(data)))
	return nil
}

// Float returns the field as a float64.
func (f Field) Float() float64 {
	return float64(f)
}

// Form is the raw calculator input as submitted by a client.
type Form struct {
	Mode        Mode   `json:"mode"`
	Market      Market `json:"market"`
	IncludeFees bool   `json:"include_fees"`
	StockName   string `json:"stock_name,omitempty"`

	CurrentShares   Field `json:"current_shares"`
	CurrentAvgPrice Field `json:"current_avg_price"`
	MarketPrice     Field `json:"market_price"`

	AdditionalShares Field `json:"additional_shares"`
	AdditionalPrice  Field `json:"additional_price"`

	TargetAvgPrice Field `json:"target_avg_price"`
	TargetBuyPrice Field `json:"target_buy_price"`

	OriginalExchangeRate Field `json:"original_exchange_rate"`
}

// Request builds an engine request from the form. rate is the current USD→KRW
// multiplier; it only applies to US-market positions. Unknown modes fall back to
// manual and unknown markets to KR.
func (f Form) Request(rate float64) Request {
	req := Request{
		Position: Position{
			CurrentShares:   f.CurrentShares.Float(),
			CurrentAvgPrice: f.CurrentAvgPrice.Float(),
			MarketPrice:     f.MarketPrice.Float(),
		},
		Fees: FeePolicy{IncludeFees: f.IncludeFees},
	}

	if f.Mode == ModeTarget {
		req.Plan = TargetPlan{
			TargetAvgPrice:  f.TargetAvgPrice.Float(),
			DesiredBuyPrice: f.TargetBuyPrice.Float(),
		}
	} else {
		req.Plan = ManualPlan{
			AdditionalShares: f.AdditionalShares.Float(),
			AdditionalPrice:  f.AdditionalPrice.Float(),
		}
	}

	if f.Market == MarketUS {
		if rate <= 0 {
			rate = 1
		}
		req.Exchange = &ExchangeContext{
			Rate:         rate,
			OriginalRate: f.OriginalExchangeRate.Float(),
		}
	}

	return req
}
