// Package charts builds chart-ready datasets from averaging results.
// Datasets carry values, labels and colours only; rendering is the client's job.
package charts

import (
	"errors"
	"fmt"

	"github.com/aristath/avgdown/internal/modules/averaging"
	"gonum.org/v1/gonum/floats"
)

// MaxLadderSteps caps the number of points a price ladder may request.
const MaxLadderSteps = 200

// Kind is the chart type a dataset is shaped for.
type Kind string

const (
	KindDoughnut      Kind = "doughnut"
	KindHorizontalBar Kind = "horizontal-bar"
	KindLine          Kind = "line"
)

// Dataset is a single labelled series.
type Dataset struct {
	Kind   Kind      `json:"kind"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors,omitempty"`
}

// Set groups the charts shown next to a calculation.
type Set struct {
	Weight        Dataset `json:"weight"`
	PricePosition Dataset `json:"price_position"`
}

// Weight splits the post-buy holding into existing and newly bought shares.
func Weight(oldShares, newShares float64) Dataset {
	return Dataset{
		Kind:   KindDoughnut,
		Labels: []string{"existing", "new buy"},
		Values: []float64{oldShares, newShares},
		Colors: []string{"#38bdf8", "#818cf8"},
	}
}

// PricePosition compares the market price with the averages before and after the buy.
func PricePosition(marketPrice, newAvg, oldAvg float64) Dataset {
	return Dataset{
		Kind:   KindHorizontalBar,
		Labels: []string{"market price", "new average", "old average"},
		Values: []float64{marketPrice, newAvg, oldAvg},
		Colors: []string{"#e2e8f0", "#4ade80", "#f87171"},
	}
}

// ForResult builds the chart set for a feasible result. The new-average bar falls
// back to the old average when nothing was bought.
func ForResult(pos averaging.Position, result averaging.Result) Set {
	newAvg := result.NewAvgPrice
	if result.ResolvedAdditionalShares == 0 || newAvg == 0 {
		newAvg = pos.CurrentAvgPrice
	}
	return Set{
		Weight:        Weight(pos.CurrentShares, result.ResolvedAdditionalShares),
		PricePosition: PricePosition(pos.MarketPrice, newAvg, pos.CurrentAvgPrice),
	}
}

// LadderPoint is the projected outcome of buying at one price.
type LadderPoint struct {
	Price            float64 `json:"price"`
	NewAvgPrice      float64 `json:"new_avg_price"`
	AvgPriceDeltaPct float64 `json:"avg_price_delta_pct"`
	RequiredCapital  float64 `json:"required_capital"`
}

// Ladder shows how the new average moves with the buy price for a fixed quantity.
type Ladder struct {
	Shares float64       `json:"shares"`
	Points []LadderPoint `json:"points"`
}

// Dataset returns the ladder as a line series of new averages keyed by price.
func (l Ladder) Dataset() Dataset {
	ds := Dataset{
		Kind:   KindLine,
		Labels: make([]string, len(l.Points)),
		Values: make([]float64, len(l.Points)),
	}
	for i, p := range l.Points {
		ds.Labels[i] = fmt.Sprintf("%.2f", p.Price)
		ds.Values[i] = p.NewAvgPrice
	}
	return ds
}

// ErrInvalidLadder is returned for ladder bounds or step counts that cannot be spanned.
var ErrInvalidLadder = errors.New("invalid price ladder")

// PriceLadder projects buying shares at steps evenly spaced prices from low to high
// inclusive.
func PriceLadder(pos averaging.Position, shares float64, fees averaging.FeePolicy, low, high float64, steps int) (Ladder, error) {
	if steps < 2 || steps > MaxLadderSteps {
		return Ladder{}, fmt.Errorf("%w: steps must be between 2 and %d, got %d", ErrInvalidLadder, MaxLadderSteps, steps)
	}
	if low <= 0 || high < low {
		return Ladder{}, fmt.Errorf("%w: need 0 < low <= high, got %v..%v", ErrInvalidLadder, low, high)
	}
	if shares < 0 {
		return Ladder{}, fmt.Errorf("%w: shares must not be negative", ErrInvalidLadder)
	}

	prices := floats.Span(make([]float64, steps), low, high)

	ladder := Ladder{Shares: shares, Points: make([]LadderPoint, 0, steps)}
	for _, price := range prices {
		r := averaging.Project(pos, averaging.ResolvedBuy{Shares: shares, Price: price}, fees, nil)
		ladder.Points = append(ladder.Points, LadderPoint{
			Price:            price,
			NewAvgPrice:      r.NewAvgPrice,
			AvgPriceDeltaPct: r.AvgPriceDeltaPct,
			RequiredCapital:  r.RequiredCapital,
		})
	}

	return ladder, nil
}
