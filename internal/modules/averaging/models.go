// Package averaging computes the outcome of adding to an existing share position.
//
// It answers two questions: what happens to the average cost if I buy N more shares
// at price P (manual mode), and how many shares must I buy at price P to bring the
// average down to T (target mode). Every function here is pure. Callers pass all
// inputs explicitly and receive a freshly built result.
package averaging

// FeeRate is the proportional trading cost (0.25% of notional) applied to the
// additional purchase only. The existing position is never charged.
const FeeRate = 0.0025

// Mode selects how the additional purchase is determined.
type Mode string

const (
	// ModeManual buys a fixed quantity at a fixed price.
	ModeManual Mode = "manual"
	// ModeTarget solves for the quantity that reaches a target average.
	ModeTarget Mode = "target"
)

// Reason tags why a target-mode plan cannot be solved.
type Reason string

const (
	ReasonNone Reason = ""
	// ReasonPriceEqualsTarget means the fee-adjusted buy price equals the target
	// average, so no finite quantity reaches it.
	ReasonPriceEqualsTarget Reason = "price-equals-target"
	// ReasonTargetUnreachable means no positive quantity lowers the average to the target.
	ReasonTargetUnreachable Reason = "target-unreachable"
)

// Position is the holding before the additional purchase.
type Position struct {
	CurrentShares   float64 `json:"current_shares"`
	CurrentAvgPrice float64 `json:"current_avg_price"`
	MarketPrice     float64 `json:"market_price"`
}

// Cost returns the cost basis of the existing holding.
func (p Position) Cost() float64 {
	// The conversion rounds the product so it is never fused into a later add.
	return float64(p.CurrentShares * p.CurrentAvgPrice)
}

// degenerate reports a position with nothing to compare against.
func (p Position) degenerate() bool {
	return p.CurrentShares <= 0 || p.CurrentAvgPrice <= 0
}

// BuyPlan describes the intended additional purchase.
// Implemented by ManualPlan and TargetPlan.
type BuyPlan interface {
	Mode() Mode
}

// ManualPlan buys a fixed quantity at a fixed price.
type ManualPlan struct {
	AdditionalShares float64 `json:"additional_shares"`
	AdditionalPrice  float64 `json:"additional_price"`
}

// Mode implements BuyPlan.
func (ManualPlan) Mode() Mode { return ModeManual }

// TargetPlan asks for the quantity that brings the average down to TargetAvgPrice
// when buying at DesiredBuyPrice. A non-positive DesiredBuyPrice falls back to the
// position's market price.
type TargetPlan struct {
	TargetAvgPrice  float64 `json:"target_avg_price"`
	DesiredBuyPrice float64 `json:"desired_buy_price"`
}

// Mode implements BuyPlan.
func (TargetPlan) Mode() Mode { return ModeTarget }

// FeePolicy toggles trading fees on the additional purchase.
type FeePolicy struct {
	IncludeFees bool `json:"include_fees"`
}

// Rate returns the fee rate this policy resolves to.
func (f FeePolicy) Rate() float64 {
	if f.IncludeFees {
		return FeeRate
	}
	return 0
}

// ResolvedBuy is a concrete purchase: quantity and per-share price before fees.
type ResolvedBuy struct {
	Shares float64 `json:"shares"`
	Price  float64 `json:"price"`
}

// Resolution is the outcome of ResolveBuyPlan. When Feasible is false, Reason says
// why and Buy only carries the price that was tried.
type Resolution struct {
	Buy      ResolvedBuy `json:"buy"`
	Feasible bool        `json:"feasible"`
	Reason   Reason      `json:"reason,omitempty"`
}

// ExchangeContext converts position-currency amounts into the home currency.
// OriginalRate is the rate the existing holding was bought at; zero means Rate.
type ExchangeContext struct {
	Rate         float64 `json:"rate"`
	OriginalRate float64 `json:"original_rate"`
}

// Conversion holds home-currency amounts derived from an ExchangeContext.
type Conversion struct {
	Rate            float64 `json:"rate"`
	OriginalRate    float64 `json:"original_rate"`
	RequiredCapital float64 `json:"required_capital"`
	TotalCost       float64 `json:"total_cost"`
}

// Result is the full projection of a purchase. All percentages are in percent
// units (12.5 means 12.5%). It carries no presentation formatting.
type Result struct {
	Mode     Mode   `json:"mode"`
	Feasible bool   `json:"feasible"`
	Reason   Reason `json:"reason,omitempty"`

	ResolvedAdditionalShares float64 `json:"resolved_additional_shares"`
	ResolvedAdditionalPrice  float64 `json:"resolved_additional_price"`

	NewTotalShares float64 `json:"new_total_shares"`
	NewTotalCost   float64 `json:"new_total_cost"`
	NewAvgPrice    float64 `json:"new_avg_price"`

	AvgPriceDeltaPct float64 `json:"avg_price_delta_pct"`
	CurrentReturnPct float64 `json:"current_return_pct"`
	PostBuyReturnPct float64 `json:"post_buy_return_pct"`
	RecoveryPct      float64 `json:"recovery_pct"`

	RequiredCapital float64     `json:"required_capital"`
	Conversion      *Conversion `json:"conversion,omitempty"`

	ScenarioProfitAtOldAvg float64 `json:"scenario_profit_at_old_avg"`
	ScenarioProfitPct      float64 `json:"scenario_profit_pct"`
}

// Request bundles everything Engine.Compute needs.
type Request struct {
	Position Position
	Plan     BuyPlan
	Fees     FeePolicy
	Exchange *ExchangeContext
}
