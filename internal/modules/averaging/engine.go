package averaging

import "math"

// priceTolerance is the relative distance under which the fee-adjusted buy price
// counts as equal to the target average.
const priceTolerance = 1e-9

// Engine runs the averaging arithmetic. It holds no state; the zero value is ready to use.
type Engine struct{}

// NewEngine creates a new averaging engine
func NewEngine() *Engine {
	return &Engine{}
}

// Compute resolves the plan and, when feasible, projects the resulting position.
// An infeasible plan yields a Result with Feasible=false, its Reason, and zeroed
// projection fields.
func (e *Engine) Compute(req Request) Result {
	res := ResolveBuyPlan(req.Position, req.Plan, req.Fees)
	mode := ModeManual
	if req.Plan != nil {
		mode = req.Plan.Mode()
	}

	if !res.Feasible {
		return Result{
			Mode:                    mode,
			Reason:                  res.Reason,
			ResolvedAdditionalPrice: res.Buy.Price,
		}
	}

	result := Project(req.Position, res.Buy, req.Fees, req.Exchange)
	result.Mode = mode
	return result
}

// ResolveBuyPlan turns a plan into a concrete purchase.
//
// Manual plans pass through unchanged and are always feasible, including the
// zero-share "no purchase" case. A nil plan is treated as an empty manual plan.
// Target plans solve
//
//	X = (oldCost - target*shares) / (target - buyPrice*(1+fee))
//
// and round X up to whole shares so the target is met or beaten.
func ResolveBuyPlan(pos Position, plan BuyPlan, fees FeePolicy) Resolution {
	switch p := plan.(type) {
	case TargetPlan:
		return resolveTarget(pos, p, fees)
	case *TargetPlan:
		if p == nil {
			return Resolution{Feasible: true}
		}
		return resolveTarget(pos, *p, fees)
	case ManualPlan:
		return Resolution{Buy: ResolvedBuy{Shares: p.AdditionalShares, Price: p.AdditionalPrice}, Feasible: true}
	case *ManualPlan:
		if p == nil {
			return Resolution{Feasible: true}
		}
		return Resolution{Buy: ResolvedBuy{Shares: p.AdditionalShares, Price: p.AdditionalPrice}, Feasible: true}
	default:
		return Resolution{Feasible: true}
	}
}

func resolveTarget(pos Position, plan TargetPlan, fees FeePolicy) Resolution {
	price := plan.DesiredBuyPrice
	if price <= 0 {
		price = pos.MarketPrice
	}
	target := plan.TargetAvgPrice
	rate := fees.Rate()
	effective := price * (1 + rate)

	infeasible := func(reason Reason) Resolution {
		return Resolution{Buy: ResolvedBuy{Price: price}, Reason: reason}
	}

	if target <= 0 || effective <= 0 {
		return infeasible(ReasonTargetUnreachable)
	}
	if nearlyEqual(target, effective) {
		return infeasible(ReasonPriceEqualsTarget)
	}
	// Averaging down only: a target at or above the current average needs no purchase.
	if target >= pos.CurrentAvgPrice {
		return infeasible(ReasonTargetUnreachable)
	}

	x := (pos.Cost() - target*pos.CurrentShares) / (target - effective)
	if x <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return infeasible(ReasonTargetUnreachable)
	}

	shares := math.Ceil(x)
	// An exact solution can land a hair above the integer in float arithmetic, and the
	// ceiling can fall a hair short. Check both neighbours with the projection formula.
	if shares > 1 && averageAfter(pos, shares-1, price, rate) <= target {
		shares--
	}
	if averageAfter(pos, shares, price, rate) > target {
		shares++
	}

	return Resolution{Buy: ResolvedBuy{Shares: shares, Price: price}, Feasible: true}
}

// Project computes the post-purchase position. It assumes buy came from a feasible
// resolution and never fails. Ratios fall back to zero whenever their denominator
// is zero or the existing position is empty.
func Project(pos Position, buy ResolvedBuy, fees FeePolicy, fx *ExchangeContext) Result {
	rate := fees.Rate()
	oldCost := pos.Cost()
	required := purchaseCost(buy.Shares, buy.Price, rate)

	r := Result{
		Mode:                     ModeManual,
		Feasible:                 true,
		ResolvedAdditionalShares: buy.Shares,
		ResolvedAdditionalPrice:  buy.Price,
		NewTotalShares:           pos.CurrentShares + buy.Shares,
		NewTotalCost:             oldCost + required,
		RequiredCapital:          required,
	}

	if fx != nil {
		r.Conversion = convert(oldCost, required, *fx)
	}

	if r.NewTotalShares <= 0 {
		return r
	}

	r.NewAvgPrice = r.NewTotalCost / r.NewTotalShares
	r.ScenarioProfitAtOldAvg = pos.CurrentAvgPrice*r.NewTotalShares - r.NewTotalCost

	if pos.degenerate() {
		return r
	}

	r.AvgPriceDeltaPct = percentChange(r.NewAvgPrice, pos.CurrentAvgPrice)
	r.CurrentReturnPct = percentChange(pos.CurrentShares*pos.MarketPrice, oldCost)
	r.PostBuyReturnPct = percentChange(r.NewTotalShares*pos.MarketPrice, r.NewTotalCost)
	r.RecoveryPct = percentChange(r.NewAvgPrice, pos.MarketPrice)
	r.ScenarioProfitPct = ratioPct(r.ScenarioProfitAtOldAvg, r.NewTotalCost)

	return r
}

// purchaseCost is the fee-inclusive cost of buying shares at price.
// Both the solver and the projection go through here so they agree to the last bit;
// the conversion rounds the product and keeps it from being fused into a later add.
func purchaseCost(shares, price, rate float64) float64 {
	return float64(shares * price * (1 + rate))
}

func averageAfter(pos Position, shares, price, rate float64) float64 {
	total := pos.CurrentShares + shares
	if total <= 0 {
		return 0
	}
	return (pos.Cost() + purchaseCost(shares, price, rate)) / total
}

func convert(oldCost, required float64, fx ExchangeContext) *Conversion {
	original := fx.OriginalRate
	if original <= 0 {
		original = fx.Rate
	}
	return &Conversion{
		Rate:            fx.Rate,
		OriginalRate:    original,
		RequiredCapital: required * fx.Rate,
		TotalCost:       oldCost*original + required*fx.Rate,
	}
}

// percentChange returns (value-base)/base*100, or 0 when base is zero.
func percentChange(value, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (value - base) / base * 100
}

func ratioPct(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= priceTolerance*math.Max(math.Abs(a), math.Abs(b))
}
