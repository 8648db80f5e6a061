package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/aristath/avgdown/internal/modules/averaging"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// notANumber is shown in place of NaN or infinite amounts.
const notANumber = "n/a"

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80"))
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))
	noteStyle  = lipgloss.NewStyle().Faint(true)
)

var reasonText = map[averaging.Reason]string{
	averaging.ReasonPriceEqualsTarget: "the buy price (after fees) equals the target average; no quantity reaches it",
	averaging.ReasonTargetUnreachable: "no purchase at this price brings the average down to the target",
}

// renderResult formats a result for the terminal. Amounts are rounded to two
// decimals for display only.
func renderResult(form averaging.Form, req averaging.Request, r averaging.Result) string {
	var b strings.Builder

	title := "Averaging down"
	if form.StockName != "" {
		title += ": " + form.StockName
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(noteStyle.Render(fmt.Sprintf("mode %s, market %s, fees %s", r.Mode, marketOf(form), feesOf(req.Fees))) + "\n\n")

	if !r.Feasible {
		b.WriteString(lossStyle.Render("Not reachable: "+reasonText[r.Reason]) + "\n")
		b.WriteString(fmt.Sprintf("buy price tried: %s\n", money(r.ResolvedAdditionalPrice)))
		return b.String()
	}

	unit := "₩"
	if form.Market == averaging.MarketUS {
		unit = "$"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "Before", "After").
		Row("Shares", quantity(req.Position.CurrentShares), quantity(r.NewTotalShares)).
		Row("Average price", unit+money(req.Position.CurrentAvgPrice), unit+money(r.NewAvgPrice)).
		Row("Total cost", unit+money(req.Position.Cost()), unit+money(r.NewTotalCost)).
		Row("Return at market", percent(r.CurrentReturnPct), percent(r.PostBuyReturnPct))

	b.WriteString(t.String() + "\n\n")

	b.WriteString(fmt.Sprintf("Buy %s shares at %s%s, capital required %s%s\n",
		quantity(r.ResolvedAdditionalShares), unit, money(r.ResolvedAdditionalPrice), unit, money(r.RequiredCapital)))
	b.WriteString(fmt.Sprintf("Average price change: %s\n", percent(r.AvgPriceDeltaPct)))
	b.WriteString(fmt.Sprintf("Rise needed to break even: %s\n", percent(r.RecoveryPct)))
	b.WriteString(fmt.Sprintf("If the price returns to %s%s: %s%s (%s)\n",
		unit, money(req.Position.CurrentAvgPrice), unit, money(r.ScenarioProfitAtOldAvg), percent(r.ScenarioProfitPct)))

	if c := r.Conversion; c != nil {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("At %s KRW/USD: capital required ₩%s, total cost ₩%s\n",
			money(c.Rate), money(c.RequiredCapital), money(c.TotalCost)))
	}

	return b.String()
}

func marketOf(form averaging.Form) averaging.Market {
	if form.Market == averaging.MarketUS {
		return averaging.MarketUS
	}
	return averaging.MarketKR
}

func feesOf(f averaging.FeePolicy) string {
	if f.IncludeFees {
		return "0.25%"
	}
	return "off"
}

// money renders v with two decimals and thousands separators.
func money(v float64) string {
	if !finite(v) {
		return notANumber
	}
	return humanize.FormatFloat("#,###.##", decimal.NewFromFloat(v).Round(2).InexactFloat64())
}

// quantity renders a share count without trailing zeros.
func quantity(v float64) string {
	if !finite(v) {
		return notANumber
	}
	return humanize.Commaf(decimal.NewFromFloat(v).Round(4).InexactFloat64())
}

// percent renders a signed percentage, coloured by direction.
func percent(v float64) string {
	if !finite(v) {
		return notANumber
	}
	d := decimal.NewFromFloat(v).Round(2)
	s := d.StringFixed(2) + "%"
	switch {
	case d.IsPositive():
		return gainStyle.Render("+" + s)
	case d.IsNegative():
		return lossStyle.Render(s)
	default:
		return s
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
