// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	calculations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avgdown_calculations_total",
		Help: "Averaging calculations served, by mode",
	}, []string{"mode"})
	infeasible = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avgdown_infeasible_total",
		Help: "Target-mode plans that could not be solved, by reason",
	}, []string{"reason"})
	rateRefreshFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "avgdown_rate_refresh_failures_total",
		Help: "Exchange rate refreshes that failed and kept the previous rate",
	})
	exchangeRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "avgdown_exchange_rate",
		Help: "Exchange rate currently applied to US positions",
	})
)

func init() {
	prometheus.MustRegister(calculations, infeasible, rateRefreshFailures, exchangeRate)
}

// ObserveCalculation counts one calculation. A non-empty reason also counts it as infeasible.
func ObserveCalculation(mode, reason string) {
	calculations.WithLabelValues(mode).Inc()
	if reason != "" {
		infeasible.WithLabelValues(reason).Inc()
	}
}

// RateRefreshFailed counts a failed rate refresh.
func RateRefreshFailed() {
	rateRefreshFailures.Inc()
}

// SetExchangeRate records the rate now in effect.
func SetExchangeRate(rate float64) {
	exchangeRate.Set(rate)
}
