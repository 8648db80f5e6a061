package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCalculation(t *testing.T) {
	manualBefore := testutil.ToFloat64(calculations.WithLabelValues("manual"))
	targetBefore := testutil.ToFloat64(calculations.WithLabelValues("target"))
	reasonBefore := testutil.ToFloat64(infeasible.WithLabelValues("price-equals-target"))

	ObserveCalculation("manual", "")
	ObserveCalculation("target", "price-equals-target")

	assert.Equal(t, manualBefore+1, testutil.ToFloat64(calculations.WithLabelValues("manual")))
	assert.Equal(t, targetBefore+1, testutil.ToFloat64(calculations.WithLabelValues("target")))
	assert.Equal(t, reasonBefore+1, testutil.ToFloat64(infeasible.WithLabelValues("price-equals-target")))
}

func TestRateMetrics(t *testing.T) {
	before := testutil.ToFloat64(rateRefreshFailures)
	RateRefreshFailed()
	assert.Equal(t, before+1, testutil.ToFloat64(rateRefreshFailures))

	SetExchangeRate(1385.5)
	assert.Equal(t, 1385.5, testutil.ToFloat64(exchangeRate))
}
