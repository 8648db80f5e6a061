package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/avgdown/internal/modules/averaging"
	"github.com/aristath/avgdown/internal/modules/currency"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRate float64

func (f fixedRate) Snapshot() currency.RateSnapshot {
	return currency.RateSnapshot{Base: "USD", Quote: "KRW", Rate: float64(f), Source: "api"}
}

func setupRouter(includeFees bool) http.Handler {
	handler := NewHandler(averaging.NewEngine(), fixedRate(1400), includeFees, zerolog.Nop())
	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router
}

func post(t *testing.T, router http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body)))

	if w.Code != http.StatusOK {
		return w, nil
	}

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Contains(t, response, "metadata")
	return w, response["data"].(map[string]interface{})
}

func TestHandleCalculate_Manual(t *testing.T) {
	router := setupRouter(false)

	_, data := post(t, router, "/api/averaging/calculate", `{
		"mode": "manual",
		"market": "kr",
		"current_shares": "10",
		"current_avg_price": "100",
		"market_price": "80",
		"additional_shares": "10",
		"additional_price": "80"
	}`)
	require.NotNil(t, data)

	result := data["result"].(map[string]interface{})
	assert.Equal(t, true, result["feasible"])
	assert.Equal(t, "manual", result["mode"])
	assert.Equal(t, 90.0, result["new_avg_price"])
	assert.Equal(t, 800.0, result["required_capital"])
	assert.NotContains(t, result, "conversion")
	assert.NotContains(t, data, "exchange_rate")

	chartSet := data["charts"].(map[string]interface{})
	weight := chartSet["weight"].(map[string]interface{})
	assert.Equal(t, []interface{}{10.0, 10.0}, weight["values"])
}

func TestHandleCalculate_TargetUS(t *testing.T) {
	router := setupRouter(false)

	_, data := post(t, router, "/api/averaging/calculate", `{
		"mode": "target",
		"market": "us",
		"current_shares": 10,
		"current_avg_price": 100,
		"market_price": 80,
		"target_avg_price": 90,
		"original_exchange_rate": 1300
	}`)
	require.NotNil(t, data)

	result := data["result"].(map[string]interface{})
	assert.Equal(t, 10.0, result["resolved_additional_shares"])

	conversion := result["conversion"].(map[string]interface{})
	assert.Equal(t, 1400.0, conversion["rate"])
	assert.Equal(t, 800.0*1400, conversion["required_capital"])
	assert.Equal(t, 1000.0*1300+800.0*1400, conversion["total_cost"])

	rate := data["exchange_rate"].(map[string]interface{})
	assert.Equal(t, 1400.0, rate["rate"])
}

func TestHandleCalculate_Infeasible(t *testing.T) {
	router := setupRouter(false)

	_, data := post(t, router, "/api/averaging/calculate", `{
		"mode": "target",
		"current_shares": 10,
		"current_avg_price": 100,
		"market_price": 90,
		"target_avg_price": 90
	}`)
	require.NotNil(t, data)

	result := data["result"].(map[string]interface{})
	assert.Equal(t, false, result["feasible"])
	assert.Equal(t, "price-equals-target", result["reason"])
	assert.NotContains(t, data, "charts")
}

func TestHandleCalculate_IncludeFeesDefault(t *testing.T) {
	body := `{"current_shares": 10, "current_avg_price": 100, "additional_shares": 10, "additional_price": 80}`

	_, withDefault := post(t, setupRouter(true), "/api/averaging/calculate", body)
	require.NotNil(t, withDefault)
	assert.InDelta(t, 802.0, withDefault["result"].(map[string]interface{})["required_capital"], 1e-9)

	_, override := post(t, setupRouter(true), "/api/averaging/calculate",
		`{"include_fees": false, "current_shares": 10, "current_avg_price": 100, "additional_shares": 10, "additional_price": 80}`)
	require.NotNil(t, override)
	assert.Equal(t, 800.0, override["result"].(map[string]interface{})["required_capital"])
}

func TestHandleCalculate_GarbageFieldsDegradeToZero(t *testing.T) {
	_, data := post(t, setupRouter(false), "/api/averaging/calculate",
		`{"current_shares": "lots", "current_avg_price": "", "additional_shares": -3}`)
	require.NotNil(t, data)

	result := data["result"].(map[string]interface{})
	assert.Equal(t, true, result["feasible"])
	assert.Equal(t, 0.0, result["new_total_shares"])
}

func TestHandleCalculate_InvalidJSON(t *testing.T) {
	w, _ := post(t, setupRouter(false), "/api/averaging/calculate", "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleResolve(t *testing.T) {
	_, data := post(t, setupRouter(true), "/api/averaging/resolve", `{
		"mode": "target",
		"current_shares": 10,
		"current_avg_price": 100,
		"market_price": 80,
		"target_avg_price": 90
	}`)
	require.NotNil(t, data)

	assert.Equal(t, "target", data["mode"])
	resolution := data["resolution"].(map[string]interface{})
	assert.Equal(t, true, resolution["feasible"])
	buy := resolution["buy"].(map[string]interface{})
	assert.Equal(t, 11.0, buy["shares"])
	assert.Equal(t, 80.0, buy["price"])
}

func TestHandleLadder(t *testing.T) {
	_, data := post(t, setupRouter(false), "/api/averaging/ladder", `{
		"current_shares": 10,
		"current_avg_price": 100,
		"market_price": 80,
		"shares": 10,
		"low": 60,
		"high": 100,
		"steps": 5
	}`)
	require.NotNil(t, data)

	ladder := data["ladder"].(map[string]interface{})
	points := ladder["points"].([]interface{})
	require.Len(t, points, 5)
	assert.InDelta(t, 80.0, points[0].(map[string]interface{})["new_avg_price"], 1e-9)

	chart := data["chart"].(map[string]interface{})
	assert.Equal(t, "line", chart["kind"])
}

func TestHandleLadder_Invalid(t *testing.T) {
	w, _ := post(t, setupRouter(false), "/api/averaging/ladder",
		`{"current_shares": 10, "current_avg_price": 100, "shares": 10, "low": 60, "high": 100, "steps": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
