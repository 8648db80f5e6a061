package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/avgdown/internal/modules/currency"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRates struct {
	snap       currency.RateSnapshot
	refreshed  currency.RateSnapshot
	refreshErr error
}

func (s *stubRates) Snapshot() currency.RateSnapshot { return s.snap }

func (s *stubRates) Refresh(ctx context.Context) (currency.RateSnapshot, error) {
	if s.refreshErr != nil {
		return s.snap, s.refreshErr
	}
	s.snap = s.refreshed
	return s.snap, nil
}

func setupRouter(rates RateSource) http.Handler {
	handler := NewHandler(rates, zerolog.Nop())
	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Contains(t, response, "data")
	require.Contains(t, response, "metadata")
	return response
}

func TestHandleGetRate(t *testing.T) {
	rates := &stubRates{snap: currency.RateSnapshot{Base: "USD", Quote: "KRW", Rate: 1400, Source: "api"}}
	router := setupRouter(rates)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/currency/rate", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 1400.0, data["rate"])
	assert.Equal(t, "USD", data["base"])
	assert.Equal(t, "KRW", data["quote"])
}

func TestHandleRefreshRate(t *testing.T) {
	rates := &stubRates{
		snap:      currency.RateSnapshot{Rate: 1},
		refreshed: currency.RateSnapshot{Rate: 1455.5, Source: "api"},
	}
	router := setupRouter(rates)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/currency/rate/refresh", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, 1455.5, response["data"].(map[string]interface{})["rate"])
	assert.NotContains(t, response["metadata"], "error")
}

func TestHandleRefreshRate_Failure(t *testing.T) {
	rates := &stubRates{
		snap:       currency.RateSnapshot{Rate: 1380},
		refreshErr: errors.New("upstream down"),
	}
	router := setupRouter(rates)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/currency/rate/refresh", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, 1380.0, response["data"].(map[string]interface{})["rate"])
	assert.Equal(t, "upstream down", response["metadata"].(map[string]interface{})["error"])
}

func TestHandleConvert(t *testing.T) {
	rates := &stubRates{snap: currency.RateSnapshot{Base: "USD", Quote: "KRW", Rate: 1400}}
	router := setupRouter(rates)

	body, _ := json.Marshal(map[string]interface{}{"amount": 12.5})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/currency/convert", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 17500.0, data["to_amount"])
	assert.Equal(t, "USD", data["from_currency"])
}

func TestHandleConvert_BadRequest(t *testing.T) {
	router := setupRouter(&stubRates{snap: currency.RateSnapshot{Rate: 1400}})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"negative amount", `{"amount": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/currency/convert", bytes.NewBufferString(tt.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleGetRateSources(t *testing.T) {
	router := setupRouter(&stubRates{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/currency/rate/sources", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 4.0, data["count"])
}
