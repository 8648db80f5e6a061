// Package handlers provides HTTP handlers for currency operations.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/avgdown/internal/modules/currency"
	"github.com/rs/zerolog"
)

// RateSource is the part of currency.RateProvider the handlers use.
type RateSource interface {
	Snapshot() currency.RateSnapshot
	Refresh(ctx context.Context) (currency.RateSnapshot, error)
}

// Handler handles currency HTTP requests
type Handler struct {
	rates RateSource
	log   zerolog.Logger
}

// NewHandler creates a new currency handler
func NewHandler(rates RateSource, log zerolog.Logger) *Handler {
	return &Handler{
		rates: rates,
		log:   log.With().Str("handler", "currency").Logger(),
	}
}

// ConvertRequest represents a request to convert an amount at the current rate
type ConvertRequest struct {
	Amount float64 `json:"amount"`
}

// HandleGetRate handles GET /api/currency/rate
func (h *Handler) HandleGetRate(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(h.rates.Snapshot(), nil))
}

// HandleRefreshRate handles POST /api/currency/rate/refresh
// A failed refresh still answers 200 with the rate that stays in effect.
func (h *Handler) HandleRefreshRate(w http.ResponseWriter, r *http.Request) {
	snap, err := h.rates.Refresh(r.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("Manual rate refresh failed")
		h.writeJSON(w, http.StatusOK, envelope(snap, err))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(snap, nil))
}

// HandleConvert handles POST /api/currency/convert
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Amount < 0 {
		http.Error(w, "amount must not be negative", http.StatusBadRequest)
		return
	}

	snap := h.rates.Snapshot()
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"from_currency": snap.Base,
		"to_currency":   snap.Quote,
		"from_amount":   req.Amount,
		"to_amount":     req.Amount * snap.Rate,
		"rate":          snap.Rate,
		"stale":         snap.Stale,
	}, nil))
}

// HandleGetRateSources handles GET /api/currency/rate/sources
func (h *Handler) HandleGetRateSources(w http.ResponseWriter, r *http.Request) {
	sources := []map[string]interface{}{
		{"order": 1, "source": "cache", "condition": "fresh entry younger than one hour"},
		{"order": 2, "source": "api", "condition": "cache miss or expired entry"},
		{"order": 3, "source": "stale-cache", "condition": "api request failed"},
		{"order": 4, "source": currency.SourceDefault, "condition": "no rate ever fetched"},
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"sources": sources,
		"count":   len(sources),
	}, nil))
}

func envelope(data interface{}, err error) map[string]interface{} {
	metadata := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if err != nil {
		metadata["error"] = err.Error()
	}
	return map[string]interface{}{
		"data":     data,
		"metadata": metadata,
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
