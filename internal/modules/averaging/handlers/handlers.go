// Package handlers provides HTTP handlers for the averaging calculator.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/avgdown/internal/metrics"
	"github.com/aristath/avgdown/internal/modules/averaging"
	"github.com/aristath/avgdown/internal/modules/charts"
	"github.com/aristath/avgdown/internal/modules/currency"
	"github.com/rs/zerolog"
)

// RateReader supplies the exchange rate for US-market forms.
type RateReader interface {
	Snapshot() currency.RateSnapshot
}

// Handler handles averaging HTTP requests
type Handler struct {
	engine             *averaging.Engine
	rates              RateReader
	includeFeesDefault bool
	log                zerolog.Logger
}

// NewHandler creates a new averaging handler. includeFeesDefault applies when a
// form omits include_fees.
func NewHandler(engine *averaging.Engine, rates RateReader, includeFeesDefault bool, log zerolog.Logger) *Handler {
	return &Handler{
		engine:             engine,
		rates:              rates,
		includeFeesDefault: includeFeesDefault,
		log:                log.With().Str("handler", "averaging").Logger(),
	}
}

// LadderRequest is a form plus the price range to sweep.
type LadderRequest struct {
	averaging.Form
	Shares averaging.Field `json:"shares"`
	Low    averaging.Field `json:"low"`
	High   averaging.Field `json:"high"`
	Steps  int             `json:"steps"`
}

// HandleCalculate handles POST /api/averaging/calculate
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	form := averaging.Form{IncludeFees: h.includeFeesDefault}
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, snap := h.request(form)
	result := h.engine.Compute(req)
	metrics.ObserveCalculation(string(result.Mode), string(result.Reason))

	data := map[string]interface{}{
		"result": result,
	}
	if result.Feasible {
		data["charts"] = charts.ForResult(req.Position, result)
	}
	if snap != nil {
		data["exchange_rate"] = snap
	}

	h.log.Debug().
		Str("mode", string(result.Mode)).
		Str("market", string(form.Market)).
		Bool("feasible", result.Feasible).
		Str("reason", string(result.Reason)).
		Msg("Calculated")

	h.writeJSON(w, http.StatusOK, envelope(data))
}

// HandleResolve handles POST /api/averaging/resolve
// It answers only the quantity question, without projecting the position.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	form := averaging.Form{IncludeFees: h.includeFeesDefault}
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, _ := h.request(form)
	resolution := averaging.ResolveBuyPlan(req.Position, req.Plan, req.Fees)

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"mode":       req.Plan.Mode(),
		"resolution": resolution,
	}))
}

// HandleLadder handles POST /api/averaging/ladder
func (h *Handler) HandleLadder(w http.ResponseWriter, r *http.Request) {
	body := LadderRequest{Form: averaging.Form{IncludeFees: h.includeFeesDefault}}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, _ := h.request(body.Form)
	ladder, err := charts.PriceLadder(req.Position, body.Shares.Float(), req.Fees, body.Low.Float(), body.High.Float(), body.Steps)
	if errors.Is(err, charts.ErrInvalidLadder) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build price ladder")
		http.Error(w, "Failed to build price ladder", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"ladder": ladder,
		"chart":  ladder.Dataset(),
	}))
}

// request converts the form, reading the live rate for US-market positions.
func (h *Handler) request(form averaging.Form) (averaging.Request, *currency.RateSnapshot) {
	if form.Market != averaging.MarketUS || h.rates == nil {
		return form.Request(0), nil
	}
	snap := h.rates.Snapshot()
	return form.Request(snap.Rate), &snap
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
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
