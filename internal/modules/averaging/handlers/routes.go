package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all averaging routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/averaging", func(r chi.Router) {
		r.Post("/calculate", h.HandleCalculate)
		r.Post("/resolve", h.HandleResolve)
		r.Post("/ladder", h.HandleLadder)
	})
}
