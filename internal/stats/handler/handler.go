// Package handler serves the public statistics endpoint.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"volunity/internal/stats/service"
	"volunity/pkg/platform/httputil"
)

// Service is the slice of the stats service the handler consumes.
type Service interface {
	Compute(ctx context.Context) (*service.Public, error)
}

// Handler wires the public statistics endpoint.
type Handler struct {
	service Service
}

// New constructs a stats handler.
func New(service Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the public statistics endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Get("/public/statistics", h.handleStatistics)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Compute(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
