// Package handler is the thin HTTP layer for admin moderation. The router
// mounts it behind RequireRole(admin).
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"volunity/internal/admin/service"
	id "volunity/pkg/domain"
	"volunity/pkg/platform/httputil"
)

// Service is the slice of the admin service the handler consumes.
type Service interface {
	ChangeUserRole(ctx context.Context, userID id.UserID, role string) error
	DeleteUser(ctx context.Context, userID id.UserID) error
	Statistics(ctx context.Context) (*service.Statistics, error)
}

// Handler wires admin endpoints to the admin service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an admin handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the admin endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Put("/admin/users/{userID}/role", h.handleChangeRole)
	r.Delete("/admin/users/{userID}", h.handleDeleteUser)
	r.Get("/admin/statistics", h.handleStatistics)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req changeRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.ChangeUserRole(r.Context(), userID, req.Role); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "user role updated"})
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"users": map[string]int{
			"total":      stats.Users.Total,
			"volunteers": stats.Users.User,
			"organizers": stats.Users.Organizer,
			"admins":     stats.Users.Admin,
		},
		"events": map[string]int{
			"total":     stats.Events.Total,
			"draft":     stats.Events.Draft,
			"published": stats.Events.Published,
			"cancelled": stats.Events.Cancelled,
			"completed": stats.Events.Completed,
		},
		"registrations": map[string]int{
			"total":     stats.Registrations.Total,
			"confirmed": stats.Registrations.Confirmed,
			"attended":  stats.Registrations.Attended,
		},
	})
}
