// Package handler is the thin HTTP layer for the registration engine.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"volunity/internal/event"
	"volunity/internal/registration"
	"volunity/internal/registration/service"
	id "volunity/pkg/domain"
	"volunity/pkg/platform/httputil"
	"volunity/pkg/requestcontext"
)

// Service is the slice of the registration service the handler consumes.
type Service interface {
	Register(ctx context.Context, eventID id.EventID) (*registration.Registration, error)
	Unregister(ctx context.Context, eventID id.EventID) error
	MarkAttendance(ctx context.Context, regID id.RegistrationID, attended bool) (*registration.Registration, error)
	ListMine(ctx context.Context, status registration.Status) ([]service.Mine, error)
	Participants(ctx context.Context, eventID id.EventID) (*service.Roster, error)
}

// Handler wires registration endpoints to the registration service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registration handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the registration endpoints. All of them require a session.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations/events/{eventID}/register", h.handleRegister)
	r.Delete("/registrations/events/{eventID}/unregister", h.handleUnregister)
	r.Get("/registrations/my-registrations", h.handleMyRegistrations)
	r.Get("/registrations/events/{eventID}/participants", h.handleParticipants)
	r.Put("/registrations/{registrationID}/attendance", h.handleAttendance)
}

type registrationResponse struct {
	ID           id.RegistrationID `json:"id"`
	EventID      id.EventID        `json:"eventId"`
	UserID       id.UserID         `json:"userId"`
	Status       string            `json:"status"`
	Attended     bool              `json:"attended"`
	RegisteredAt time.Time         `json:"registeredAt"`
}

func toRegistrationResponse(reg *registration.Registration) registrationResponse {
	return registrationResponse{
		ID:           reg.ID,
		EventID:      reg.EventID,
		UserID:       reg.UserID,
		Status:       string(reg.Status),
		Attended:     reg.Attended,
		RegisteredAt: reg.RegisteredAt,
	}
}

type eventSummary struct {
	ID        id.EventID `json:"id"`
	Title     string     `json:"title"`
	Location  string     `json:"location"`
	EventDate time.Time  `json:"eventDate"`
	Category  string     `json:"category,omitempty"`
	ImageURL  string     `json:"imageUrl,omitempty"`
	Status    string     `json:"status"`
}

func toEventSummary(ev *event.Event) eventSummary {
	return eventSummary{
		ID:        ev.ID,
		Title:     ev.Title,
		Location:  ev.Location,
		EventDate: ev.EventDate,
		Category:  ev.Category,
		ImageURL:  ev.ImageURL,
		Status:    string(ev.Status),
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.service.Register(ctx, eventID)
	if err != nil {
		h.logger.WarnContext(ctx, "registration refused",
			"event_id", eventID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":      "successfully registered for event",
		"registration": toRegistrationResponse(reg),
	})
}

func (h *Handler) handleUnregister(w http.ResponseWriter, r *http.Request) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Unregister(r.Context(), eventID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "successfully unregistered from event",
	})
}

func (h *Handler) handleMyRegistrations(w http.ResponseWriter, r *http.Request) {
	status := registration.Status(r.URL.Query().Get("status"))
	mine, err := h.service.ListMine(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	type mineResponse struct {
		registrationResponse
		Event eventSummary `json:"event"`
	}
	items := make([]mineResponse, 0, len(mine))
	for _, m := range mine {
		items = append(items, mineResponse{
			registrationResponse: toRegistrationResponse(m.Registration),
			Event:                toEventSummary(m.Event),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"registrations": items})
}

func (h *Handler) handleParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	roster, err := h.service.Participants(r.Context(), eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	type participantResponse struct {
		registrationResponse
		User any `json:"user"`
	}
	participants := make([]participantResponse, 0, len(roster.Participants))
	for _, p := range roster.Participants {
		participants = append(participants, participantResponse{
			registrationResponse: toRegistrationResponse(p.Registration),
			User:                 p.User,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"participants": participants,
		"stats": map[string]int{
			"total":     roster.Stats.Total,
			"confirmed": roster.Stats.Confirmed,
			"cancelled": roster.Stats.Cancelled,
			"attended":  roster.Stats.Attended,
		},
	})
}

type attendanceRequest struct {
	Attended bool `json:"attended"`
}

func (h *Handler) handleAttendance(w http.ResponseWriter, r *http.Request) {
	regID, err := id.ParseRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req attendanceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.service.MarkAttendance(r.Context(), regID, req.Attended)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      "attendance updated",
		"registration": toRegistrationResponse(reg),
	})
}
