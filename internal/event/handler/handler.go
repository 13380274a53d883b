// Package handler is the thin HTTP layer for the event catalog.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"volunity/internal/event"
	"volunity/internal/event/service"
	"volunity/internal/event/store"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
	"volunity/pkg/platform/httputil"
)

// Service is the slice of the event service the handler consumes.
type Service interface {
	List(ctx context.Context, filter store.Filter) ([]service.WithCount, error)
	Get(ctx context.Context, eventID id.EventID) (*service.WithCount, error)
	Create(ctx context.Context, req service.CreateRequest) (*event.Event, error)
	Update(ctx context.Context, eventID id.EventID, req service.UpdateRequest) (*event.Event, error)
	Delete(ctx context.Context, eventID id.EventID) error
	MyEvents(ctx context.Context) ([]service.WithCount, error)
}

// Handler wires event endpoints to the event service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an event handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the read-only catalog endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/events", h.handleList)
	r.Get("/events/{eventID}", h.handleGet)
}

// RegisterProtected mounts the endpoints that require a session.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/events/my/events", h.handleMyEvents)
}

// RegisterManage mounts the mutating endpoints; the router gates them to
// organizers and admins, and ownership of individual events is checked in
// the service.
func (h *Handler) RegisterManage(r chi.Router) {
	r.Post("/events", h.handleCreate)
	r.Put("/events/{eventID}", h.handleUpdate)
	r.Delete("/events/{eventID}", h.handleDelete)
}

type eventResponse struct {
	ID                id.EventID          `json:"id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Location          string              `json:"location"`
	Latitude          *float64            `json:"latitude,omitempty"`
	Longitude         *float64            `json:"longitude,omitempty"`
	EventDate         time.Time           `json:"eventDate"`
	Duration          *int                `json:"duration,omitempty"`
	MaxParticipants   *int                `json:"maxParticipants,omitempty"`
	Category          string              `json:"category,omitempty"`
	ImageURL          string              `json:"imageUrl,omitempty"`
	Status            string              `json:"status"`
	CreatedBy         id.UserID           `json:"createdBy"`
	OrganizationID    *id.OrganizationID  `json:"organizationId,omitempty"`
	ParticipantsCount int                 `json:"participantsCount"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

func toEventResponse(ev *event.Event, participants int) eventResponse {
	return eventResponse{
		ID:                ev.ID,
		Title:             ev.Title,
		Description:       ev.Description,
		Location:          ev.Location,
		Latitude:          ev.Latitude,
		Longitude:         ev.Longitude,
		EventDate:         ev.EventDate,
		Duration:          ev.DurationMinutes,
		MaxParticipants:   ev.MaxParticipants,
		Category:          ev.Category,
		ImageURL:          ev.ImageURL,
		Status:            string(ev.Status),
		CreatedBy:         ev.CreatedBy,
		OrganizationID:    ev.OrganizationID,
		ParticipantsCount: participants,
		CreatedAt:         ev.CreatedAt,
		UpdatedAt:         ev.UpdatedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.Filter{
		Status:   event.Status(q.Get("status")),
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Limit:    intQuery(q.Get("limit")),
		Offset:   intQuery(q.Get("offset")),
	}

	events, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": toEventResponses(events)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	found, err := h.service.Get(r.Context(), eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"event": toEventResponse(found.Event, found.ParticipantsCount),
	})
}

type createEventRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Location        string   `json:"location"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	EventDate       string   `json:"eventDate"`
	Duration        *int     `json:"duration"`
	MaxParticipants *int     `json:"maxParticipants"`
	Category        string   `json:"category"`
	ImageURL        string   `json:"imageUrl"`
	Status          string   `json:"status"`
	OrganizationID  string   `json:"organizationId"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	eventDate, err := parseDateTime(req.EventDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var orgID *id.OrganizationID
	if req.OrganizationID != "" {
		parsed, err := id.ParseOrganizationID(req.OrganizationID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		orgID = &parsed
	}

	ev, err := h.service.Create(r.Context(), service.CreateRequest{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		EventDate:       eventDate,
		DurationMinutes: req.Duration,
		MaxParticipants: req.MaxParticipants,
		Category:        req.Category,
		ImageURL:        req.ImageURL,
		Status:          event.Status(req.Status),
		OrganizationID:  orgID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "event created",
		"event":   toEventResponse(ev, 0),
	})
}

type updateEventRequest struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	Location        *string  `json:"location"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	EventDate       *string  `json:"eventDate"`
	Duration        *int     `json:"duration"`
	MaxParticipants *int     `json:"maxParticipants"`
	Category        *string  `json:"category"`
	ImageURL        *string  `json:"imageUrl"`
	Status          *string  `json:"status"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req updateEventRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	upd := service.UpdateRequest{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		DurationMinutes: req.Duration,
		MaxParticipants: req.MaxParticipants,
		Category:        req.Category,
		ImageURL:        req.ImageURL,
	}
	if req.EventDate != nil {
		parsed, err := parseDateTime(*req.EventDate)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		upd.EventDate = &parsed
	}
	if req.Status != nil {
		status := event.Status(*req.Status)
		upd.Status = &status
	}

	ev, err := h.service.Update(r.Context(), eventID, upd)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "event updated",
		"event":   toEventResponse(ev, 0),
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), eventID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

func (h *Handler) handleMyEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.MyEvents(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": toEventResponses(events)})
}

func toEventResponses(events []service.WithCount) []eventResponse {
	responses := make([]eventResponse, 0, len(events))
	for _, wc := range events {
		responses = append(responses, toEventResponse(wc.Event, wc.ParticipantsCount))
	}
	return responses
}

func intQuery(raw string) int {
	n, _ := strconv.Atoi(raw)
	return n
}

// parseDateTime accepts RFC 3339 timestamps and bare ISO dates.
func parseDateTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "eventDate must be an RFC 3339 timestamp or YYYY-MM-DD")
}
