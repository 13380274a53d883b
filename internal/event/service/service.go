// Package service implements the event catalog operations. The registration
// engine depends on this package for event existence and capacity inputs but
// owns its own state.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"volunity/internal/event"
	"volunity/internal/event/store"
	"volunity/pkg/authz"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
	"volunity/pkg/requestcontext"
)

// RegistrationCounter exposes the confirmed-registration counts the catalog
// annotates listings with. Implemented by the registration store; capacity is
// always derived, never cached.
type RegistrationCounter interface {
	CountConfirmed(ctx context.Context, eventID id.EventID) (int, error)
	CountConfirmedByEvent(ctx context.Context) (map[id.EventID]int, error)
}

// Service mediates event catalog operations.
type Service struct {
	events   store.EventStore
	orgs     store.OrganizationStore
	counters RegistrationCounter
	logger   *slog.Logger
}

// New constructs the event service.
func New(events store.EventStore, orgs store.OrganizationStore, counters RegistrationCounter, logger *slog.Logger) *Service {
	return &Service{events: events, orgs: orgs, counters: counters, logger: logger}
}

// WithCount pairs an event with its confirmed-participant count.
type WithCount struct {
	Event             *event.Event
	ParticipantsCount int
}

// List returns events matching the filter, ordered by date, each annotated
// with its confirmed-participant count.
func (s *Service) List(ctx context.Context, filter store.Filter) ([]WithCount, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Status != "" && !event.ValidStatus(filter.Status) {
		return nil, event.ErrUnknownStatus
	}

	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load events", err)
	}
	counts, err := s.counters.CountConfirmedByEvent(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load events", err)
	}

	annotated := make([]WithCount, 0, len(events))
	for _, ev := range events {
		annotated = append(annotated, WithCount{Event: ev, ParticipantsCount: counts[ev.ID]})
	}
	return annotated, nil
}

// Get returns a single event with its confirmed-participant count.
func (s *Service) Get(ctx context.Context, eventID id.EventID) (*WithCount, error) {
	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load event", err)
	}
	count, err := s.counters.CountConfirmed(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load event", err)
	}
	return &WithCount{Event: ev, ParticipantsCount: count}, nil
}

// CreateRequest carries the fields accepted at event creation.
type CreateRequest struct {
	Title           string
	Description     string
	Location        string
	Latitude        *float64
	Longitude       *float64
	EventDate       time.Time
	DurationMinutes *int
	MaxParticipants *int
	Category        string
	ImageURL        string
	Status          event.Status
	OrganizationID  *id.OrganizationID
}

// Create adds an event owned by the caller. When an organization is named it
// must belong to the caller unless the caller is an admin.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*event.Event, error) {
	actor := actorFrom(ctx)

	if req.Title == "" || req.Description == "" || req.Location == "" || req.EventDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "title, description, location and event date are required")
	}
	if req.Status == "" {
		req.Status = event.StatusDraft
	}
	if !event.ValidStatus(req.Status) {
		return nil, event.ErrUnknownStatus
	}
	if req.MaxParticipants != nil && *req.MaxParticipants <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "max participants must be positive")
	}

	if req.OrganizationID != nil {
		org, err := s.orgs.FindByID(ctx, *req.OrganizationID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "could not create event", err)
		}
		if org != nil && !authz.CanManage(actor, org.OrganizerID) {
			return nil, dErrors.New(dErrors.CodeForbidden, "you cannot create events for this organization")
		}
	}

	now := requestcontext.Now(ctx)
	ev := &event.Event{
		ID:              id.NewEventID(),
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		EventDate:       req.EventDate,
		DurationMinutes: req.DurationMinutes,
		MaxParticipants: req.MaxParticipants,
		Category:        req.Category,
		ImageURL:        req.ImageURL,
		Status:          req.Status,
		CreatedBy:       actor.ID,
		OrganizationID:  req.OrganizationID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not create event", err)
	}

	s.logger.InfoContext(ctx, "event created",
		"event_id", ev.ID,
		"user_id", actor.ID,
		"status", ev.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	return ev, nil
}

// UpdateRequest carries the mutable event fields; nil means leave unchanged.
type UpdateRequest struct {
	Title           *string
	Description     *string
	Location        *string
	Latitude        *float64
	Longitude       *float64
	EventDate       *time.Time
	DurationMinutes *int
	MaxParticipants *int
	Category        *string
	ImageURL        *string
	Status          *event.Status
}

// Update applies a partial update to an event the caller owns (or any event
// for admins).
func (s *Service) Update(ctx context.Context, eventID id.EventID, req UpdateRequest) (*event.Event, error) {
	ev, err := s.requireManageable(ctx, eventID, "you cannot edit this event")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		ev.Title = *req.Title
	}
	if req.Description != nil {
		ev.Description = *req.Description
	}
	if req.Location != nil {
		ev.Location = *req.Location
	}
	if req.Latitude != nil {
		ev.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		ev.Longitude = req.Longitude
	}
	if req.EventDate != nil {
		ev.EventDate = *req.EventDate
	}
	if req.DurationMinutes != nil {
		ev.DurationMinutes = req.DurationMinutes
	}
	if req.MaxParticipants != nil {
		if *req.MaxParticipants <= 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "max participants must be positive")
		}
		ev.MaxParticipants = req.MaxParticipants
	}
	if req.Category != nil {
		ev.Category = *req.Category
	}
	if req.ImageURL != nil {
		ev.ImageURL = *req.ImageURL
	}
	if req.Status != nil {
		if !event.ValidStatus(*req.Status) {
			return nil, event.ErrUnknownStatus
		}
		ev.Status = *req.Status
	}
	ev.UpdatedAt = requestcontext.Now(ctx)

	if err := s.events.Update(ctx, ev); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not update event", err)
	}
	return ev, nil
}

// Delete removes an event the caller owns (or any event for admins). The
// database cascades to its registrations.
func (s *Service) Delete(ctx context.Context, eventID id.EventID) error {
	if _, err := s.requireManageable(ctx, eventID, "you cannot delete this event"); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, eventID); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not delete event", err)
	}
	s.logger.InfoContext(ctx, "event deleted",
		"event_id", eventID,
		"user_id", requestcontext.UserID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// MyEvents returns the caller's created events with registration counts.
func (s *Service) MyEvents(ctx context.Context) ([]WithCount, error) {
	events, err := s.events.ListByCreator(ctx, requestcontext.UserID(ctx))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load your events", err)
	}
	counts, err := s.counters.CountConfirmedByEvent(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load your events", err)
	}
	annotated := make([]WithCount, 0, len(events))
	for _, ev := range events {
		annotated = append(annotated, WithCount{Event: ev, ParticipantsCount: counts[ev.ID]})
	}
	return annotated, nil
}

func (s *Service) requireManageable(ctx context.Context, eventID id.EventID, denial string) (*event.Event, error) {
	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load event", err)
	}
	if !authz.CanManage(actorFrom(ctx), ev.CreatedBy) {
		return nil, dErrors.New(dErrors.CodeForbidden, denial)
	}
	return ev, nil
}

func actorFrom(ctx context.Context) authz.Actor {
	return authz.Actor{
		ID:   requestcontext.UserID(ctx),
		Role: requestcontext.UserRole(ctx),
	}
}
