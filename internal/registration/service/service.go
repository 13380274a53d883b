// Package service implements the registration engine: joining and leaving
// events under capacity and timing rules, attendance, and rosters.
package service

import (
	"context"
	"errors"
	"log/slog"

	"volunity/internal/event"
	"volunity/internal/identity"
	"volunity/internal/platform/config"
	"volunity/internal/registration"
	"volunity/internal/registration/metrics"
	"volunity/internal/registration/store"
	"volunity/pkg/authz"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
	"volunity/pkg/requestcontext"
)

// EventCatalog is the slice of the event catalog the engine reads. It never
// writes events.
type EventCatalog interface {
	FindByID(ctx context.Context, eventID id.EventID) (*event.Event, error)
}

// UserDirectory resolves registered users for participant rosters.
type UserDirectory interface {
	FindByID(ctx context.Context, userID id.UserID) (*identity.User, error)
}

// Service mediates registration operations.
type Service struct {
	regs    store.RegistrationStore
	catalog EventCatalog
	users   UserDirectory
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs the registration service.
func New(regs store.RegistrationStore, catalog EventCatalog, users UserDirectory, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{regs: regs, catalog: catalog, users: users, logger: logger, metrics: m}
}

// Register joins the caller to an event. A cancelled row for the pair is
// reactivated rather than duplicated. The existence, publication and date
// checks run first; the existing-row and capacity checks run under the
// store's per-event serialization so two concurrent joins cannot both pass a
// capacity check with one spot left.
func (s *Service) Register(ctx context.Context, eventID id.EventID) (*registration.Registration, error) {
	userID := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)

	ev, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.OpenForRegistration() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "event is not open for registration")
	}
	if ev.EventDate.Before(now) {
		return nil, dErrors.New(dErrors.CodeInvalidState, "event has already occurred")
	}

	var reg *registration.Registration
	err = s.regs.Serialize(ctx, eventID, func(ctx context.Context) error {
		existing, err := s.regs.FindByEventAndUser(ctx, eventID, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return dErrors.Wrap(dErrors.CodeInternal, "could not register", err)
		}
		if existing != nil && existing.Status == registration.StatusConfirmed {
			return dErrors.New(dErrors.CodeConflict, "already registered for this event")
		}

		if ev.MaxParticipants != nil {
			confirmed, err := s.regs.CountConfirmed(ctx, eventID)
			if err != nil {
				return dErrors.Wrap(dErrors.CodeInternal, "could not register", err)
			}
			if confirmed >= *ev.MaxParticipants {
				s.metrics.IncCapacityRejected()
				return dErrors.New(dErrors.CodeCapacityExceeded, "no available spots for this event")
			}
		}

		if existing != nil {
			if err := existing.Reactivate(now); err != nil {
				return err
			}
			if err := s.regs.Update(ctx, existing); err != nil {
				return dErrors.Wrap(dErrors.CodeInternal, "could not register", err)
			}
			reg = existing
			return nil
		}

		reg = registration.NewConfirmed(eventID, userID, now)
		if err := s.regs.Create(ctx, reg); err != nil {
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				return dErrors.New(dErrors.CodeConflict, "already registered for this event")
			}
			return dErrors.Wrap(dErrors.CodeInternal, "could not register", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, err
	}

	s.metrics.IncRegistered()
	s.logger.InfoContext(ctx, "registered for event",
		"event_id", eventID,
		"user_id", userID,
		"registration_id", reg.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return reg, nil
}

// Unregister cancels the caller's registration. The row is kept and flipped
// to cancelled so a later rejoin reuses it. Leaving is refused once the
// event is less than the cutoff away, and also once it has passed.
func (s *Service) Unregister(ctx context.Context, eventID id.EventID) error {
	userID := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)

	ev, err := s.findEvent(ctx, eventID)
	if err != nil {
		return err
	}

	reg, err := s.regs.FindByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "not registered for this event")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "could not unregister", err)
	}
	if err := reg.Cancel(); err != nil {
		return err
	}
	if ev.EventDate.Sub(now) < config.UnregisterCutoff {
		return dErrors.New(dErrors.CodeInvalidState, "cannot unregister within 24 hours of the event")
	}

	if err := s.regs.Update(ctx, reg); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not unregister", err)
	}

	s.metrics.IncUnregistered()
	s.logger.InfoContext(ctx, "unregistered from event",
		"event_id", eventID,
		"user_id", userID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// MarkAttendance records whether a participant showed up. Only the creator
// of the registration's event or an admin may call it.
func (s *Service) MarkAttendance(ctx context.Context, regID id.RegistrationID, attended bool) (*registration.Registration, error) {
	reg, err := s.regs.FindByID(ctx, regID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not update attendance", err)
	}

	ev, err := s.findEvent(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManage(actorFrom(ctx), ev.CreatedBy) {
		return nil, dErrors.New(dErrors.CodeForbidden, "you cannot manage attendance for this event")
	}

	reg.Attended = attended
	if err := s.regs.Update(ctx, reg); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not update attendance", err)
	}
	return reg, nil
}

// Mine pairs one of the caller's registrations with its event.
type Mine struct {
	Registration *registration.Registration
	Event        *event.Event
}

// ListMine returns the caller's registrations, newest first, optionally
// filtered by status. Registrations whose event has since disappeared are
// omitted.
func (s *Service) ListMine(ctx context.Context, status registration.Status) ([]Mine, error) {
	if status != "" && !registration.ValidStatus(status) {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown registration status")
	}

	regs, err := s.regs.ListByUser(ctx, requestcontext.UserID(ctx), status)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load your registrations", err)
	}

	mine := make([]Mine, 0, len(regs))
	for _, reg := range regs {
		ev, err := s.catalog.FindByID(ctx, reg.EventID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) || errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load your registrations", err)
		}
		mine = append(mine, Mine{Registration: reg, Event: ev})
	}
	return mine, nil
}

// Participant pairs a registration with the volunteer behind it.
type Participant struct {
	Registration *registration.Registration
	User         identity.Summary
}

// RosterStats aggregates an event's registrations by state.
type RosterStats struct {
	Total     int
	Confirmed int
	Cancelled int
	Attended  int
}

// Roster is the full participant list for an event, with per-state counts.
type Roster struct {
	Participants []Participant
	Stats        RosterStats
}

// Participants returns the roster for an event. Only the event's creator or
// an admin may see it. Cancelled registrations are included so organizers
// see the full history.
func (s *Service) Participants(ctx context.Context, eventID id.EventID) (*Roster, error) {
	ev, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManage(actorFrom(ctx), ev.CreatedBy) {
		return nil, dErrors.New(dErrors.CodeForbidden, "you cannot view participants for this event")
	}

	regs, err := s.regs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load participants", err)
	}

	roster := &Roster{Participants: make([]Participant, 0, len(regs))}
	for _, reg := range regs {
		roster.Stats.Total++
		switch reg.Status {
		case registration.StatusConfirmed:
			roster.Stats.Confirmed++
		case registration.StatusCancelled:
			roster.Stats.Cancelled++
		}
		if reg.Attended {
			roster.Stats.Attended++
		}

		user, err := s.users.FindByID(ctx, reg.UserID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load participants", err)
		}
		roster.Participants = append(roster.Participants, Participant{
			Registration: reg,
			User:         identity.Summarize(user),
		})
	}
	return roster, nil
}

func (s *Service) findEvent(ctx context.Context, eventID id.EventID) (*event.Event, error) {
	ev, err := s.catalog.FindByID(ctx, eventID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) || errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load event", err)
	}
	return ev, nil
}

func actorFrom(ctx context.Context) authz.Actor {
	return authz.Actor{
		ID:   requestcontext.UserID(ctx),
		Role: requestcontext.UserRole(ctx),
	}
}
