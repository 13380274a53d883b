// Package service implements admin moderation and platform statistics.
package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	eventstore "volunity/internal/event/store"
	identitystore "volunity/internal/identity/store"
	regstore "volunity/internal/registration/store"
	"volunity/pkg/authz"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
	"volunity/pkg/requestcontext"
)

// Service mediates admin-only operations. Role enforcement happens in the
// router; the service assumes an admin caller.
type Service struct {
	users  identitystore.UserStore
	events eventstore.EventStore
	regs   regstore.RegistrationStore
	logger *slog.Logger
}

// New constructs the admin service.
func New(users identitystore.UserStore, events eventstore.EventStore, regs regstore.RegistrationStore, logger *slog.Logger) *Service {
	return &Service{users: users, events: events, regs: regs, logger: logger}
}

// ChangeUserRole sets a user's role to one of the known roles.
func (s *Service) ChangeUserRole(ctx context.Context, userID id.UserID, role string) error {
	if !authz.ValidRole(role) {
		return dErrors.New(dErrors.CodeValidation, "role must be user, organizer or admin")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, identitystore.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "could not change role", err)
	}

	user.Role = role
	user.UpdatedAt = requestcontext.Now(ctx)
	if err := s.users.Update(ctx, user); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not change role", err)
	}

	s.logger.InfoContext(ctx, "user role changed",
		"user_id", userID,
		"role", role,
		"admin_id", requestcontext.UserID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// DeleteUser removes an account. The database cascades to the user's events
// and registrations. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, userID id.UserID) error {
	if userID == requestcontext.UserID(ctx) {
		return dErrors.New(dErrors.CodeValidation, "you cannot delete your own account here")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, identitystore.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "could not delete user", err)
	}

	s.logger.InfoContext(ctx, "user deleted by admin",
		"user_id", userID,
		"admin_id", requestcontext.UserID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Statistics is the admin dashboard aggregate.
type Statistics struct {
	Users         identitystore.RoleCounts
	Events        eventstore.StatusCounts
	Registrations regstore.Totals
}

// Statistics gathers the three aggregations concurrently; they read
// independent tables.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.users.CountByRole(ctx)
		if err != nil {
			return err
		}
		stats.Users = counts
		return nil
	})
	g.Go(func() error {
		counts, err := s.events.CountByStatus(ctx)
		if err != nil {
			return err
		}
		stats.Events = counts
		return nil
	})
	g.Go(func() error {
		totals, err := s.regs.Totals(ctx)
		if err != nil {
			return err
		}
		stats.Registrations = totals
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load statistics", err)
	}
	return &stats, nil
}
