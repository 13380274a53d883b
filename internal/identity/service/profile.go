package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"volunity/internal/identity"
	"volunity/internal/identity/store"
	dErrors "volunity/pkg/domain-errors"
	"volunity/pkg/requestcontext"
)

// Profile returns the authenticated caller's account summary.
func (s *Service) Profile(ctx context.Context) (*identity.Summary, error) {
	user, err := s.users.FindByID(ctx, requestcontext.UserID(ctx))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load profile", err)
	}
	summary := identity.Summarize(user)
	return &summary, nil
}

// ProfileUpdate carries the mutable profile fields.
type ProfileUpdate struct {
	FirstName   string
	LastName    string
	Phone       string
	DateOfBirth *time.Time
}

// UpdateProfile replaces the caller's name and optional contact fields.
func (s *Service) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*identity.Summary, error) {
	if upd.FirstName == "" || upd.LastName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "first name and last name are required")
	}

	user, err := s.users.FindByID(ctx, requestcontext.UserID(ctx))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not update profile", err)
	}

	user.FirstName = upd.FirstName
	user.LastName = upd.LastName
	user.Phone = upd.Phone
	user.DateOfBirth = upd.DateOfBirth
	user.UpdatedAt = requestcontext.Now(ctx)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not update profile", err)
	}

	summary := identity.Summarize(user)
	return &summary, nil
}

// ChangePassword swaps the caller's credential after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return dErrors.New(dErrors.CodeValidation, "current and new password are required")
	}
	if len(next) < 6 {
		return dErrors.New(dErrors.CodeValidation, "new password must be at least 6 characters")
	}

	user, err := s.users.FindByID(ctx, requestcontext.UserID(ctx))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "could not change password", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not change password", err)
	}
	user.PasswordHash = string(hashed)
	user.UpdatedAt = requestcontext.Now(ctx)
	if err := s.users.Update(ctx, user); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not change password", err)
	}
	return nil
}

// DeleteAccount removes the caller's account. The database cascades to their
// events and registrations.
func (s *Service) DeleteAccount(ctx context.Context) error {
	if err := s.users.Delete(ctx, requestcontext.UserID(ctx)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "could not delete account", err)
	}
	return nil
}
