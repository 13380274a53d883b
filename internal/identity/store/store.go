// Package store defines persistence contracts for the identity domain.
package store

import (
	"context"

	"volunity/internal/identity"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
)

// ErrNotFound keeps storage-level 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// RoleCounts aggregates users per role for statistics.
type RoleCounts struct {
	Total     int
	User      int
	Organizer int
	Admin     int
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *identity.User) error
	Update(ctx context.Context, user *identity.User) error
	Delete(ctx context.Context, userID id.UserID) error
	FindByID(ctx context.Context, userID id.UserID) (*identity.User, error)
	FindByEmail(ctx context.Context, email string) (*identity.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*identity.User, error)
	CountByRole(ctx context.Context) (RoleCounts, error)
}
