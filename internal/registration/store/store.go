// Package store defines persistence contracts for the registration engine.
package store

import (
	"context"

	"volunity/internal/registration"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
)

// ErrNotFound keeps storage-level 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// ErrDuplicatePair surfaces a violation of the one-row-per-(event,user)
// invariant, raised by the UNIQUE constraint or its in-memory equivalent.
var ErrDuplicatePair = dErrors.New(dErrors.CodeConflict, "registration already exists for this event and user")

// Totals aggregates registrations for statistics.
type Totals struct {
	Total     int
	Confirmed int
	Attended  int
}

// RegistrationStore persists registrations. Serialize is the mutual-exclusion
// primitive that closes the count-then-insert race on capacity checks: the
// PostgreSQL implementation runs fn inside a transaction holding a row lock
// on the event; the in-memory implementation holds a per-event mutex.
type RegistrationStore interface {
	Create(ctx context.Context, reg *registration.Registration) error
	Update(ctx context.Context, reg *registration.Registration) error
	FindByID(ctx context.Context, regID id.RegistrationID) (*registration.Registration, error)
	FindByEventAndUser(ctx context.Context, eventID id.EventID, userID id.UserID) (*registration.Registration, error)
	CountConfirmed(ctx context.Context, eventID id.EventID) (int, error)
	CountConfirmedByEvent(ctx context.Context) (map[id.EventID]int, error)
	ListByUser(ctx context.Context, userID id.UserID, status registration.Status) ([]*registration.Registration, error)
	ListByEvent(ctx context.Context, eventID id.EventID) ([]*registration.Registration, error)
	Totals(ctx context.Context) (Totals, error)
	Serialize(ctx context.Context, eventID id.EventID, fn func(ctx context.Context) error) error
}
