// Package registration owns the durable record of one user's relationship to
// one event. A pair has at most one row, ever: joining after a cancellation
// reactivates the existing row instead of inserting a second one, so history
// and attendance survive unregistration.
package registration

import (
	"time"

	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
)

// Status is the registration state. There are exactly two states and
// cancelled is not terminal: a volunteer may rejoin.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// ValidStatus reports whether raw names a known registration state.
func ValidStatus(raw Status) bool {
	return raw == StatusConfirmed || raw == StatusCancelled
}

// Registration is the one row per (event, user) pair. Status moves only
// through Cancel and Reactivate so no code path can bypass the transition
// table.
type Registration struct {
	ID           id.RegistrationID
	EventID      id.EventID
	UserID       id.UserID
	Status       Status
	Attended     bool
	RegisteredAt time.Time
}

// NewConfirmed builds the first-ever registration for a pair.
func NewConfirmed(eventID id.EventID, userID id.UserID, now time.Time) *Registration {
	return &Registration{
		ID:           id.NewRegistrationID(),
		EventID:      eventID,
		UserID:       userID,
		Status:       StatusConfirmed,
		Attended:     false,
		RegisteredAt: now,
	}
}

// Cancel moves confirmed -> cancelled. Attendance and the original
// registration timestamp are preserved for history.
func (r *Registration) Cancel() error {
	if r.Status == StatusCancelled {
		return dErrors.New(dErrors.CodeInvalidState, "already unregistered from this event")
	}
	r.Status = StatusCancelled
	return nil
}

// Reactivate moves cancelled -> confirmed and refreshes the registration
// timestamp. The attended flag deliberately carries over; see the catalog's
// participant stats which count attendance across the row's whole life.
func (r *Registration) Reactivate(now time.Time) error {
	if r.Status == StatusConfirmed {
		return dErrors.New(dErrors.CodeConflict, "already registered for this event")
	}
	r.Status = StatusConfirmed
	r.RegisteredAt = now
	return nil
}
