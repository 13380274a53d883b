// Package event owns the catalog of volunteer events and the organizations
// that publish them.
package event

import (
	"time"

	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
)

// Status is the event lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ValidStatus reports whether raw names a known lifecycle state.
func ValidStatus(raw Status) bool {
	switch raw {
	case StatusDraft, StatusPublished, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Event is a scheduled volunteering activity.
type Event struct {
	ID              id.EventID
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
	Status          Status
	CreatedBy       id.UserID
	OrganizationID  *id.OrganizationID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OpenForRegistration reports whether volunteers may currently join.
// Registration additionally requires the event date to be in the future;
// that check lives with the registration engine because it depends on the
// request clock.
func (e *Event) OpenForRegistration() bool {
	return e.Status == StatusPublished
}

// Organization is a publisher of events. There is no organization CRUD
// surface; rows are referenced by events and checked for ownership.
type Organization struct {
	ID          id.OrganizationID
	Name        string
	Description string
	LogoURL     string
	Website     string
	OrganizerID id.UserID
}

// ErrUnknownStatus is returned when a caller supplies a lifecycle state the
// catalog does not know.
var ErrUnknownStatus = dErrors.New(dErrors.CodeValidation, "unknown event status")
