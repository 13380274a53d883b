// Package store defines persistence contracts for the event catalog.
package store

import (
	"context"

	"volunity/internal/event"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
)

// ErrNotFound keeps storage-level 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Filter narrows event listings.
type Filter struct {
	Status   event.Status
	Category string
	Search   string
	Limit    int
	Offset   int
}

// StatusCounts aggregates events per lifecycle state for statistics.
type StatusCounts struct {
	Total     int
	Draft     int
	Published int
	Cancelled int
	Completed int
}

// PublishedSummary is the slice of a published event the public statistics
// need: where it happens and how long it runs.
type PublishedSummary struct {
	ID              id.EventID
	Location        string
	DurationMinutes int
}

// EventStore persists events.
type EventStore interface {
	Create(ctx context.Context, ev *event.Event) error
	Update(ctx context.Context, ev *event.Event) error
	Delete(ctx context.Context, eventID id.EventID) error
	FindByID(ctx context.Context, eventID id.EventID) (*event.Event, error)
	List(ctx context.Context, filter Filter) ([]*event.Event, error)
	ListByCreator(ctx context.Context, userID id.UserID) ([]*event.Event, error)
	CountByStatus(ctx context.Context) (StatusCounts, error)
	PublishedSummaries(ctx context.Context) ([]PublishedSummary, error)
}

// OrganizationStore resolves organizations for ownership checks.
type OrganizationStore interface {
	FindByID(ctx context.Context, orgID id.OrganizationID) (*event.Organization, error)
}
