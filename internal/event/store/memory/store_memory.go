// Package memory holds the in-memory event and organization stores used by
// tests and Postgres-free development runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"volunity/internal/event"
	"volunity/internal/event/store"
	id "volunity/pkg/domain"
)

// EventStore is a mutex-guarded map implementation of store.EventStore.
type EventStore struct {
	mu     sync.RWMutex
	events map[id.EventID]event.Event
}

// New constructs an empty in-memory event store.
func New() *EventStore {
	return &EventStore{events: make(map[id.EventID]event.Event)}
}

func (s *EventStore) Create(_ context.Context, ev *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = *ev
	return nil
}

func (s *EventStore) Update(_ context.Context, ev *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; !ok {
		return store.ErrNotFound
	}
	s.events[ev.ID] = *ev
	return nil
}

func (s *EventStore) Delete(_ context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return store.ErrNotFound
	}
	delete(s.events, eventID)
	return nil
}

func (s *EventStore) FindByID(_ context.Context, eventID id.EventID) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ev, ok := s.events[eventID]; ok {
		return &ev, nil
	}
	return nil, store.ErrNotFound
}

func (s *EventStore) List(_ context.Context, filter store.Filter) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*event.Event, 0)
	for _, ev := range s.events {
		if filter.Status != "" && ev.Status != filter.Status {
			continue
		}
		if filter.Category != "" && ev.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !matchesSearch(&ev, filter.Search) {
			continue
		}
		copied := ev
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].EventDate.Before(matched[j].EventDate)
	})

	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func matchesSearch(ev *event.Event, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(ev.Title), needle) ||
		strings.Contains(strings.ToLower(ev.Description), needle)
}

func (s *EventStore) ListByCreator(_ context.Context, userID id.UserID) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*event.Event
	for _, ev := range s.events {
		if ev.CreatedBy == userID {
			copied := ev
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *EventStore) CountByStatus(_ context.Context) (store.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts store.StatusCounts
	for _, ev := range s.events {
		counts.Total++
		switch ev.Status {
		case event.StatusDraft:
			counts.Draft++
		case event.StatusPublished:
			counts.Published++
		case event.StatusCancelled:
			counts.Cancelled++
		case event.StatusCompleted:
			counts.Completed++
		}
	}
	return counts, nil
}

func (s *EventStore) PublishedSummaries(_ context.Context) ([]store.PublishedSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var summaries []store.PublishedSummary
	for _, ev := range s.events {
		if ev.Status != event.StatusPublished {
			continue
		}
		summary := store.PublishedSummary{ID: ev.ID, Location: ev.Location}
		if ev.DurationMinutes != nil {
			summary.DurationMinutes = *ev.DurationMinutes
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// OrganizationStore is a mutex-guarded map implementation of
// store.OrganizationStore.
type OrganizationStore struct {
	mu   sync.RWMutex
	orgs map[id.OrganizationID]event.Organization
}

// NewOrganizations constructs an empty in-memory organization store.
func NewOrganizations() *OrganizationStore {
	return &OrganizationStore{orgs: make(map[id.OrganizationID]event.Organization)}
}

// Put seeds an organization; used by tests and development fixtures.
func (s *OrganizationStore) Put(org event.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[org.ID] = org
}

func (s *OrganizationStore) FindByID(_ context.Context, orgID id.OrganizationID) (*event.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if org, ok := s.orgs[orgID]; ok {
		return &org, nil
	}
	return nil, store.ErrNotFound
}
