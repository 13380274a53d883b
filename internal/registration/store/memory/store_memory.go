// Package memory holds the in-memory registration store. It doubles as the
// test fake for the registration engine; Serialize takes a per-event mutex
// so concurrent capacity checks against one event are mutually exclusive,
// matching the row-lock behavior of the PostgreSQL store.
package memory

import (
	"context"
	"sort"
	"sync"

	"volunity/internal/registration"
	"volunity/internal/registration/store"
	id "volunity/pkg/domain"
)

type pairKey struct {
	eventID id.EventID
	userID  id.UserID
}

// RegistrationStore is a mutex-guarded map implementation of
// store.RegistrationStore.
type RegistrationStore struct {
	mu      sync.RWMutex
	rows    map[id.RegistrationID]registration.Registration
	byPair  map[pairKey]id.RegistrationID
	eventMu sync.Mutex
	locks   map[id.EventID]*sync.Mutex
}

// New constructs an empty in-memory registration store.
func New() *RegistrationStore {
	return &RegistrationStore{
		rows:   make(map[id.RegistrationID]registration.Registration),
		byPair: make(map[pairKey]id.RegistrationID),
		locks:  make(map[id.EventID]*sync.Mutex),
	}
}

func (s *RegistrationStore) Create(_ context.Context, reg *registration.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{eventID: reg.EventID, userID: reg.UserID}
	// One row per pair, enforced here the way the UNIQUE constraint does it
	// in PostgreSQL.
	if _, exists := s.byPair[key]; exists {
		return store.ErrDuplicatePair
	}
	s.rows[reg.ID] = *reg
	s.byPair[key] = reg.ID
	return nil
}

func (s *RegistrationStore) Update(_ context.Context, reg *registration.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[reg.ID]; !ok {
		return store.ErrNotFound
	}
	s.rows[reg.ID] = *reg
	return nil
}

func (s *RegistrationStore) FindByID(_ context.Context, regID id.RegistrationID) (*registration.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if reg, ok := s.rows[regID]; ok {
		return &reg, nil
	}
	return nil, store.ErrNotFound
}

func (s *RegistrationStore) FindByEventAndUser(_ context.Context, eventID id.EventID, userID id.UserID) (*registration.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regID, ok := s.byPair[pairKey{eventID: eventID, userID: userID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	reg := s.rows[regID]
	return &reg, nil
}

func (s *RegistrationStore) CountConfirmed(_ context.Context, eventID id.EventID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, reg := range s.rows {
		if reg.EventID == eventID && reg.Status == registration.StatusConfirmed {
			count++
		}
	}
	return count, nil
}

func (s *RegistrationStore) CountConfirmedByEvent(_ context.Context) (map[id.EventID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[id.EventID]int)
	for _, reg := range s.rows {
		if reg.Status == registration.StatusConfirmed {
			counts[reg.EventID]++
		}
	}
	return counts, nil
}

func (s *RegistrationStore) ListByUser(_ context.Context, userID id.UserID, status registration.Status) ([]*registration.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*registration.Registration
	for _, reg := range s.rows {
		if reg.UserID != userID {
			continue
		}
		if status != "" && reg.Status != status {
			continue
		}
		copied := reg
		matched = append(matched, &copied)
	}
	sortNewestFirst(matched)
	return matched, nil
}

func (s *RegistrationStore) ListByEvent(_ context.Context, eventID id.EventID) ([]*registration.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*registration.Registration
	for _, reg := range s.rows {
		if reg.EventID == eventID {
			copied := reg
			matched = append(matched, &copied)
		}
	}
	sortNewestFirst(matched)
	return matched, nil
}

func (s *RegistrationStore) Totals(_ context.Context) (store.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var totals store.Totals
	for _, reg := range s.rows {
		totals.Total++
		if reg.Status == registration.StatusConfirmed {
			totals.Confirmed++
		}
		if reg.Attended {
			totals.Attended++
		}
	}
	return totals, nil
}

// Serialize runs fn while holding the mutex for eventID, so only one
// check-and-insert against an event runs at a time.
func (s *RegistrationStore) Serialize(ctx context.Context, eventID id.EventID, fn func(ctx context.Context) error) error {
	lock := s.lockFor(eventID)
	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

func (s *RegistrationStore) lockFor(eventID id.EventID) *sync.Mutex {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()
	lock, ok := s.locks[eventID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[eventID] = lock
	}
	return lock
}

func sortNewestFirst(regs []*registration.Registration) {
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].RegisteredAt.After(regs[j].RegisteredAt)
	})
}
