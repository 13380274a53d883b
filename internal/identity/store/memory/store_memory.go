// Package memory holds the in-memory user store. It backs tests and keeps
// development runnable without PostgreSQL.
package memory

import (
	"context"
	"strings"
	"sync"

	"volunity/internal/identity"
	"volunity/internal/identity/store"
	id "volunity/pkg/domain"
	"volunity/pkg/authz"
)

// UserStore is a mutex-guarded map implementation of store.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[id.UserID]identity.User
}

// New constructs an empty in-memory user store.
func New() *UserStore {
	return &UserStore{users: make(map[id.UserID]identity.User)}
}

func (s *UserStore) Create(_ context.Context, user *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) Update(_ context.Context, user *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

func (s *UserStore) FindByID(_ context.Context, userID id.UserID) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[userID]; ok {
		return &user, nil
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) FindByVerificationToken(_ context.Context, token string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if token == "" {
		return nil, store.ErrNotFound
	}
	for _, user := range s.users {
		if user.VerificationToken == token {
			u := user
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) CountByRole(_ context.Context) (store.RoleCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts store.RoleCounts
	for _, user := range s.users {
		counts.Total++
		switch user.Role {
		case authz.RoleUser:
			counts.User++
		case authz.RoleOrganizer:
			counts.Organizer++
		case authz.RoleAdmin:
			counts.Admin++
		}
	}
	return counts, nil
}
