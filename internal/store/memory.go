// Package store provides session storage backends for fishshop-bot.
//
// This file implements the in-memory store, the default when no DSN is set.
package store

import (
	"context"
	"sync"

	"fishshop-bot/internal/models"
)

// InMemoryStore keeps sessions in a process-local map. State is lost on
// restart, matching the original single-process deployment.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]models.Session
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[int64]models.Session)}
}

// GetSession returns the session for a user, or (nil, nil) if absent.
func (s *InMemoryStore) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

// SaveSession stores or replaces the session for its user.
func (s *InMemoryStore) SaveSession(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = session
	return nil
}

// DeleteSession removes a user's session. Deleting an absent session is a
// no-op.
func (s *InMemoryStore) DeleteSession(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
