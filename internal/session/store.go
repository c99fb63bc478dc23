package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when no state exists for the identifier.
var ErrNotFound = errors.New("session: not found")

// Store persists conversation state between turns. Implementations own
// eviction (TTL); callers never delete state mid-session except through
// an explicit Reset.
type Store interface {
	Get(ctx context.Context, conversationID string) (*State, error)
	Put(ctx context.Context, state *State) error
	Reset(ctx context.Context, conversationID string) error
}

// MemoryStore is an in-process Store for dev and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*State
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*State)}
}

func (s *MemoryStore) Get(_ context.Context, conversationID string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *st
	return &copied, nil
}

func (s *MemoryStore) Put(_ context.Context, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *state
	s.states[state.ConversationID] = &copied
	return nil
}

func (s *MemoryStore) Reset(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, conversationID)
	return nil
}
