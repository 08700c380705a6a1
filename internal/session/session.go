package session

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// State is the position inside a flow. The zero value means no active flow.
type State struct {
	Flow string
	Step int
}

func (s State) IsNone() bool { return s.Flow == "" }

func (s State) String() string {
	if s.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s#%d", s.Flow, s.Step)
}

type Session struct {
	OwnerID int64
	State   State
	Scratch map[string]string
}

// Store keeps at most one Session per user. A missing record is
// equivalent to State{}.
type Store interface {
	Get(ctx context.Context, userID int64) (Session, bool, error)
	Set(ctx context.Context, userID int64, state State, patch map[string]string) error
	Clear(ctx context.Context, userID int64) error
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Session)}
}

// Get returns a copy; mutating its Scratch does not affect the store.
func (m *MemoryStore) Get(_ context.Context, userID int64) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session{OwnerID: userID}, false, nil
	}
	s.Scratch = maps.Clone(s.Scratch)
	return s, true, nil
}

func (m *MemoryStore) Set(_ context.Context, userID int64, state State, patch map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = Session{OwnerID: userID, Scratch: make(map[string]string, len(patch))}
	}
	if s.Scratch == nil {
		s.Scratch = make(map[string]string, len(patch))
	}
	for k, v := range patch {
		s.Scratch[k] = v
	}
	s.State = state
	m.sessions[userID] = s
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Len reports how many users have an open session.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
