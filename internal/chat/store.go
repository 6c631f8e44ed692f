package chat

import (
	"context"
	"errors"
	"sync"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore owns the bounded turn history of every session.
//
// Implementations keep the first turn (the system turn) and cap the rest to
// the configured number of most recent turns on every Append.
type SessionStore interface {
	// Ensure creates the session with seed when it does not exist yet.
	Ensure(ctx context.Context, sessionID string, seed []Turn) (created bool, err error)
	Append(ctx context.Context, sessionID string, turn Turn) error
	History(ctx context.Context, sessionID string) ([]Turn, error)
}

const DefaultHistoryTurns = 20

// CapHistory returns turns trimmed to the leading system turn plus the limit
// most recent turns. The input slice is not modified.
func CapHistory(turns []Turn, limit int) []Turn {
	if limit <= 0 {
		limit = DefaultHistoryTurns
	}
	if len(turns) == 0 {
		return turns
	}
	head := 0
	if turns[0].Role == RoleSystem {
		head = 1
	}
	if len(turns)-head <= limit {
		return turns
	}
	out := make([]Turn, 0, head+limit)
	out = append(out, turns[:head]...)
	return append(out, turns[len(turns)-limit:]...)
}

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	limit    int
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultHistoryTurns
	}
	return &MemoryStore{sessions: make(map[string][]Turn), limit: limit}
}

func (m *MemoryStore) Ensure(ctx context.Context, sessionID string, seed []Turn) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; ok {
		return false, nil
	}
	m.sessions[sessionID] = CapHistory(append([]Turn(nil), seed...), m.limit)
	return true, nil
}

func (m *MemoryStore) Append(ctx context.Context, sessionID string, turn Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	// copy so slices handed out by History never see later writes
	next := make([]Turn, 0, len(turns)+1)
	next = append(next, turns...)
	next = append(next, turn)
	m.sessions[sessionID] = CapHistory(next, m.limit)
	return nil
}

func (m *MemoryStore) History(ctx context.Context, sessionID string) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return append([]Turn(nil), turns...), nil
}

// Len reports how many sessions are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
