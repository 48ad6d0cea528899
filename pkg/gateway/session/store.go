package session

import (
	"context"
	"sync"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
)

// Store is the durable key-value persistence boundary. Implementations are
// keyed by session id and idempotent; the engine introduces no cross-session
// contention beyond the store's own guarantees.
type Store interface {
	// Save persists the live session record.
	Save(ctx context.Context, s *Session) error

	// Get reads the live session record. A missing id is a session-not-found
	// error.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes the live record. Deleting an absent id is not an error.
	// The audit snapshot, if any, is unaffected.
	Delete(ctx context.Context, id string) error

	// SaveSnapshot persists the long-TTL audit record, independent of the
	// live session record.
	SaveSnapshot(ctx context.Context, r *Record) error

	// ActiveIDs enumerates the ids of all live sessions, for draining.
	ActiveIDs(ctx context.Context) ([]string, error)
}

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	snapshots map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]*Session),
		snapshots: make(map[string]*Record),
	}
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return core.New(core.ErrStoreWrite, "session id is required")
	}
	cp := *s
	m.mu.Lock()
	m.sessions[s.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, core.Newf(core.ErrSessionNotFound, "session %q not found", id)
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) SaveSnapshot(_ context.Context, r *Record) error {
	if r == nil || r.SessionID == "" {
		return core.New(core.ErrStoreWrite, "snapshot session id is required")
	}
	cp := *r
	m.mu.Lock()
	m.snapshots[r.SessionID] = &cp
	m.mu.Unlock()
	return nil
}

// Snapshot returns a stored audit record, for tests.
func (m *MemoryStore) Snapshot(id string) (*Record, bool) {
	m.mu.RLock()
	r, ok := m.snapshots[id]
	m.mu.RUnlock()
	return r, ok
}

func (m *MemoryStore) ActiveIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	return ids, nil
}
