package orchestrator

import (
	"sync"
	"time"
)

// Store holds the published status of the daemon. The state machine writes
// it; the HTTP handler reads it from other goroutines.
type Store interface {
	Snapshot() Snapshot
	Update(fn func(*Snapshot))
}

// InMemoryStore is a concurrency-safe in-memory implementation of Store.
type InMemoryStore struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewInMemoryStore returns a store whose initial state is "waiting".
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{now: time.Now}
	s.snap = Snapshot{State: StateWaiting.String(), UpdatedAt: s.now().UTC()}
	return s
}

// Snapshot implements Store.Snapshot. The returned value is a copy.
func (s *InMemoryStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Update implements Store.Update; fn runs under the write lock and
// UpdatedAt is stamped afterwards.
func (s *InMemoryStore) Update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
	s.snap.UpdatedAt = s.now().UTC()
}
