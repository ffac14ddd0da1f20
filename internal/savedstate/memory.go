package savedstate

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used when no Redis is configured.
type MemoryStore struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time

	records map[string]memoryEntry
}

type memoryEntry struct {
	rec     *Record
	expires time.Time
}

// NewMemoryStore returns a store whose records expire after ttl; ttl <= 0
// keeps them forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, records: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Put(ctx context.Context, rec *Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var current int64
	if e, ok := m.live(rec.SessionID, now); ok {
		current = e.rec.Revision
	}
	if rec.Revision != 0 && rec.Revision != current {
		return ErrStale
	}
	rec.Revision = current + 1
	rec.SavedAt = now.UTC()

	e := memoryEntry{rec: clone(rec)}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}
	m.records[rec.SessionID] = e
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	m.mu.RLock()
	e, ok := m.live(sessionID, m.now())
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(e.rec), nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.records, sessionID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) live(id string, now time.Time) (memoryEntry, bool) {
	e, ok := m.records[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expires.IsZero() && !now.Before(e.expires) {
		return memoryEntry{}, false
	}
	return e, true
}
