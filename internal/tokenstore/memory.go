package tokenstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-process RevocationStore used when Redis is
// disabled. Expired entries are dropped lazily on write.
type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryStore) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.revoked {
		if !now.Before(exp) {
			delete(m.revoked, k)
		}
	}
	m.revoked[id] = now.Add(ttl)
	return nil
}

func (m *MemoryStore) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.revoked[id]
	return ok && m.now().Before(exp), nil
}

func (m *MemoryStore) Health(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
