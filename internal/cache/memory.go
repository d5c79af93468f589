package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryCache is an in-process fallback used when Redis is unavailable, and
// doubles as the cache in tests. Values still round-trip through JSON so the
// two implementations behave identically.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	raw     []byte
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]memoryEntry)}
}

func (m *MemoryCache) Close() error {
	return nil
}

func (m *MemoryCache) GetJSON(ctx context.Context, key string, dest any) error {
	m.mu.Lock()
	entry, ok := m.data[key]
	if ok && !entry.expires.IsZero() && time.Now().After(entry.expires) {
		delete(m.data, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(entry.raw, dest)
}

func (m *MemoryCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = UntilNextSixAM(time.Now())
	}

	m.mu.Lock()
	m.data[key] = memoryEntry{raw: raw, expires: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
