package dashboard

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memo is an in-memory TTL cache keyed by string. Concurrent misses on the
// same key share one computation. Failed computations are never stored.
type Memo[V any] struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]memoEntry[V]
	flight  singleflight.Group
}

type memoEntry[V any] struct {
	value   V
	expires time.Time
}

// NewMemo builds a memo with the provided TTL. A non-positive TTL disables
// caching so every lookup recomputes.
func NewMemo[V any](ttl time.Duration) *Memo[V] {
	return &Memo[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoEntry[V]),
	}
}

// GetOrCompute returns a cached entry or computes and stores a new one. The
// boolean reports whether the value came from the cache.
func (m *Memo[V]) GetOrCompute(key string, compute func() (V, error)) (V, bool, error) {
	if value, ok := m.get(key); ok {
		return value, true, nil
	}
	if m == nil {
		value, err := compute()
		return value, false, err
	}
	result, err, _ := m.flight.Do(key, func() (any, error) {
		if value, ok := m.get(key); ok {
			return value, nil
		}
		value, err := compute()
		if err != nil {
			return nil, err
		}
		m.set(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	value, _ := result.(V)
	return value, false, nil
}

// Invalidate drops the entry for key.
func (m *Memo[V]) Invalidate(key string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Len reports the number of live entries.
func (m *Memo[V]) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	count := 0
	for _, entry := range m.entries {
		if now.Before(entry.expires) {
			count++
		}
	}
	return count
}

func (m *Memo[V]) get(key string) (V, bool) {
	var zero V
	if m == nil || m.ttl <= 0 {
		return zero, false
	}
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if m.now().After(entry.expires) {
		m.mu.Lock()
		// only drop the entry that was seen expired, not a fresh replacement
		if current, ok := m.entries[key]; ok && current.expires.Equal(entry.expires) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return zero, false
	}
	return entry.value, true
}

func (m *Memo[V]) set(key string, value V) {
	if m == nil || m.ttl <= 0 {
		return
	}
	m.mu.Lock()
	m.entries[key] = memoEntry[V]{
		value:   value,
		expires: m.now().Add(m.ttl),
	}
	m.mu.Unlock()
}
