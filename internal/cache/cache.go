// Package cache provides the optional TTL result cache that fronts the more
// expensive analysis entry points. It is a latency optimization only - a
// no-op implementation never changes results.
package cache

import (
	"sync"
	"time"
)

// Cache is the capability the analysis services are given. Implementations
// must be safe for concurrent use; a miss race causing redundant
// recomputation is acceptable.
type Cache interface {
	// Get returns the cached value for key, or false when absent or expired
	Get(key string) (interface{}, bool)

	// Set stores value under key for the given time-to-live
	Set(key string, value interface{}, ttl time.Duration)
}

// entry is one cached value with its expiry deadline
type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Memory is an in-process TTL cache. Expired entries are evicted lazily on
// the next Get - there is no background sweep.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-memory cache
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the value stored under key if it has not expired.
// An expired entry is removed on access.
func (m *Memory) Get(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key until ttl elapses.
// A non-positive ttl stores nothing.
func (m *Memory) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been evicted
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Noop is a cache that stores nothing. Inject it to disable caching in tests
// without touching calculation logic.
type Noop struct{}

var _ Cache = Noop{}

// Get always misses
func (Noop) Get(string) (interface{}, bool) { return nil, false }

// Set discards the value
func (Noop) Set(string, interface{}, time.Duration) {}
