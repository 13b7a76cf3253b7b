package cache

import (
	"strings"
	"sync"
	"time"
)

// entry is a stored payload with its lifetime bounds.
type entry struct {
	payload   Payload
	createdAt time.Time
	expiresAt time.Time
}

// MemoryCache is the bounded in-process cache tier.
// All methods are safe for concurrent use; the internal mutex is the only
// synchronization callers may rely on.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[Fingerprint]*entry
}

// NewMemoryCache creates a MemoryCache holding at most capacity entries.
// A non-positive capacity falls back to 1 so the tier always functions.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[Fingerprint]*entry, capacity),
	}
}

// Get returns the payload for the fingerprint, or false on miss.
// Expired entries are treated as misses and evicted lazily here.
func (m *MemoryCache) Get(fp Fingerprint) (Payload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[fp]
	if !ok {
		return Payload{}, false
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, fp)
		return Payload{}, false
	}
	return e.payload, true
}

// Set stores the payload under the fingerprint with the given TTL.
// When the tier is at capacity and the fingerprint is new, the single
// oldest-created entry is evicted first.
func (m *MemoryCache) Set(fp Fingerprint, payload Payload, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	if _, exists := m.entries[fp]; !exists && len(m.entries) >= m.capacity {
		m.evictOldestLocked()
	}

	m.entries[fp] = &entry{
		payload:   payload,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

// evictOldestLocked removes the entry with the earliest creation time.
// Callers must hold the mutex.
func (m *MemoryCache) evictOldestLocked() {
	var (
		oldestKey Fingerprint
		oldestAt  time.Time
		found     bool
	)
	for fp, e := range m.entries {
		if !found || e.createdAt.Before(oldestAt) {
			oldestKey = fp
			oldestAt = e.createdAt
			found = true
		}
	}
	if found {
		delete(m.entries, oldestKey)
	}
}

// Clear removes entries whose URL contains the pattern.
// An empty pattern clears the whole tier.
func (m *MemoryCache) Clear(pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pattern == "" {
		n := len(m.entries)
		m.entries = make(map[Fingerprint]*entry, m.capacity)
		return n
	}

	n := 0
	for fp, e := range m.entries {
		if strings.Contains(e.payload.URL, pattern) {
			delete(m.entries, fp)
			n++
		}
	}
	return n
}

// Len returns the number of entries currently stored, including entries
// that have expired but not yet been evicted.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
