package cache

import (
	"context"
	"log/slog"
	"mime"
	"sync"
	"time"
)

// Manager composes the memory and persistent tiers behind one contract.
//
// The persistent tier is strictly optional: when it is absent or failing,
// the Manager silently runs memory-only. Persistent-tier failures are
// logged at debug level and never propagate to callers.
type Manager struct {
	memory     *MemoryCache
	persistent *SQLiteCache // nil when the persistent tier is disabled

	defaultTTL      time.Duration
	contentTypeTTLs map[string]time.Duration

	logger *slog.Logger

	mu     sync.Mutex
	hits   int64
	misses int64
	writes int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithCapacity sets the in-memory tier capacity.
func WithCapacity(n int) Option {
	return func(m *Manager) {
		m.memory = NewMemoryCache(n)
	}
}

// WithDefaultTTL sets the TTL applied when neither an explicit TTL nor a
// content-type override matches.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.defaultTTL = ttl
	}
}

// WithContentTypeTTLs sets per-content-type TTL overrides, keyed by bare
// MIME type (parameters such as charset are ignored when matching).
func WithContentTypeTTLs(ttls map[string]time.Duration) Option {
	return func(m *Manager) {
		m.contentTypeTTLs = ttls
	}
}

// WithLogger sets a custom logger for the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithPersistentDir enables the persistent tier in the given directory.
// If the tier cannot be opened the manager degrades to memory-only
// operation; the error is logged, not returned, because persistent-tier
// unavailability must never fail a scan.
func WithPersistentDir(dir string) Option {
	return func(m *Manager) {
		if dir == "" {
			return
		}
		sc, err := OpenSQLite(dir)
		if err != nil {
			m.logger.Warn("persistent cache tier unavailable, running memory-only",
				"dir", dir,
				"error", err,
			)
			return
		}
		m.persistent = sc
	}
}

// NewManager creates a cache manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		memory:     NewMemoryCache(512),
		defaultTTL: 15 * time.Minute,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Get looks up the fingerprint in the memory tier, then in the persistent
// tier. A persistent hit is promoted into memory for the remainder of its
// lifetime estimate (the default TTL; the original expiry still bounds it
// in the persistent tier).
func (m *Manager) Get(ctx context.Context, fp Fingerprint) (Payload, bool) {
	if p, ok := m.memory.Get(fp); ok {
		m.count(&m.hits)
		return p, true
	}

	if m.persistent != nil {
		p, ok, err := m.persistent.Get(ctx, fp)
		if err != nil {
			m.logger.Debug("persistent cache read failed", "error", err)
		} else if ok {
			m.memory.Set(fp, p, m.ttlFor(p.ContentType))
			m.count(&m.hits)
			return p, true
		}
	}

	m.count(&m.misses)
	return Payload{}, false
}

// Set stores the payload in both tiers. The memory write is synchronous;
// the persistent write is best-effort.
//
// TTL precedence: an explicit positive ttl wins; otherwise the
// content-type override for the payload's MIME type; otherwise the
// default TTL.
func (m *Manager) Set(ctx context.Context, fp Fingerprint, payload Payload, ttl time.Duration) {
	effective := ttl
	if effective <= 0 {
		effective = m.ttlFor(payload.ContentType)
	}

	m.memory.Set(fp, payload, effective)
	m.count(&m.writes)

	if m.persistent != nil {
		if err := m.persistent.Set(ctx, fp, payload, effective); err != nil {
			m.logger.Debug("persistent cache write failed", "error", err)
		}
	}
}

// ttlFor resolves the TTL for a content type.
func (m *Manager) ttlFor(contentType string) time.Duration {
	if len(m.contentTypeTTLs) > 0 && contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if ttl, ok := m.contentTypeTTLs[mediaType]; ok {
				return ttl
			}
		}
	}
	return m.defaultTTL
}

// Clear removes entries whose URL contains the pattern from both tiers.
// An empty pattern clears everything.
func (m *Manager) Clear(ctx context.Context, pattern string) {
	m.memory.Clear(pattern)
	if m.persistent != nil {
		if _, err := m.persistent.Clear(ctx, pattern); err != nil {
			m.logger.Debug("persistent cache clear failed", "error", err)
		}
	}
}

// Stats returns a snapshot of the cache effectiveness counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{Hits: m.hits, Misses: m.misses, Writes: m.writes}
	if total := m.hits + m.misses; total > 0 {
		s.HitRate = float64(m.hits) / float64(total)
	}
	return s
}

// Close releases the persistent tier, if any.
func (m *Manager) Close() error {
	if m.persistent != nil {
		return m.persistent.Close()
	}
	return nil
}

// count increments a counter under the stats lock.
func (m *Manager) count(c *int64) {
	m.mu.Lock()
	*c++
	m.mu.Unlock()
}
