// Package cache memoizes completed verification reports by content
// fingerprint with a time-to-live.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verax-io/verax/pkg/verax/report"
)

// Fingerprint returns the deterministic cache key for an input: a SHA-256
// hash of the whitespace-normalized content.
func Fingerprint(input string) string {
	normalized := strings.Join(strings.Fields(input), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	report    *report.Report
	expiresAt time.Time
}

// Cache is a TTL-bound report store keyed by fingerprint. Reads are
// non-exclusive; writes overwrite by fingerprint and may race benignly
// since a fingerprint always maps to the same report content. Expired
// entries are evicted lazily on lookup.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	now func() time.Time // overridable for tests
}

// New creates a cache with the given entry TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the live report for a fingerprint. An expired entry is
// removed and reported as a miss.
func (c *Cache) Get(fingerprint string) (*report.Report, bool) {
	c.mu.RLock()
	e, ok := c.entries[fingerprint]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Put may have
		// refreshed the entry.
		if cur, ok := c.entries[fingerprint]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, fingerprint)
			log.Debug().Str("fingerprint", fingerprint).Msg("Evicted expired cache entry")
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.report, true
}

// Put stores a report under its fingerprint with a fresh TTL.
func (c *Cache) Put(fingerprint string, r *report.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[fingerprint] = entry{
		report:    r,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of stored entries, including not-yet-evicted
// expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
