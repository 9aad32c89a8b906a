// Package cache holds completed extraction results for reuse within a
// TTL window.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	nurl "net/url"
	"strings"
	"sync"
	"time"

	"github.com/loadwire/loadwire/models"
)

type entry struct {
	resp      *models.LoadResponse
	createdAt time.Time
	ttl       time.Duration
}

// Cache is a TTL response cache with a hard entry cap. Expired entries
// are dropped lazily on read and swept periodically.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	defaultTTL time.Duration
	maxEntries int
	stop       chan struct{}

	now func() time.Time
}

// New creates a Cache and starts its sweep loop.
func New(defaultTTL time.Duration, maxEntries int) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	c := &Cache{
		entries:    make(map[string]*entry),
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
		now:        time.Now,
	}
	go c.sweepLoop()
	return c
}

// Key derives the cache key for a request. Two requests share a key only
// when every field that shapes the rendered output matches.
func Key(req *models.ExtractionRequest) string {
	parts := []string{
		normalizeURL(req.URL),
		string(req.Format),
		req.WaitForSelector,
		req.TargetSelector,
		req.RemoveSelector,
		req.Cookies,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// normalizeURL folds the spellings of a URL that cannot denote
// different resources: scheme and host case, the fragment, and a
// trailing slash. Path and query case are significant on
// case-sensitive servers and are preserved.
func normalizeURL(raw string) string {
	u, err := nurl.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// Get returns a copy of the cached response when one exists and is
// younger than the allowed age. A zero tolerance means the entry's own
// TTL. The returned copy is marked cached.
func (c *Cache) Get(key string, tolerance time.Duration) (*models.LoadResponse, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	age := c.now().Sub(e.createdAt)
	maxAge := e.ttl
	if tolerance > 0 && tolerance < maxAge {
		maxAge = tolerance
	}
	if age > maxAge {
		if age > e.ttl {
			c.mu.Lock()
			if cur, still := c.entries[key]; still && cur == e {
				delete(c.entries, key)
			}
			c.mu.Unlock()
		}
		return nil, false
	}

	out := e.resp.Clone()
	out.Metadata.Cached = true
	return out, true
}

// Put stores a response under key. A non-positive ttl uses the default.
// When the cache is full an arbitrary entry is evicted; the TTL sweep
// keeps the map from filling with stale entries in the common case.
func (c *Cache) Put(key string, resp *models.LoadResponse, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = &entry{
		resp:      resp.Clone(),
		createdAt: c.now(),
		ttl:       ttl,
	}
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the sweep loop.
func (c *Cache) Close() {
	close(c.stop)
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.createdAt) > e.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("cache: swept expired entries", "removed", removed, "remaining", len(c.entries))
	}
}
