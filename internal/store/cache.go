package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

const (
	// DefaultTTL is how long a cached API read stays valid
	DefaultTTL = 5 * time.Minute

	// cacheStorageKey holds the whole serialized cache map
	cacheStorageKey = "data-cache"
)

// cacheEntry is the persisted form of one cached value
type cacheEntry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt int64           `json:"storedAt"` // unix milliseconds
}

// SessionCache is a TTL key/value cache persisted as a single JSON map.
// Every mutation rewrites the whole map; entries are evicted lazily on read.
type SessionCache struct {
	store  *Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// CacheOption configures a SessionCache
type CacheOption func(*SessionCache)

// WithClock replaces time.Now, used by tests to move time
func WithClock(now func() time.Time) CacheOption {
	return func(c *SessionCache) {
		c.now = now
	}
}

// NewSessionCache restores persisted entries from store, discarding expired
// and malformed data. A nil store or a memory-only store keeps nothing on disk.
func NewSessionCache(store *Store, ttl time.Duration, logger *slog.Logger, opts ...CacheOption) *SessionCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &SessionCache{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = c.restore()
	return c
}

func (c *SessionCache) restore() map[string]cacheEntry {
	entries := make(map[string]cacheEntry)

	data, err := c.store.read(bucketCache, cacheStorageKey)
	if err != nil {
		c.logger.Warn("failed to read persisted cache", "error", err)
		return entries
	}
	if data == nil {
		return entries
	}

	var persisted map[string]cacheEntry
	if err := json.Unmarshal(data, &persisted); err != nil {
		c.logger.Warn("discarding persisted cache", "error", fmt.Errorf("%w: %v", domain.ErrMalformedCache, err))
		return entries
	}

	now := c.now()
	dropped := 0
	for key, e := range persisted {
		if len(e.Data) == 0 || !c.valid(e, now) {
			dropped++
			continue
		}
		entries[key] = e
	}
	c.logger.Debug("restored session cache", "entries", len(entries), "dropped", dropped)
	return entries
}

func (c *SessionCache) valid(e cacheEntry, now time.Time) bool {
	return now.Sub(time.UnixMilli(e.StoredAt)) < c.ttl
}

// persistLocked writes the full map. Callers hold c.mu.
// Failures only cost durability, so they are logged and dropped.
func (c *SessionCache) persistLocked() {
	if !c.store.Persistent() {
		return
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		c.logger.Error("failed to encode session cache", "error", err)
		return
	}
	if err := c.store.write(bucketCache, cacheStorageKey, data); err != nil {
		c.logger.Warn("failed to persist session cache", "error", err)
	}
}

// Get returns the cached value for key. An expired entry is removed and
// reported as a miss.
func (c *SessionCache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.valid(e, c.now()) {
		return append(json.RawMessage(nil), e.Data...), true
	}

	c.mu.Lock()
	if cur, ok := c.entries[key]; ok && !c.valid(cur, c.now()) {
		delete(c.entries, key)
		c.persistLocked()
		c.logger.Debug("evicted expired cache entry", "key", key)
	}
	c.mu.Unlock()
	return nil, false
}

// GetJSON decodes the cached value into dest. Undecodable values count as a miss.
func (c *SessionCache) GetJSON(key string, dest any) bool {
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug("cached value does not decode", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores value under key with a fresh timestamp and persists the cache.
// Only an encoding failure is returned.
func (c *SessionCache) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %q: %w", key, err)
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{Data: data, StoredAt: c.now().UnixMilli()}
	c.persistLocked()
	c.mu.Unlock()
	return nil
}

func (c *SessionCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	c.persistLocked()
}

func (c *SessionCache) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		c.persistLocked()
	}
}

// Clear drops every entry
func (c *SessionCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.persistLocked()
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included until read
func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the configured entry lifetime
func (c *SessionCache) TTL() time.Duration {
	return c.ttl
}

var _ domain.Cache = (*SessionCache)(nil)
