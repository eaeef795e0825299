// Package cache provides a small key/value-with-TTL cache abstraction.  It
// replaces ambient in-process caches with an explicit dependency injected
// into the operations that need one (catalog browsing, the now-playing ID
// set, show listings), which keeps those operations testable in isolation.
// The Redis implementation degrades to cache misses on any backend error so
// a cache outage never breaks a request.
package cache

import (
    "context"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"
)

// Cache is a byte-oriented cache with per-entry TTL.  Get reports a miss
// via the second return value; backend failures are reported as misses, not
// errors, because every cached value here is recomputable.
type Cache interface {
    Get(ctx context.Context, key string) ([]byte, bool)
    Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Redis is a Cache backed by a Redis client.  A nil client is allowed and
// behaves as an always-miss cache, mirroring how the rest of the
// application degrades when Redis is unavailable at startup.
type Redis struct {
    client *redis.Client
    prefix string
}

// NewRedis returns a Redis cache namespaced under the given prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
    return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string { return r.prefix + ":" + k }

// Get fetches a value; any Redis error is treated as a miss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
    if r.client == nil {
        return nil, false
    }
    b, err := r.client.Get(ctx, r.key(key)).Bytes()
    if err != nil {
        return nil, false
    }
    return b, true
}

// Set stores a value with the given TTL; errors are ignored.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
    if r.client == nil {
        return
    }
    _ = r.client.Set(ctx, r.key(key), value, ttl).Err()
}

// Memory is an in-process Cache used in tests and as a fallback.  Expired
// entries are dropped lazily on read.
type Memory struct {
    mu      sync.Mutex
    entries map[string]memoryEntry
    now     func() time.Time
}

type memoryEntry struct {
    value     []byte
    expiresAt time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
    return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

// NewMemoryWithClock returns an in-process cache with an injected clock.
func NewMemoryWithClock(now func() time.Time) *Memory {
    return &Memory{entries: make(map[string]memoryEntry), now: now}
}

// Get fetches a value, dropping it when its TTL has elapsed.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
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

// Set stores a value with the given TTL.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
}
