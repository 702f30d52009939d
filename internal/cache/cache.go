// Package cache implements the cache-mediation contract every Provider
// Adapter call goes through (§4.1, §6): get / set-with-TTL / delete
// behind one interface, so the rest of the system never sees a cache
// miss as a distinct case. Two backends satisfy Cache: an in-process
// TTL map (always available, used in tests and as a local fallback) and
// a Redis-backed implementation for multi-instance deployments.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Default TTLs from §6: provider responses, engine intermediate
// results, fused attributions.
const (
	ProviderResponseTTL  = 300 * time.Second
	EngineIntermediateTTL = 1800 * time.Second
	FusedAttributionTTL  = 3600 * time.Second
)

// Cache is the contract every Provider Adapter call is mediated through.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Key builds the deterministic cache key (adapter-id, method, args)
// required by §4.1.
func Key(adapterID, method string, args ...string) string {
	key := adapterID + ":" + method
	for _, a := range args {
		key += ":" + a
	}
	return key
}

// entry is one in-process cache slot.
type entry struct {
	value      []byte
	expiration time.Time
}

// TTLCache is an in-process, lock-protected TTL cache. Cache loss is
// tolerated by every caller (§6): this backend never persists across
// restarts and is safe as the sole cache in single-instance deployments
// or as a fast local layer in front of Redis.
type TTLCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
}

// NewTTLCache creates an in-process cache with the given default TTL,
// used when Set is called with ttl <= 0.
func NewTTLCache(defaultTTL time.Duration) *TTLCache {
	if defaultTTL <= 0 {
		defaultTTL = ProviderResponseTTL
	}
	return &TTLCache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
	}
}

func (c *TTLCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiration) {
		return nil, false
	}
	return e.value, true
}

func (c *TTLCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiration: time.Now().Add(ttl)}
}

func (c *TTLCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Size reports the number of live entries, including ones past TTL but
// not yet swept (used only by tests and diagnostics).
func (c *TTLCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep evicts all expired entries. Callers may run this on a ticker;
// it is never required for correctness since Get re-checks expiration.
func (c *TTLCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	evicted := 0
	for k, e := range c.entries {
		if now.After(e.expiration) {
			delete(c.entries, k)
			evicted++
		}
	}
	return evicted
}

// RedisCache adapts a *redis.Client to the Cache contract for
// deployments that share provider-response caching across multiple
// Orchestrator instances.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an already-configured redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = ProviderResponseTTL
	}
	c.client.Set(ctx, key, value, ttl)
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	c.client.Del(ctx, key)
}

// GetJSON is a convenience wrapper that decodes a cached JSON payload
// into dst, reporting whether a (still valid) entry was present.
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// SetJSON encodes value as JSON and stores it under key with the given
// TTL. Encoding failures are silently skipped — cache loss is always
// tolerated per §6.
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.Set(ctx, key, raw, ttl)
}
