package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-kasir/internal/obs"
)

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client disables every operation.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Delete removes a cached key. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

func productCacheKey(id string) string {
	return "catalog:product:" + id
}

// Breaker gates cache access so a struggling Redis does not slow every read.
type Breaker interface {
	Allow(ctx context.Context) bool
	Report(ctx context.Context, success bool)
}

// CachedStore layers a read-through product cache over another Store.
// Upserts write through and refresh the cached entry, so quantity changes
// made by reservations stay visible to cached reads.
type CachedStore struct {
	store   Store
	cache   *Cache
	breaker Breaker
}

// NewCachedStore wraps store with cache. A nil cache degrades to pass-through.
func NewCachedStore(store Store, cache *Cache) *CachedStore {
	return &CachedStore{store: store, cache: cache}
}

// WithBreaker guards cache reads and writes with b. While b refuses requests
// the store is consulted directly and the cache is left untouched.
func (s *CachedStore) WithBreaker(b Breaker) *CachedStore {
	s.breaker = b
	return s
}

// Get returns the cached product when present, falling back to the wrapped
// store and priming the cache on a miss. Entries that fail to read are
// dropped so they cannot shadow the store until the TTL expires.
func (s *CachedStore) Get(ctx context.Context, id string) (Product, error) {
	if s.allowCache(ctx) {
		var cached Product
		ok, err := s.cache.GetJSON(ctx, productCacheKey(id), &cached)
		s.reportCache(ctx, err == nil)
		if err == nil && ok {
			if obs.CacheTotal != nil {
				obs.CacheTotal.WithLabelValues("hit").Inc()
			}
			return cached, nil
		}
		if err != nil {
			_ = s.cache.Delete(ctx, productCacheKey(id))
		}
		if obs.CacheTotal != nil {
			obs.CacheTotal.WithLabelValues("miss").Inc()
		}
		p, getErr := s.store.Get(ctx, id)
		if getErr != nil {
			return Product{}, getErr
		}
		if err == nil {
			_ = s.cache.SetJSON(ctx, productCacheKey(id), p)
		}
		return p, nil
	}
	if obs.CacheTotal != nil {
		obs.CacheTotal.WithLabelValues("bypass").Inc()
	}
	return s.store.Get(ctx, id)
}

// Upsert writes to the wrapped store and refreshes the cached entry.
func (s *CachedStore) Upsert(ctx context.Context, p Product) error {
	if err := s.store.Upsert(ctx, p); err != nil {
		return err
	}
	if s.allowCache(ctx) {
		err := s.cache.SetJSON(ctx, productCacheKey(p.ID), p)
		s.reportCache(ctx, err == nil)
	}
	return nil
}

func (s *CachedStore) allowCache(ctx context.Context) bool {
	return s.breaker == nil || s.breaker.Allow(ctx)
}

func (s *CachedStore) reportCache(ctx context.Context, success bool) {
	if s.breaker != nil {
		s.breaker.Report(ctx, success)
	}
}

// ListAll delegates to the wrapped store.
func (s *CachedStore) ListAll(ctx context.Context) ([]Product, error) {
	return s.store.ListAll(ctx)
}
