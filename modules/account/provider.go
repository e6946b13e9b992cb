package account

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Cache stores restaurant-name lookups keyed by account id. Implementations
// must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// NameProvider translates account object ids into restaurant names. Clients
// sometimes identify a restaurant by the owning account's id rather than its
// name; the provider keeps that translation off the hot path with a cache.
type NameProvider struct {
	store Store
	cache Cache
	ttl   time.Duration
}

// NewNameProvider builds a provider; a nil cache falls back to an in-memory
// TTL cache.
func NewNameProvider(store Store, cache Cache, ttl time.Duration) *NameProvider {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &NameProvider{store: store, cache: cache, ttl: ttl}
}

// LookupName resolves an account id (24-char hex) to its restaurant name.
func (p *NameProvider) LookupName(ctx context.Context, id string) (string, error) {
	if name, ok := p.cache.Get(ctx, id); ok {
		return name, nil
	}

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return "", ErrNotFound
	}
	acc, err := p.store.FindByID(ctx, oid)
	if err != nil {
		return "", err
	}

	p.cache.Set(ctx, id, acc.RestaurantName, p.ttl)
	return acc.RestaurantName, nil
}

// RedisCache is a Cache backed by Redis, for multi-instance deployments.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache builds a Redis-backed cache. Keys are namespaced with prefix.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "restoname:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	_ = c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}
