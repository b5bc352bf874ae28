package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix = "locals:catalog:"

	// generationKey sits outside keyPrefix so sweeping entries never resets it.
	generationKey = "locals:catalog-generation"

	loadTimeout = 30 * time.Second
)

// Cache is a read-through JSON cache for catalog reads. A nil *Cache is valid
// and simply calls the loader.
//
// Entries are stored under the generation current when their load started.
// Invalidate bumps the generation, so a load that raced an invalidation
// writes an entry no later read will look at.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	logger *slog.Logger
}

func New(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if rdb == nil {
		return nil
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

func Key(parts ...string) string {
	k := keyPrefix
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}

func (c *Cache) generation(ctx context.Context) (string, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *Cache) getOrLoad(ctx context.Context, key string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("cache unavailable, loading directly", "key", key, "error", err)
		return load(ctx)
	}
	entry := key + "@" + gen

	if b, err := c.rdb.Get(ctx, entry).Bytes(); err == nil {
		return b, nil
	}
	// concurrent misses on the same entry share one load; it must not die
	// with whichever caller happened to start it
	v, err, _ := c.sf.Do(entry, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		b, e := load(loadCtx)
		if e != nil {
			return nil, e
		}
		if e := c.rdb.Set(loadCtx, entry, b, c.ttl).Err(); e != nil {
			c.logger.Warn("cache write failed", "key", entry, "error", e)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// GetOrLoadJSON returns the cached value for key, loading and storing it on a miss.
func GetOrLoadJSON[T any](ctx context.Context, c *Cache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	var zero T
	b, err := c.getOrLoad(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if e != nil {
			return nil, e
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return out, nil
}

// Invalidate starts a new generation and sweeps the entries of older ones.
// Errors are logged, not returned: entries expire on their own after the TTL.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Warn("cache generation bump failed", "error", err)
	}

	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("cache scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", "error", err)
	}
}
