package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const cacheExpiration = 5 * time.Minute

// quoteCache is the slice of the Redis API the cache uses.
// *redis.Client satisfies it.
type quoteCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cached is a read-through Redis cache in front of another Source.
// Only successful lookups are cached; ErrNotFound and provider errors
// always go back to the upstream on the next call.
type Cached struct {
	src Source
	rdb quoteCache
	ttl time.Duration
}

func NewCached(src Source, rdb *redis.Client) *Cached {
	return &Cached{src: src, rdb: rdb, ttl: cacheExpiration}
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("quote:%s", symbol)
}

func (c *Cached) Lookup(ctx context.Context, symbol string) (Quote, error) {
	// Normalize once so "aapl" and "AAPL " share one cache entry; the
	// read and the write below must use the same key.
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	cached, err := c.rdb.Get(ctx, cacheKey(symbol)).Result()
	if err == nil {
		var q Quote
		if err := json.Unmarshal([]byte(cached), &q); err == nil {
			return q, nil
		}
		// Unparseable cache entry, fall through to the upstream.
	}

	q, err := c.src.Lookup(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	if data, err := json.Marshal(q); err == nil {
		// Best effort: a cache write failure must not fail the lookup.
		c.rdb.Set(ctx, cacheKey(symbol), data, c.ttl)
	}
	return q, nil
}
