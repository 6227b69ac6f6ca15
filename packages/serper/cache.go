package serper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"serptrack/packages/domain"
)

// Cache is a read-through Redis cache for SERP responses. A run re-fetching
// the same (keyword, page) within the TTL burns no API quota. Cache failures
// never fail a fetch; they degrade to a direct provider call.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(addr, password string, db int, ttl time.Duration) *Cache {
	return &Cache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

func cacheKey(q, gl, hl string, page int, autocorrect bool) string {
	return fmt.Sprintf("serptrack:serp:%s:%s:%s:%d:%t", gl, hl, q, page, autocorrect)
}

func (c *Cache) Get(ctx context.Context, q, gl, hl string, page int, autocorrect bool) ([]domain.OrganicResult, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(q, gl, hl, page, autocorrect)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("SERP cache read failed", "keyword", q, "page", page, "error", err)
		}
		return nil, false
	}
	var results []domain.OrganicResult
	if err := json.Unmarshal(raw, &results); err != nil {
		slog.Warn("SERP cache held malformed entry", "keyword", q, "page", page, "error", err)
		return nil, false
	}
	return results, true
}

func (c *Cache) Put(ctx context.Context, q, gl, hl string, page int, autocorrect bool, results []domain.OrganicResult) {
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(q, gl, hl, page, autocorrect), raw, c.ttl).Err(); err != nil {
		slog.Debug("SERP cache write failed", "keyword", q, "page", page, "error", err)
	}
}
