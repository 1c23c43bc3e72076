package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Public catalog page: catalog:{page}:{page_size} -> OffsetPage JSON
	KeyCatalogPage = "catalog:%d:%d"

	// Glob used to drop every cached catalog page on invalidation.
	keyCatalogGlob = "catalog:*"
)

// Catalog is a TTL read cache for the public product catalog. A nil *Catalog
// is valid and disables caching, so callers never branch on configuration.
type Catalog struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr string, ttl time.Duration) *Catalog {
	if addr == "" {
		return nil
	}
	return &Catalog{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// GetPage returns the cached JSON for a catalog page, or nil on miss or when
// the cache is disabled. Cache errors are swallowed; the DB stays the truth.
func (c *Catalog) GetPage(ctx context.Context, page, pageSize int) json.RawMessage {
	if c == nil {
		return nil
	}
	key := fmt.Sprintf(KeyCatalogPage, page, pageSize)
	s, err := c.rdb.Get(ctx, key).Result()
	if err != nil || s == "" {
		return nil
	}
	return json.RawMessage(s)
}

func (c *Catalog) SetPage(ctx context.Context, page, pageSize int, body []byte) {
	if c == nil {
		return
	}
	key := fmt.Sprintf(KeyCatalogPage, page, pageSize)
	_ = c.rdb.Set(ctx, key, body, c.ttl).Err()
}

// Invalidate drops every cached catalog page. Called after moderation
// decisions and listing edits so stale pages never outlive a status change
// past the TTL.
func (c *Catalog) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, keyCatalogGlob, 100).Iterator()
	for iter.Next(ctx) {
		_ = c.rdb.Del(ctx, iter.Val()).Err()
	}
}

func (c *Catalog) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
