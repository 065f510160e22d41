package repositories

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/incomingclass/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// feedCacheTTL keeps cached pages short-lived so new posts show up quickly
const feedCacheTTL = 30 * time.Second

// FeedCache caches anonymous posts-search pages in Redis. Per-viewer fields
// (is_liked) make authenticated responses uncacheable, so callers must only
// use it for requests without a viewer.
type FeedCache struct {
	rdb *redis.Client
}

// NewFeedCache creates a new FeedCache
func NewFeedCache(rdb *redis.Client) *FeedCache {
	return &FeedCache{rdb: rdb}
}

// Key derives a cache key from the search filters and pagination
func (c *FeedCache) Key(filters models.FeedFilters, page, limit int) string {
	raw, _ := json.Marshal(filters)
	sum := sha1.Sum(raw)
	return fmt.Sprintf("feed:search:%s:%d:%d", hex.EncodeToString(sum[:]), page, limit)
}

// Get returns the cached page for the key, or nil on miss or any Redis error
func (c *FeedCache) Get(ctx context.Context, key string) *models.FeedPage {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var page models.FeedPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil
	}
	return &page
}

// Set stores a page under the key. Cache failures are ignored; the feed
// works without Redis.
func (c *FeedCache) Set(ctx context.Context, key string, page *models.FeedPage) {
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, raw, feedCacheTTL)
}
