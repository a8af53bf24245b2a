package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pricely/backend/internal/domain"
)

const (
	listingCachePrefix = "cheapest:"
	listingCacheTTL    = 5 * time.Minute
)

// ListingCache caches the public cheapest-products listing in Redis. It is
// a display cache only: the chat pipeline's budget filter always reads the
// database directly. The seed tool flushes it after catalog writes.
type ListingCache struct {
	client *Client
}

// NewListingCache creates a new listing cache
func NewListingCache(client *Client) *ListingCache {
	return &ListingCache{client: client}
}

func listingKey(category string, limit int) string {
	return fmt.Sprintf("%s%s:%d", listingCachePrefix, category, limit)
}

// Get retrieves a cached listing; a miss returns (nil, nil)
func (c *ListingCache) Get(ctx context.Context, category string, limit int) ([]domain.ProductMatch, error) {
	data, err := c.client.rdb.Get(ctx, listingKey(category, limit)).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var products []domain.ProductMatch
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listing: %w", err)
	}
	return products, nil
}

// Set caches a listing
func (c *ListingCache) Set(ctx context.Context, category string, limit int, products []domain.ProductMatch) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}
	return c.client.rdb.Set(ctx, listingKey(category, limit), data, listingCacheTTL).Err()
}

// FlushAll removes all cached listings
func (c *ListingCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := listingCachePrefix + "*"
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
