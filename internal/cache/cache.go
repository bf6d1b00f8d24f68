// Package cache is the Redis cache-aside layer for the public redirect
// path. Cache failures are never fatal; callers fall back to the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MagnunAVF/qr-tracker/internal"
)

const defaultTTL = 1 * time.Hour

// CachedCode is the subset of a QR code the redirect path needs.
type CachedCode struct {
	ID        int64  `json:"id"`
	Slug      string `json:"slug"`
	TargetURL string `json:"target_url"`
}

type SlugCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSlugCache(rdb *redis.Client, ttl time.Duration) *SlugCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &SlugCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached code for slug, with found=false on a cache miss.
func (c *SlugCache) Get(ctx context.Context, slug string) (*CachedCode, bool, error) {
	raw, err := c.rdb.Get(ctx, slugKey(slug)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slug cache: %w", err)
	}

	var cached CachedCode
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		// Stale or corrupt entry; treat as a miss so the DB re-fills it
		return nil, false, nil
	}
	return &cached, true, nil
}

func (c *SlugCache) Set(ctx context.Context, code *internal.QRCode) error {
	body, err := json.Marshal(CachedCode{ID: code.ID, Slug: code.Slug, TargetURL: code.TargetURL})
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, slugKey(code.Slug), body, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write slug cache: %w", err)
	}
	return nil
}

func (c *SlugCache) Invalidate(ctx context.Context, slug string) error {
	if err := c.rdb.Del(ctx, slugKey(slug)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate slug cache: %w", err)
	}
	return nil
}

func slugKey(slug string) string {
	return "qr:slug:" + slug
}
