package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	pkgcache "github.com/MTxiong-wang/fundinsight-ai/pkg/cache"
)

const resultPrefix = "result"

// ResultCache keeps the latest finished run per sector so the API can
// serve async results without re-running the pipeline.
type ResultCache struct {
	store pkgcache.Service
	ttl   time.Duration
}

func NewResultCache(store pkgcache.Service, ttl time.Duration) *ResultCache {
	return &ResultCache{store: store, ttl: ttl}
}

// Put stores a finished run under its sector.
func (c *ResultCache) Put(ctx context.Context, result *models.RankResult) error {
	if err := c.store.Set(ctx, resultKey(result.Sector), result, c.ttl); err != nil {
		return fmt.Errorf("cache result %s: %w", result.Sector, err)
	}
	return nil
}

// Get returns the latest cached run for a sector, or ok=false when none
// is stored (or it expired).
func (c *ResultCache) Get(ctx context.Context, sector string) (*models.RankResult, bool, error) {
	var result models.RankResult
	err := c.store.Get(ctx, resultKey(sector), &result)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get result %s: %w", sector, err)
	}
	return &result, true, nil
}

// TryLock takes the per-sector run lock so concurrent workers do not
// rank the same sector twice. The lock expires on its own after ttl in
// case the holder dies mid-run.
func (c *ResultCache) TryLock(ctx context.Context, sector string, ttl time.Duration) (bool, error) {
	return c.store.TryLock(ctx, lockKey(sector), ttl)
}

func (c *ResultCache) Unlock(ctx context.Context, sector string) error {
	return c.store.Unlock(ctx, lockKey(sector))
}

func resultKey(sector string) string {
	return pkgcache.GenerateKey(resultPrefix, sector)
}

func lockKey(sector string) string {
	return pkgcache.GenerateKey(resultPrefix, "lock", sector)
}
