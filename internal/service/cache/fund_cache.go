package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	pkgcache "github.com/MTxiong-wang/fundinsight-ai/pkg/cache"
)

const keyPrefix = "fund"

// FundCache stores normalized fund snapshots so repeated ranking runs
// do not hit the upstream provider for codes fetched recently.
type FundCache struct {
	store pkgcache.Service
	ttl   time.Duration
}

// NewFundCache creates a fund snapshot cache with the given TTL.
func NewFundCache(store pkgcache.Service, ttl time.Duration) *FundCache {
	return &FundCache{store: store, ttl: ttl}
}

// Get returns the cached snapshot for a code, or ok=false on a miss.
func (c *FundCache) Get(ctx context.Context, code string) (*models.Fund, bool, error) {
	var fund models.Fund
	err := c.store.Get(ctx, key(code), &fund)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get %s: %w", code, err)
	}
	return &fund, true, nil
}

// GetMany bulk-loads cached snapshots for the given codes. Codes
// without a cached snapshot are simply absent from the result.
func (c *FundCache) GetMany(ctx context.Context, codes []string) (map[string]models.Fund, error) {
	if len(codes) == 0 {
		return map[string]models.Fund{}, nil
	}

	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = key(code)
	}

	byKey, err := pkgcache.MGetTyped[models.Fund](ctx, c.store, keys...)
	if err != nil {
		return nil, fmt.Errorf("cache mget: %w", err)
	}

	funds := make(map[string]models.Fund, len(byKey))
	for i, code := range codes {
		if f, ok := byKey[keys[i]]; ok {
			funds[code] = f
		}
	}
	return funds, nil
}

// Put stores a snapshot under the fund's code.
func (c *FundCache) Put(ctx context.Context, fund models.Fund) error {
	if err := c.store.Set(ctx, key(fund.Code), fund, c.ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", fund.Code, err)
	}
	return nil
}

// PutMany stores snapshots for all given funds in one round trip.
func (c *FundCache) PutMany(ctx context.Context, funds []models.Fund) error {
	if len(funds) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(funds))
	for _, f := range funds {
		values[key(f.Code)] = f
	}
	if err := c.store.MSet(ctx, values, c.ttl); err != nil {
		return fmt.Errorf("cache mset: %w", err)
	}
	return nil
}

// Invalidate drops cached snapshots for the given codes.
func (c *FundCache) Invalidate(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		return nil
	}
	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = key(code)
	}
	return c.store.Delete(ctx, keys...)
}

func key(code string) string {
	return pkgcache.GenerateKey(keyPrefix, code)
}
