// Package cache provides an optional read-model cache for derived stock.
// The ledger itself is the source of truth; entries are TTL-bounded and
// invalidated on every append, so a cold or unavailable cache only costs a
// rescan.
package cache

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StockCache caches the per-unit stock map derived for one tenant.
type StockCache interface {
	Get(ctx context.Context, tenantID string) (map[string]decimal.Decimal, bool, error)
	Set(ctx context.Context, tenantID string, stock map[string]decimal.Decimal, ttl time.Duration) error
	Invalidate(ctx context.Context, tenantID string) error
}

// NoopStockCache is used when no Redis address is configured.
type NoopStockCache struct{}

func (NoopStockCache) Get(_ context.Context, _ string) (map[string]decimal.Decimal, bool, error) {
	return nil, false, nil
}

func (NoopStockCache) Set(_ context.Context, _ string, _ map[string]decimal.Decimal, _ time.Duration) error {
	return nil
}

func (NoopStockCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
