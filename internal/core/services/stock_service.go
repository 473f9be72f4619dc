package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokosume/toko_backoffice_app/internal/apperrors"
	"github.com/tokosume/toko_backoffice_app/internal/cache"
	portsrepo "github.com/tokosume/toko_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/tokosume/toko_backoffice_app/internal/core/ports/services"
	"github.com/tokosume/toko_backoffice_app/internal/factcodec"
	"github.com/tokosume/toko_backoffice_app/internal/middleware"
)

// stockService derives current stock by folding every stock delta fact of a
// tenant. Nothing is materialized in the store; the only speedup is a
// cache of the folded map, invalidated on every append.
type stockService struct {
	journalRepo portsrepo.JournalRepositoryFacade
	codec       *factcodec.Codec
	stockCache  cache.StockCache
	cacheTTL    time.Duration
}

// NewStockService creates the stock aggregator.
func NewStockService(journalRepo portsrepo.JournalRepositoryFacade, codec *factcodec.Codec, stockCache cache.StockCache, cacheTTL time.Duration) portssvc.StockSvcFacade {
	return &stockService{
		journalRepo: journalRepo,
		codec:       codec,
		stockCache:  stockCache,
		cacheTTL:    cacheTTL,
	}
}

var _ portssvc.StockSvcFacade = (*stockService)(nil)

func (s *stockService) CurrentStock(ctx context.Context, tenantID string, unitIDs []string) (map[string]decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if tenantID == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrTenantRequired)
	}

	stock, hit, err := s.stockCache.Get(ctx, tenantID)
	if err != nil {
		logger.Warn("Stock cache read failed, falling back to store", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
	}
	if !hit {
		stock, err = s.foldStock(ctx, tenantID)
		if err != nil {
			logger.Error("Failed to aggregate stock", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to aggregate stock: %w", err)
		}
		if cerr := s.stockCache.Set(ctx, tenantID, stock, s.cacheTTL); cerr != nil {
			logger.Warn("Stock cache write failed", slog.String("tenant_id", tenantID), slog.String("error", cerr.Error()))
		}
	}

	if len(unitIDs) == 0 {
		return stock, nil
	}
	filtered := make(map[string]decimal.Decimal, len(unitIDs))
	for _, unitID := range unitIDs {
		// Units never seen in a journal report as zero, not as absent.
		filtered[unitID] = stock[unitID]
	}
	return filtered, nil
}

// foldStock scans every stock fact of the tenant and sums the signed deltas
// per unit id.
func (s *stockService) foldStock(ctx context.Context, tenantID string) (map[string]decimal.Decimal, error) {
	facts, err := s.journalRepo.ListFactsByKeyPrefixes(ctx, tenantID, []string{factcodec.PrefixStockPlus, factcodec.PrefixStockMin})
	if err != nil {
		return nil, err
	}

	stock := make(map[string]decimal.Decimal)
	for _, f := range facts {
		decoded, err := s.codec.Decode(f.Key, f.Value)
		if err != nil {
			return nil, fmt.Errorf("journal %s holds a malformed stock fact %q: %w", f.JournalCode, f.Key, err)
		}
		delta, ok := decoded.(factcodec.StockDelta)
		if !ok {
			continue
		}
		stock[delta.UnitID] = stock[delta.UnitID].Add(delta.Qty)
	}
	return stock, nil
}
