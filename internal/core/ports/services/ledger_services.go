package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
	"github.com/tokosume/toko_backoffice_app/internal/dto"
)

// JournalSvcFacade is the transaction encoder: every business event enters
// the ledger through one of these operations, each an atomic append of a
// journal header plus its facts.
type JournalSvcFacade interface {
	CreateSale(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error)
	CreateBuy(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error)
	CreateSaleReturn(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error)
	CreateBuyReturn(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error)

	CreateAR(ctx context.Context, tenantID string, req dto.CreateDebtRequest, actorID string) (*domain.Journal, error)
	CreateAP(ctx context.Context, tenantID string, req dto.CreateDebtRequest, actorID string) (*domain.Journal, error)
	CreateARPayment(ctx context.Context, tenantID string, req dto.CreatePaymentRequest, actorID string) (*domain.Journal, error)
	CreateAPPayment(ctx context.Context, tenantID string, req dto.CreatePaymentRequest, actorID string) (*domain.Journal, error)

	AdjustStock(ctx context.Context, tenantID string, req dto.AdjustStockRequest, actorID string) (*domain.Journal, error)

	FindByTypePrefix(ctx context.Context, tenantID string, typePrefix domain.TransactionType, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error)
	SoftDeleteJournal(ctx context.Context, tenantID, code, actorID string) error
	RestoreJournal(ctx context.Context, tenantID, code, actorID string) error
}

// StockSvcFacade derives current stock from the fact stream.
type StockSvcFacade interface {
	// CurrentStock returns the signed sum of stock deltas per unit id. Units
	// in unitIDs with no recorded facts map to zero; with an empty unitIDs
	// the full per-unit map is returned.
	CurrentStock(ctx context.Context, tenantID string, unitIDs []string) (map[string]decimal.Decimal, error)
}

// ReportingSvcFacade derives grouped time-series totals from the fact stream.
type ReportingSvcFacade interface {
	// DailyTotals sums grand_total facts of SALE and BUY journals per
	// calendar day. Zero start/end default to the trailing seven days.
	DailyTotals(ctx context.Context, tenantID string, start, end time.Time) ([]dto.DailyTotal, error)
}

// CodeGenerator mints unique, human-readable journal codes:
// "{typePrefix}-{tenantId}-{YYYYMMDD}-{seq:04d}". Uniqueness is only
// guaranteed together with the store's sequence constraint; callers retry
// the whole append on conflict.
type CodeGenerator interface {
	GenerateCode(ctx context.Context, typePrefix domain.TransactionType, tenantID string) (code string, seq int, day time.Time, err error)
}

// ServiceContainer bundles all service facades for route wiring.
type ServiceContainer struct {
	Journal   JournalSvcFacade
	Stock     StockSvcFacade
	Reporting ReportingSvcFacade
}
