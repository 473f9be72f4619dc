package services_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokosume/toko_backoffice_app/internal/apperrors"
	"github.com/tokosume/toko_backoffice_app/internal/cache"
	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
	portsrepo "github.com/tokosume/toko_backoffice_app/internal/core/ports/repositories"
	"github.com/tokosume/toko_backoffice_app/internal/core/services"
	"github.com/tokosume/toko_backoffice_app/internal/dto"
)

// fakeLedger is an in-memory JournalRepositoryFacade with the same duplicate
// semantics as the SQL store: the sequence read and the append are separate
// critical sections, so concurrent writers genuinely race for slots and only
// the unique-slot check at append time resolves the winner.
type fakeLedger struct {
	mu       sync.Mutex
	journals map[string]domain.Journal
	facts    map[string][]domain.JournalDetail
}

var _ portsrepo.JournalRepositoryFacade = (*fakeLedger)(nil)

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		journals: make(map[string]domain.Journal),
		facts:    make(map[string][]domain.JournalDetail),
	}
}

func (f *fakeLedger) AppendJournal(_ context.Context, journal domain.Journal, facts []domain.JournalDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.journals[journal.Code]; exists {
		return fmt.Errorf("%w: code %s exists", apperrors.ErrDuplicate, journal.Code)
	}
	for _, j := range f.journals {
		if j.TypePrefix == journal.TypePrefix && j.TenantID == journal.TenantID &&
			j.SeqDate.Equal(journal.SeqDate) && j.Sequence == journal.Sequence {
			return fmt.Errorf("%w: sequence slot %d taken", apperrors.ErrDuplicate, journal.Sequence)
		}
	}
	f.journals[journal.Code] = journal
	f.facts[journal.Code] = append([]domain.JournalDetail(nil), facts...)
	return nil
}

func (f *fakeLedger) NextSequence(_ context.Context, typePrefix domain.TransactionType, tenantID string, day time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, j := range f.journals {
		if j.TypePrefix == typePrefix && j.TenantID == tenantID && j.SeqDate.Equal(day) && j.Sequence > max {
			max = j.Sequence
		}
	}
	return max + 1, nil
}

func (f *fakeLedger) FindJournalByCode(_ context.Context, tenantID, code string) (*domain.Journal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.journals[code]
	if !ok || j.TenantID != tenantID || j.Deleted() {
		return nil, apperrors.ErrNotFound
	}
	return &j, nil
}

func (f *fakeLedger) FindFactsByJournalCode(_ context.Context, code string) ([]domain.JournalDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.JournalDetail(nil), f.facts[code]...), nil
}

func (f *fakeLedger) FindFactsByJournalCodes(_ context.Context, codes []string) (map[string][]domain.JournalDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]domain.JournalDetail, len(codes))
	for _, code := range codes {
		out[code] = append([]domain.JournalDetail(nil), f.facts[code]...)
	}
	return out, nil
}

func (f *fakeLedger) ListJournalsByTypePrefix(_ context.Context, tenantID string, typePrefix domain.TransactionType, limit int, _ *string) ([]domain.Journal, *string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	out := []domain.Journal{}
	for _, j := range f.journals {
		if j.TenantID == tenantID && j.TypePrefix == typePrefix && !j.Deleted() {
			out = append(out, j)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil, nil
}

func (f *fakeLedger) SoftDeleteJournal(_ context.Context, tenantID, code, deletedBy string, deletedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.journals[code]
	if !ok || j.TenantID != tenantID || j.Deleted() {
		return apperrors.ErrNotFound
	}
	j.DeletedAt = &deletedAt
	j.DeletedBy = &deletedBy
	f.journals[code] = j
	return nil
}

func (f *fakeLedger) RestoreJournal(_ context.Context, tenantID, code, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.journals[code]
	if !ok || j.TenantID != tenantID || !j.Deleted() {
		return apperrors.ErrNotFound
	}
	j.DeletedAt = nil
	j.DeletedBy = nil
	f.journals[code] = j
	return nil
}

func (f *fakeLedger) ListFactsByKeyPrefixes(_ context.Context, tenantID string, prefixes []string) ([]domain.JournalDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.JournalDetail{}
	for code, j := range f.journals {
		if j.TenantID != tenantID || j.Deleted() {
			continue
		}
		for _, fact := range f.facts[code] {
			for _, prefix := range prefixes {
				if strings.HasPrefix(fact.Key, prefix) {
					out = append(out, fact)
					break
				}
			}
		}
	}
	return out, nil
}

func (f *fakeLedger) ListReportFacts(_ context.Context, tenantID, key string, typePrefixes []domain.TransactionType, from, to time.Time) ([]domain.ReportFact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.ReportFact{}
	for code, j := range f.journals {
		if j.TenantID != tenantID || j.Deleted() {
			continue
		}
		typeOK := false
		for _, t := range typePrefixes {
			if j.TypePrefix == t {
				typeOK = true
				break
			}
		}
		if !typeOK || j.CreatedAt.Before(from) || j.CreatedAt.After(to) {
			continue
		}
		for _, fact := range f.facts[code] {
			if fact.Key == key {
				out = append(out, domain.ReportFact{
					JournalCode: code,
					TypePrefix:  j.TypePrefix,
					CreatedAt:   j.CreatedAt,
					Value:       fact.Value,
				})
			}
		}
	}
	return out, nil
}

func TestLedgerFlow_AdjustSellReturnDerivesStock(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	repos := &portsrepo.RepositoryProvider{JournalRepo: ledger}
	container := services.NewServiceContainer(repos, cache.NoopStockCache{}, services.ContainerOpts{
		StockCacheTTL:  time.Minute,
		CodeMaxRetries: 3,
	})
	tenant, user := "store-1", "user-1"

	// Opname to 50.
	_, err := container.Journal.AdjustStock(ctx, tenant, dto.AdjustStockRequest{
		Adjustments: []dto.StockAdjustmentRequest{
			{ProductUUID: "prod-a", UnitUUID: "unit-a", OldQty: decimal.Zero, NewQty: decimal.NewFromInt(50)},
		},
	}, user)
	require.NoError(t, err)

	// Sell 3.
	_, err = container.Journal.CreateSale(ctx, tenant, dto.CreateTransactionRequest{
		Details: map[string]any{"grand_total": "4500"},
		Items: []dto.LineItemRequest{
			{ProductUUID: "prod-a", UnitUUID: "unit-a", Qty: decimal.NewFromInt(3), Price: decimal.NewFromInt(1500)},
		},
	}, user)
	require.NoError(t, err)

	stock, err := container.Stock.CurrentStock(ctx, tenant, []string{"unit-a"})
	require.NoError(t, err)
	assert.True(t, stock["unit-a"].Equal(decimal.NewFromInt(47)), "50 - 3 = 47, got %s", stock["unit-a"])

	// Customer returns 1.
	_, err = container.Journal.CreateSaleReturn(ctx, tenant, dto.CreateTransactionRequest{
		Items: []dto.LineItemRequest{
			{ProductUUID: "prod-a", UnitUUID: "unit-a", Qty: decimal.NewFromInt(1), Price: decimal.NewFromInt(1500)},
		},
	}, user)
	require.NoError(t, err)

	stock, err = container.Stock.CurrentStock(ctx, tenant, []string{"unit-a"})
	require.NoError(t, err)
	assert.True(t, stock["unit-a"].Equal(decimal.NewFromInt(48)), "47 + 1 = 48, got %s", stock["unit-a"])
}

func TestLedgerFlow_MalformedStockFactCannotPoisonAggregation(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	repos := &portsrepo.RepositoryProvider{JournalRepo: ledger}
	container := services.NewServiceContainer(repos, cache.NoopStockCache{}, services.ContainerOpts{CodeMaxRetries: 3})
	tenant, user := "store-1", "user-1"

	_, err := container.Journal.AdjustStock(ctx, tenant, dto.AdjustStockRequest{
		Adjustments: []dto.StockAdjustmentRequest{
			{ProductUUID: "prod-a", UnitUUID: "unit-a", OldQty: decimal.Zero, NewQty: decimal.NewFromInt(10)},
		},
	}, user)
	require.NoError(t, err)

	// A sale smuggling a non-numeric stock fact must fail as one local
	// append, not break the tenant's reads.
	_, err = container.Journal.CreateSale(ctx, tenant, dto.CreateTransactionRequest{
		Details: map[string]any{"stok_plus_prod_unit": "not-a-number"},
	}, user)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	stock, err := container.Stock.CurrentStock(ctx, tenant, []string{"unit-a"})
	require.NoError(t, err, "stock reads must survive a rejected append")
	assert.True(t, stock["unit-a"].Equal(decimal.NewFromInt(10)))
	assert.Len(t, ledger.journals, 1, "only the adjustment may persist")
}

func TestLedgerFlow_RejectedPaymentPersistsNothing(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	repos := &portsrepo.RepositoryProvider{JournalRepo: ledger}
	container := services.NewServiceContainer(repos, cache.NoopStockCache{}, services.ContainerOpts{CodeMaxRetries: 3})

	_, err := container.Journal.CreateARPayment(ctx, "store-1", dto.CreatePaymentRequest{
		Amount: decimal.NewFromInt(1000),
	}, "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, ledger.journals, "a rejected payment must leave no journal behind")

	// The next successful journal of the type starts at sequence 1.
	journal, err := container.Journal.CreateAR(ctx, "store-1", dto.CreateDebtRequest{
		Amount: decimal.NewFromInt(1000),
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, journal.Sequence)
}

func TestLedgerFlow_SoftDeleteHidesJournalAndFacts(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	repos := &portsrepo.RepositoryProvider{JournalRepo: ledger}
	container := services.NewServiceContainer(repos, cache.NoopStockCache{}, services.ContainerOpts{CodeMaxRetries: 3})
	tenant, user := "store-1", "user-1"

	journal, err := container.Journal.CreateBuy(ctx, tenant, dto.CreateTransactionRequest{
		Details: map[string]any{"grand_total": "9000"},
		Items: []dto.LineItemRequest{
			{ProductUUID: "prod-a", UnitUUID: "unit-a", Qty: decimal.NewFromInt(10), Price: decimal.NewFromInt(900)},
		},
	}, user)
	require.NoError(t, err)

	stock, err := container.Stock.CurrentStock(ctx, tenant, []string{"unit-a"})
	require.NoError(t, err)
	require.True(t, stock["unit-a"].Equal(decimal.NewFromInt(10)))

	require.NoError(t, container.Journal.SoftDeleteJournal(ctx, tenant, journal.Code, user))

	stock, err = container.Stock.CurrentStock(ctx, tenant, []string{"unit-a"})
	require.NoError(t, err)
	assert.True(t, stock["unit-a"].IsZero(), "deleted journals must not count toward stock")

	listing, err := container.Journal.FindByTypePrefix(ctx, tenant, domain.TypeBuy, dto.ListJournalsParams{})
	require.NoError(t, err)
	assert.Empty(t, listing.Journals)

	// Restore brings everything back.
	require.NoError(t, container.Journal.RestoreJournal(ctx, tenant, journal.Code, user))
	stock, err = container.Stock.CurrentStock(ctx, tenant, []string{"unit-a"})
	require.NoError(t, err)
	assert.True(t, stock["unit-a"].Equal(decimal.NewFromInt(10)))
}

func TestLedgerFlow_ConcurrentAppendsGetUniqueCodes(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	repos := &portsrepo.RepositoryProvider{JournalRepo: ledger}
	// Enough retries that every contender eventually lands a slot.
	container := services.NewServiceContainer(repos, cache.NoopStockCache{}, services.ContainerOpts{CodeMaxRetries: 50})

	const writers = 20
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = container.Journal.CreateAR(ctx, "store-1", dto.CreateDebtRequest{
				Amount: decimal.NewFromInt(int64(i + 1)),
			}, "user-1")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}
	require.Len(t, ledger.journals, writers)

	seen := map[int]bool{}
	for code, j := range ledger.journals {
		assert.False(t, seen[j.Sequence], "sequence %d assigned twice", j.Sequence)
		seen[j.Sequence] = true
		assert.Contains(t, code, fmt.Sprintf("-%04d", j.Sequence%10000))
	}
}

func TestLedgerFlow_ChartFromLedger(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	repos := &portsrepo.RepositoryProvider{JournalRepo: ledger}
	container := services.NewServiceContainer(repos, cache.NoopStockCache{}, services.ContainerOpts{CodeMaxRetries: 3})
	tenant, user := "store-1", "user-1"

	_, err := container.Journal.CreateSale(ctx, tenant, dto.CreateTransactionRequest{
		Details: map[string]any{"grand_total": "1000"},
	}, user)
	require.NoError(t, err)
	_, err = container.Journal.CreateBuy(ctx, tenant, dto.CreateTransactionRequest{
		Details: map[string]any{"grand_total": "400"},
	}, user)
	require.NoError(t, err)
	// AR journals have amounts but never show up in the sale/buy chart.
	_, err = container.Journal.CreateAR(ctx, tenant, dto.CreateDebtRequest{Amount: decimal.NewFromInt(9999)}, user)
	require.NoError(t, err)

	totals, err := container.Reporting.DailyTotals(ctx, tenant, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	today := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, today, totals[0].Date)
	assert.True(t, totals[0].TotalSale.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals[0].TotalBuy.Equal(decimal.NewFromInt(400)))
}
