package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokosume/toko_backoffice_app/internal/apperrors"
	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
	portsrepo "github.com/tokosume/toko_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/tokosume/toko_backoffice_app/internal/core/ports/services"
	"github.com/tokosume/toko_backoffice_app/internal/dto"
	"github.com/tokosume/toko_backoffice_app/internal/factcodec"
	"github.com/tokosume/toko_backoffice_app/internal/middleware"
)

// defaultChartWindow is the trailing range used when the caller gives no
// explicit date range.
const defaultChartWindow = 7 * 24 * time.Hour

const chartDateLayout = "2006-01-02"

// reportingService derives chart series by folding grand_total facts,
// bucketed by the journal's creation day in UTC.
type reportingService struct {
	journalRepo portsrepo.JournalRepositoryFacade
	now         func() time.Time
}

// NewReportingService creates the reporting aggregator.
func NewReportingService(journalRepo portsrepo.JournalRepositoryFacade) portssvc.ReportingSvcFacade {
	return &reportingService{journalRepo: journalRepo, now: time.Now}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

func (s *reportingService) DailyTotals(ctx context.Context, tenantID string, start, end time.Time) ([]dto.DailyTotal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if tenantID == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrTenantRequired)
	}
	if end.IsZero() {
		end = s.now().UTC()
	}
	if start.IsZero() {
		start = end.Add(-defaultChartWindow)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: chart range end precedes start", apperrors.ErrValidation)
	}

	facts, err := s.journalRepo.ListReportFacts(ctx, tenantID, factcodec.KeyGrandTotal,
		[]domain.TransactionType{domain.TypeSale, domain.TypeBuy}, start, end)
	if err != nil {
		logger.Error("Failed to load chart facts", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load chart facts: %w", err)
	}

	buckets := make(map[string]*dto.DailyTotal)
	for _, f := range facts {
		amount, err := decimal.NewFromString(f.Value)
		if err != nil {
			// A non-numeric grand_total is caller metadata, not a total.
			logger.Warn("Skipping non-numeric grand_total fact", slog.String("journal_code", f.JournalCode))
			continue
		}
		day := f.CreatedAt.UTC().Format(chartDateLayout)
		bucket, ok := buckets[day]
		if !ok {
			bucket = &dto.DailyTotal{Date: day}
			buckets[day] = bucket
		}
		switch f.TypePrefix {
		case domain.TypeSale:
			bucket.TotalSale = bucket.TotalSale.Add(amount)
		case domain.TypeBuy:
			bucket.TotalBuy = bucket.TotalBuy.Add(amount)
		}
	}

	totals := make([]dto.DailyTotal, 0, len(buckets))
	for _, b := range buckets {
		totals = append(totals, *b)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })
	return totals, nil
}
