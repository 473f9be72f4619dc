package repositories

import (
	"context"
	"time"

	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
)

// JournalRepositoryFacade is the ledger store: transactional append plus the
// query primitives the aggregators scan. Facts are write-once; the only
// mutation after append is the journal-level soft-delete flag.
type JournalRepositoryFacade interface {
	// AppendJournal persists a journal header and all of its facts in one
	// atomic transaction. A code or sequence collision is reported as
	// apperrors.ErrDuplicate so the caller can retry with a fresh sequence.
	AppendJournal(ctx context.Context, journal domain.Journal, facts []domain.JournalDetail) error

	// NextSequence returns one more than the highest sequence recorded for
	// (typePrefix, tenantID, day), starting at 1.
	NextSequence(ctx context.Context, typePrefix domain.TransactionType, tenantID string, day time.Time) (int, error)

	FindJournalByCode(ctx context.Context, tenantID, code string) (*domain.Journal, error)
	FindFactsByJournalCode(ctx context.Context, code string) ([]domain.JournalDetail, error)
	FindFactsByJournalCodes(ctx context.Context, codes []string) (map[string][]domain.JournalDetail, error)

	// ListJournalsByTypePrefix returns non-deleted journals of one type for a
	// tenant, newest first, with token pagination.
	ListJournalsByTypePrefix(ctx context.Context, tenantID string, typePrefix domain.TransactionType, limit int, nextToken *string) ([]domain.Journal, *string, error)

	SoftDeleteJournal(ctx context.Context, tenantID, code, deletedBy string, deletedAt time.Time) error
	RestoreJournal(ctx context.Context, tenantID, code, restoredBy string, restoredAt time.Time) error

	// ListFactsByKeyPrefixes returns all facts of non-deleted journals for a
	// tenant whose key starts with any of the given prefixes.
	ListFactsByKeyPrefixes(ctx context.Context, tenantID string, prefixes []string) ([]domain.JournalDetail, error)

	// ListReportFacts returns facts with exactly the given key, joined with
	// their journal's type and creation time, for non-deleted journals of the
	// given types whose creation time falls in [from, to].
	ListReportFacts(ctx context.Context, tenantID, key string, typePrefixes []domain.TransactionType, from, to time.Time) ([]domain.ReportFact, error)
}

// RepositoryProvider bundles all repository facades for wiring.
type RepositoryProvider struct {
	JournalRepo JournalRepositoryFacade
}
