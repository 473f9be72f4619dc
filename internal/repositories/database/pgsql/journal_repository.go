package pgsql

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokosume/toko_backoffice_app/internal/apperrors"
	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
	portsrepo "github.com/tokosume/toko_backoffice_app/internal/core/ports/repositories"
	"github.com/tokosume/toko_backoffice_app/internal/models"
	"github.com/tokosume/toko_backoffice_app/internal/utils/mapping"
	"github.com/tokosume/toko_backoffice_app/internal/utils/pagination"
)

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates the repository for journal and fact data.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

// AppendJournal inserts the journal header and all of its facts in one DB
// transaction. The unique (type_prefix, tenant_id, seq_date, seq) index is
// what actually closes the sequencing race; a violation of it (or of the code
// uniqueness) surfaces as apperrors.ErrDuplicate so the service can retry
// with a fresh sequence.
func (r *PgxJournalRepository) AppendJournal(ctx context.Context, journal domain.Journal, facts []domain.JournalDetail) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	modelJournal := mapping.ToModelJournal(journal)
	journalQuery := `
		INSERT INTO journals (
			journal_id, code, type_prefix, tenant_id, seq_date, seq,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = tx.Exec(ctx, journalQuery,
		modelJournal.JournalID,
		modelJournal.Code,
		modelJournal.TypePrefix,
		modelJournal.TenantID,
		modelJournal.SeqDate,
		modelJournal.Seq,
		modelJournal.CreatedAt,
		modelJournal.CreatedBy,
		modelJournal.LastUpdatedAt,
		modelJournal.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: journal code %s or its sequence slot is taken", apperrors.ErrDuplicate, modelJournal.Code)
		}
		return apperrors.NewAppError(500, "failed to insert journal "+modelJournal.Code, err)
	}

	batch := &pgx.Batch{}
	factQuery := `
		INSERT INTO journal_details (detail_id, journal_code, key, value, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	for _, f := range facts {
		modelFact := mapping.ToModelJournalDetail(f)
		batch.Queue(factQuery,
			modelFact.DetailID,
			modelFact.JournalCode,
			modelFact.Key,
			modelFact.Value,
			modelFact.CreatedAt,
			modelFact.CreatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert facts for journal "+modelJournal.Code, err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: journal code %s or its sequence slot is taken", apperrors.ErrDuplicate, modelJournal.Code)
		}
		return apperrors.NewAppError(500, "failed to commit journal "+modelJournal.Code, err)
	}
	return nil
}

// NextSequence returns one more than the highest sequence recorded for the
// (type, tenant, day) triple. Soft-deleted journals keep their slot, so the
// scan deliberately ignores deleted_at.
func (r *PgxJournalRepository) NextSequence(ctx context.Context, typePrefix domain.TransactionType, tenantID string, day time.Time) (int, error) {
	query := `
		SELECT COALESCE(MAX(seq), 0) + 1
		FROM journals
		WHERE type_prefix = $1 AND tenant_id = $2 AND seq_date = $3;
	`
	var next int
	if err := r.Pool.QueryRow(ctx, query, string(typePrefix), tenantID, day).Scan(&next); err != nil {
		return 0, apperrors.NewAppError(500, "failed to compute next sequence for "+string(typePrefix), err)
	}
	return next, nil
}

// FindJournalByCode retrieves a non-deleted journal by its code.
func (r *PgxJournalRepository) FindJournalByCode(ctx context.Context, tenantID, code string) (*domain.Journal, error) {
	query := `
		SELECT journal_id, code, type_prefix, tenant_id, seq_date, seq,
		       created_at, created_by, last_updated_at, last_updated_by,
		       deleted_at, deleted_by
		FROM journals
		WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL;
	`
	var m models.Journal
	err := r.Pool.QueryRow(ctx, query, tenantID, code).Scan(
		&m.JournalID,
		&m.Code,
		&m.TypePrefix,
		&m.TenantID,
		&m.SeqDate,
		&m.Seq,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&m.DeletedAt,
		&m.DeletedBy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find journal by code "+code, err)
	}
	journal := mapping.ToDomainJournal(m)
	return &journal, nil
}

// FindFactsByJournalCode retrieves all facts of one journal in append order.
func (r *PgxJournalRepository) FindFactsByJournalCode(ctx context.Context, code string) ([]domain.JournalDetail, error) {
	query := `
		SELECT detail_id, journal_code, key, value, created_at, created_by
		FROM journal_details
		WHERE journal_code = $1
		ORDER BY detail_id;
	`
	rows, err := r.Pool.Query(ctx, query, code)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query facts for journal "+code, err)
	}
	defer rows.Close()

	facts, err := scanFactRows(rows)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan fact rows for journal "+code, err)
	}
	return facts, nil
}

// FindFactsByJournalCodes retrieves facts for a batch of journals, keyed by
// journal code. Codes with no facts map to an empty slice.
func (r *PgxJournalRepository) FindFactsByJournalCodes(ctx context.Context, codes []string) (map[string][]domain.JournalDetail, error) {
	factsMap := make(map[string][]domain.JournalDetail, len(codes))
	for _, code := range codes {
		factsMap[code] = []domain.JournalDetail{}
	}
	if len(codes) == 0 {
		return factsMap, nil
	}

	query := `
		SELECT detail_id, journal_code, key, value, created_at, created_by
		FROM journal_details
		WHERE journal_code = ANY($1)
		ORDER BY journal_code, detail_id;
	`
	rows, err := r.Pool.Query(ctx, query, codes)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query facts for journal batch", err)
	}
	defer rows.Close()

	facts, err := scanFactRows(rows)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan fact rows for journal batch", err)
	}
	for _, f := range facts {
		factsMap[f.JournalCode] = append(factsMap[f.JournalCode], f)
	}
	return factsMap, nil
}

// ListJournalsByTypePrefix retrieves a page of non-deleted journals of one
// type, newest first, with (created_at, code) token pagination.
func (r *PgxJournalRepository) ListJournalsByTypePrefix(ctx context.Context, tenantID string, typePrefix domain.TransactionType, limit int, nextToken *string) ([]domain.Journal, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT journal_id, code, type_prefix, tenant_id, seq_date, seq,
		       created_at, created_by, last_updated_at, last_updated_by,
		       deleted_at, deleted_by
		FROM journals
		WHERE tenant_id = $1 AND type_prefix = $2 AND deleted_at IS NULL
	`
	orderByClause := `ORDER BY created_at DESC, code DESC`

	args := []any{tenantID, string(typePrefix)}
	query := baseQuery
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastCode, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND (created_at, code) < ($3, $4)`
		args = append(args, lastCreatedAt, lastCode)
	}
	query += " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query journals of type "+string(typePrefix), err)
	}
	defer rows.Close()

	modelJournals := make([]models.Journal, 0, fetchLimit)
	for rows.Next() {
		var m models.Journal
		if err := rows.Scan(
			&m.JournalID,
			&m.Code,
			&m.TypePrefix,
			&m.TenantID,
			&m.SeqDate,
			&m.Seq,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
			&m.DeletedAt,
			&m.DeletedBy,
		); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal row", err)
		}
		modelJournals = append(modelJournals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating journal rows", err)
	}

	var nextTokenVal *string
	results := modelJournals
	if len(modelJournals) > limit {
		last := modelJournals[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.Code)
		nextTokenVal = &token
		results = modelJournals[:limit]
	}

	journals := make([]domain.Journal, len(results))
	for i, m := range results {
		journals[i] = mapping.ToDomainJournal(m)
	}
	return journals, nextTokenVal, nil
}

// SoftDeleteJournal flags a journal as deleted. Facts stay untouched; every
// read path filters on the journal's deleted_at.
func (r *PgxJournalRepository) SoftDeleteJournal(ctx context.Context, tenantID, code, deletedBy string, deletedAt time.Time) error {
	query := `
		UPDATE journals
		SET deleted_at = $3,
		    deleted_by = $4,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, code, deletedAt, deletedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to soft delete journal "+code, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal " + code + " not found or already deleted")
	}
	return nil
}

// RestoreJournal clears the soft-delete flag.
func (r *PgxJournalRepository) RestoreJournal(ctx context.Context, tenantID, code, restoredBy string, restoredAt time.Time) error {
	query := `
		UPDATE journals
		SET deleted_at = NULL,
		    deleted_by = NULL,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NOT NULL;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, code, restoredAt, restoredBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to restore journal "+code, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal " + code + " not found or not deleted")
	}
	return nil
}

// ListFactsByKeyPrefixes retrieves every fact of non-deleted journals whose
// key starts with one of the given prefixes. This is the scan backing the
// stock aggregator.
func (r *PgxJournalRepository) ListFactsByKeyPrefixes(ctx context.Context, tenantID string, prefixes []string) ([]domain.JournalDetail, error) {
	if len(prefixes) == 0 {
		return []domain.JournalDetail{}, nil
	}
	patterns := make([]string, len(prefixes))
	for i, p := range prefixes {
		patterns[i] = p + "%"
	}

	query := `
		SELECT d.detail_id, d.journal_code, d.key, d.value, d.created_at, d.created_by
		FROM journal_details d
		JOIN journals j ON d.journal_code = j.code
		WHERE j.tenant_id = $1 AND j.deleted_at IS NULL AND d.key LIKE ANY($2)
		ORDER BY d.created_at, d.detail_id;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, patterns)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query facts by key prefixes", err)
	}
	defer rows.Close()

	facts, err := scanFactRows(rows)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan prefix fact rows", err)
	}
	return facts, nil
}

// ListReportFacts retrieves facts with exactly the given key, joined with the
// owning journal's type and creation time, restricted to journal types and a
// creation window. This is the scan backing the chart aggregator.
func (r *PgxJournalRepository) ListReportFacts(ctx context.Context, tenantID, key string, typePrefixes []domain.TransactionType, from, to time.Time) ([]domain.ReportFact, error) {
	types := make([]string, len(typePrefixes))
	for i, t := range typePrefixes {
		types[i] = string(t)
	}

	query := `
		SELECT d.journal_code, j.type_prefix, j.created_at, d.value
		FROM journal_details d
		JOIN journals j ON d.journal_code = j.code
		WHERE j.tenant_id = $1
		  AND d.key = $2
		  AND j.type_prefix = ANY($3)
		  AND j.created_at >= $4 AND j.created_at <= $5
		  AND j.deleted_at IS NULL
		ORDER BY j.created_at;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, key, types, from, to)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query report facts for key "+key, err)
	}
	defer rows.Close()

	facts := []domain.ReportFact{}
	for rows.Next() {
		var f domain.ReportFact
		var typePrefix string
		if err := rows.Scan(&f.JournalCode, &typePrefix, &f.CreatedAt, &f.Value); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan report fact row", err)
		}
		f.TypePrefix = domain.TransactionType(typePrefix)
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating report fact rows", err)
	}
	return facts, nil
}

// scanFactRows drains a fact query into domain details.
func scanFactRows(rows pgx.Rows) ([]domain.JournalDetail, error) {
	modelFacts := []models.JournalDetail{}
	for rows.Next() {
		var m models.JournalDetail
		if err := rows.Scan(
			&m.DetailID,
			&m.JournalCode,
			&m.Key,
			&m.Value,
			&m.CreatedAt,
			&m.CreatedBy,
		); err != nil {
			return nil, err
		}
		modelFacts = append(modelFacts, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mapping.ToDomainJournalDetailSlice(modelFacts), nil
}
