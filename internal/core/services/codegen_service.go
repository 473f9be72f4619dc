package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tokosume/toko_backoffice_app/internal/apperrors"
	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
	portsrepo "github.com/tokosume/toko_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/tokosume/toko_backoffice_app/internal/core/ports/services"
)

const codeDateLayout = "20060102"

// codeGenService mints per-tenant, per-type, per-day sequential journal
// codes. Reading the current maximum and inserting the journal are separate
// steps; the unique (type_prefix, tenant_id, seq_date, seq) index in the
// store is what actually closes the race, with the encoder retrying the
// whole append on a reported duplicate.
type codeGenService struct {
	journalRepo portsrepo.JournalRepositoryFacade
	now         func() time.Time
}

// NewCodeGenService creates a code generator backed by the ledger store.
func NewCodeGenService(journalRepo portsrepo.JournalRepositoryFacade) portssvc.CodeGenerator {
	return &codeGenService{journalRepo: journalRepo, now: time.Now}
}

var _ portssvc.CodeGenerator = (*codeGenService)(nil)

func (g *codeGenService) GenerateCode(ctx context.Context, typePrefix domain.TransactionType, tenantID string) (string, int, time.Time, error) {
	if tenantID == "" {
		return "", 0, time.Time{}, fmt.Errorf("%w: tenant id is required", apperrors.ErrValidation)
	}
	if !typePrefix.Valid() {
		return "", 0, time.Time{}, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, typePrefix)
	}

	day := g.now().UTC().Truncate(24 * time.Hour)
	seq, err := g.journalRepo.NextSequence(ctx, typePrefix, tenantID, day)
	if err != nil {
		return "", 0, time.Time{}, fmt.Errorf("failed to read next sequence: %w", err)
	}

	code := fmt.Sprintf("%s-%s-%s-%04d", typePrefix, tenantID, day.Format(codeDateLayout), seq)
	return code, seq, day, nil
}
