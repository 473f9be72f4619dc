package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokosume/toko_backoffice_app/internal/apperrors"
	"github.com/tokosume/toko_backoffice_app/internal/cache"
	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
	portsrepo "github.com/tokosume/toko_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/tokosume/toko_backoffice_app/internal/core/ports/services"
	"github.com/tokosume/toko_backoffice_app/internal/dto"
	"github.com/tokosume/toko_backoffice_app/internal/factcodec"
	"github.com/tokosume/toko_backoffice_app/internal/middleware"
	"github.com/tokosume/toko_backoffice_app/internal/utils/flatfields"
)

var (
	ErrTenantRequired    = errors.New("tenant id is required")
	ErrReferenceRequired = errors.New("reference_journal_code is required")
	ErrNoStockChanges    = errors.New("stock adjustment has no quantity changes")
)

// maxFactLen caps both fact keys and fact values, matching the column width.
const maxFactLen = 500

const defaultAppendRetries = 3

// journalService is the transaction encoder: it turns typed business events
// into a journal header plus a batch of immutable facts and appends them
// atomically, retrying the whole append when the minted code collides.
type journalService struct {
	journalRepo portsrepo.JournalRepositoryFacade
	codeGen     portssvc.CodeGenerator
	codec       *factcodec.Codec
	stockCache  cache.StockCache
	maxRetries  int
}

// NewJournalService creates the transaction encoder.
func NewJournalService(journalRepo portsrepo.JournalRepositoryFacade, codeGen portssvc.CodeGenerator, codec *factcodec.Codec, stockCache cache.StockCache, maxRetries int) portssvc.JournalSvcFacade {
	if maxRetries <= 0 {
		maxRetries = defaultAppendRetries
	}
	return &journalService{
		journalRepo: journalRepo,
		codeGen:     codeGen,
		codec:       codec,
		stockCache:  stockCache,
		maxRetries:  maxRetries,
	}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// fact is one key/value pair pending append, before audit stamping.
type fact struct {
	key   string
	value string
}

func (s *journalService) CreateSale(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error) {
	return s.createItemized(ctx, domain.TypeSale, tenantID, req, actorID)
}

func (s *journalService) CreateBuy(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error) {
	return s.createItemized(ctx, domain.TypeBuy, tenantID, req, actorID)
}

func (s *journalService) CreateSaleReturn(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error) {
	return s.createItemized(ctx, domain.TypeSaleReturn, tenantID, req, actorID)
}

func (s *journalService) CreateBuyReturn(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error) {
	return s.createItemized(ctx, domain.TypeBuyReturn, tenantID, req, actorID)
}

// createItemized encodes the four line-item transaction types. Caller fields
// are persisted verbatim; reconstructed line items add one stock and one
// nominal fact each, with per-type sign/prefix rules; credit sales/purchases
// add a receivable/payable fact for the grand total.
func (s *journalService) createItemized(ctx context.Context, txnType domain.TransactionType, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrTenantRequired)
	}

	flat, err := normalizeDetails(req.Details)
	if err != nil {
		return nil, err
	}
	if len(req.Items) > 0 {
		items := make([]domain.LineItem, len(req.Items))
		for i, it := range req.Items {
			items[i] = it.ToDomain(i)
		}
		for k, v := range flatfields.Flatten(items) {
			flat[k] = v
		}
	}

	facts := orderedFacts(flat)
	stockPrefix, nominalPrefix, ok := factcodec.PrefixesFor(string(txnType))
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a line-item transaction type", apperrors.ErrValidation, txnType)
	}

	for _, item := range flatfields.Reconstruct(flat) {
		if !item.Valid() {
			continue
		}
		facts = append(facts,
			fact{factcodec.PairKey(stockPrefix, item.ProductID, item.UnitID), item.Qty.String()},
			fact{factcodec.PairKey(nominalPrefix, item.ProductID, item.UnitID), item.Total().String()},
		)
	}

	if isCredit(flat) && (txnType == domain.TypeSale || txnType == domain.TypeBuy) {
		grand, err := decimal.NewFromString(flat[factcodec.KeyGrandTotal])
		if err != nil || !grand.IsPositive() {
			return nil, fmt.Errorf("%w: credit transactions require a positive grand_total", apperrors.ErrValidation)
		}
		key := factcodec.KeyNominalAR
		if txnType == domain.TypeBuy {
			key = factcodec.KeyNominalAP
		}
		facts = append(facts, fact{key, grand.String()})
	}

	if err := s.validateFacts(facts); err != nil {
		return nil, err
	}
	return s.appendWithRetry(ctx, txnType, tenantID, actorID, facts)
}

func (s *journalService) CreateAR(ctx context.Context, tenantID string, req dto.CreateDebtRequest, actorID string) (*domain.Journal, error) {
	return s.createDebt(ctx, domain.TypeAR, tenantID, req, actorID)
}

func (s *journalService) CreateAP(ctx context.Context, tenantID string, req dto.CreateDebtRequest, actorID string) (*domain.Journal, error) {
	return s.createDebt(ctx, domain.TypeAP, tenantID, req, actorID)
}

// createDebt encodes a global receivable/payable. A non-positive amount still
// records the journal and the caller's fields but no balance fact.
func (s *journalService) createDebt(ctx context.Context, txnType domain.TransactionType, tenantID string, req dto.CreateDebtRequest, actorID string) (*domain.Journal, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrTenantRequired)
	}

	flat, err := normalizeDetails(req.Details)
	if err != nil {
		return nil, err
	}
	flat[factcodec.KeyAmount] = req.Amount.String()
	if req.DueDate != "" {
		flat[factcodec.KeyDueDate] = req.DueDate
	}
	if req.Counterparty != "" {
		flat[counterpartyKey(txnType)] = req.Counterparty
	}

	facts := orderedFacts(flat)
	if req.Amount.IsPositive() {
		key := factcodec.KeyNominalARGlobal
		if txnType == domain.TypeAP {
			key = factcodec.KeyNominalAPGlobal
		}
		facts = append(facts, fact{key, req.Amount.String()})
	}

	if err := s.validateFacts(facts); err != nil {
		return nil, err
	}
	return s.appendWithRetry(ctx, txnType, tenantID, actorID, facts)
}

func (s *journalService) CreateARPayment(ctx context.Context, tenantID string, req dto.CreatePaymentRequest, actorID string) (*domain.Journal, error) {
	return s.createPayment(ctx, domain.TypePayAR, tenantID, req, actorID)
}

func (s *journalService) CreateAPPayment(ctx context.Context, tenantID string, req dto.CreatePaymentRequest, actorID string) (*domain.Journal, error) {
	return s.createPayment(ctx, domain.TypePayAP, tenantID, req, actorID)
}

// createPayment encodes a debt payment. Rejections happen before any code is
// minted, so a failed payment persists neither journal nor facts.
func (s *journalService) createPayment(ctx context.Context, txnType domain.TransactionType, tenantID string, req dto.CreatePaymentRequest, actorID string) (*domain.Journal, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrTenantRequired)
	}
	if req.ReferenceJournalCode == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrReferenceRequired)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}

	flat, err := normalizeDetails(req.Details)
	if err != nil {
		return nil, err
	}
	flat[factcodec.KeyAmount] = req.Amount.String()
	flat[factcodec.KeyReferenceJournal] = req.ReferenceJournalCode
	if req.PaymentMethod != "" {
		flat[factcodec.KeyPaymentMethod] = req.PaymentMethod
	}
	if req.Counterparty != "" {
		flat[counterpartyKey(txnType)] = req.Counterparty
	}

	facts := orderedFacts(flat)
	key := factcodec.KeyNominalARPaid
	if txnType == domain.TypePayAP {
		key = factcodec.KeyNominalAPPaid
	}
	facts = append(facts, fact{key, req.Amount.String()})

	if err := s.validateFacts(facts); err != nil {
		return nil, err
	}
	return s.appendWithRetry(ctx, txnType, tenantID, actorID, facts)
}

// adjustMeta is the audit payload stored alongside each adjustment delta.
type adjustMeta struct {
	Diff string `json:"diff"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// AdjustStock records a stock opname as signed delta facts plus audit
// metadata. Pairs whose counted quantity equals the old one are skipped
// silently; an adjustment with no effective change is rejected outright.
func (s *journalService) AdjustStock(ctx context.Context, tenantID string, req dto.AdjustStockRequest, actorID string) (*domain.Journal, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrTenantRequired)
	}

	var facts []fact
	for _, a := range req.Adjustments {
		adj := domain.StockAdjustment{
			ProductID: a.ProductUUID,
			UnitID:    a.UnitUUID,
			OldQty:    a.OldQty,
			NewQty:    a.NewQty,
		}
		diff := adj.Diff()
		if diff.IsZero() {
			continue
		}
		prefix := factcodec.PrefixStockPlus
		if diff.IsNegative() {
			prefix = factcodec.PrefixStockMin
		}
		meta, err := json.Marshal(adjustMeta{
			Diff: diff.String(),
			Old:  adj.OldQty.String(),
			New:  adj.NewQty.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode adjustment metadata: %w", err)
		}
		facts = append(facts,
			fact{factcodec.PairKey(prefix, adj.ProductID, adj.UnitID), diff.Abs().String()},
			fact{factcodec.PairKey(factcodec.PrefixAdjustMeta, adj.ProductID, adj.UnitID), string(meta)},
		)
	}
	if len(facts) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrNoStockChanges)
	}

	if err := s.validateFacts(facts); err != nil {
		return nil, err
	}
	return s.appendWithRetry(ctx, domain.TypeAdjustment, tenantID, actorID, facts)
}

// appendWithRetry mints a code, stamps the facts and appends everything in
// one store transaction. A duplicate-code report restarts the loop with a
// fresh sequence; after maxRetries the conflict is surfaced to the caller as
// retryable.
func (s *journalService) appendWithRetry(ctx context.Context, txnType domain.TransactionType, tenantID, actorID string, facts []fact) (*domain.Journal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		code, seq, day, err := s.codeGen.GenerateCode(ctx, txnType, tenantID)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		journal := domain.Journal{
			JournalID:  uuid.NewString(),
			Code:       code,
			TypePrefix: txnType,
			TenantID:   tenantID,
			SeqDate:    day,
			Sequence:   seq,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorID,
			},
		}
		details := make([]domain.JournalDetail, len(facts))
		for i, f := range facts {
			details[i] = domain.JournalDetail{
				DetailID:    uuid.NewString(),
				JournalCode: code,
				Key:         f.key,
				Value:       f.value,
				CreatedAt:   now,
				CreatedBy:   actorID,
			}
		}

		err = s.journalRepo.AppendJournal(ctx, journal, details)
		if err == nil {
			if cerr := s.stockCache.Invalidate(ctx, tenantID); cerr != nil {
				logger.Warn("Failed to invalidate stock cache", slog.String("tenant_id", tenantID), slog.String("error", cerr.Error()))
			}
			logger.Info("Journal appended", slog.String("code", code), slog.String("type", string(txnType)), slog.Int("fact_count", len(details)))
			journal.Details = details
			return &journal, nil
		}
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Journal code collision, retrying append", slog.String("code", code), slog.Int("attempt", attempt))
			continue
		}
		return nil, fmt.Errorf("failed to append %s journal: %w", txnType, err)
	}

	return nil, fmt.Errorf("%w: could not allocate a unique %s code for tenant %s after %d attempts, retry the append", apperrors.ErrConflict, txnType, tenantID, s.maxRetries)
}

// FindByTypePrefix lists non-deleted journals of one type for a tenant,
// newest first, with their facts loaded.
func (s *journalService) FindByTypePrefix(ctx context.Context, tenantID string, typePrefix domain.TransactionType, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if tenantID == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrTenantRequired)
	}
	if !typePrefix.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, typePrefix)
	}

	journals, nextToken, err := s.journalRepo.ListJournalsByTypePrefix(ctx, tenantID, typePrefix, params.Limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list journals", slog.String("type", string(typePrefix)), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve journals: %w", err)
	}

	codes := make([]string, len(journals))
	for i, j := range journals {
		codes[i] = j.Code
	}
	factsMap, err := s.journalRepo.FindFactsByJournalCodes(ctx, codes)
	if err != nil {
		logger.Error("Failed to fetch facts for journals", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve journal facts: %w", err)
	}

	responses := make([]dto.JournalResponse, len(journals))
	for i := range journals {
		journals[i].Details = factsMap[journals[i].Code]
		responses[i] = dto.ToJournalResponse(&journals[i])
	}

	return &dto.ListJournalsResponse{Journals: responses, NextToken: nextToken}, nil
}

// SoftDeleteJournal hides a journal and, through query filters, all its facts
// from every listing and aggregation.
func (s *journalService) SoftDeleteJournal(ctx context.Context, tenantID, code, actorID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrTenantRequired)
	}
	if code == "" {
		return fmt.Errorf("%w: journal code is required", apperrors.ErrValidation)
	}
	if err := s.journalRepo.SoftDeleteJournal(ctx, tenantID, code, actorID, time.Now().UTC()); err != nil {
		return err
	}
	if cerr := s.stockCache.Invalidate(ctx, tenantID); cerr != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to invalidate stock cache", slog.String("tenant_id", tenantID), slog.String("error", cerr.Error()))
	}
	return nil
}

// RestoreJournal undoes a soft delete, making the journal and its facts
// visible again.
func (s *journalService) RestoreJournal(ctx context.Context, tenantID, code, actorID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrTenantRequired)
	}
	if code == "" {
		return fmt.Errorf("%w: journal code is required", apperrors.ErrValidation)
	}
	if err := s.journalRepo.RestoreJournal(ctx, tenantID, code, actorID, time.Now().UTC()); err != nil {
		return err
	}
	if cerr := s.stockCache.Invalidate(ctx, tenantID); cerr != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to invalidate stock cache", slog.String("tenant_id", tenantID), slog.String("error", cerr.Error()))
	}
	return nil
}

// counterpartyKey picks the fact key for a counterparty name: customers on
// the receivable side, suppliers on the payable side.
func counterpartyKey(txnType domain.TransactionType) string {
	switch txnType {
	case domain.TypeAP, domain.TypePayAP, domain.TypeBuy:
		return factcodec.KeySupplier
	default:
		return factcodec.KeyCustomerName
	}
}

func isCredit(flat map[string]string) bool {
	v, ok := flat[factcodec.KeyIsCredit]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// normalizeDetails serializes arbitrary caller fields to text: scalars
// verbatim, structured values as JSON.
func normalizeDetails(details map[string]any) (map[string]string, error) {
	flat := make(map[string]string, len(details))
	for k, v := range details {
		s, err := stringifyValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q cannot be serialized: %v", apperrors.ErrValidation, k, err)
		}
		flat[k] = s
	}
	return flat, nil
}

func stringifyValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case json.Number:
		return t.String(), nil
	case decimal.Decimal:
		return t.String(), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// orderedFacts turns the flat field map into a deterministic fact sequence.
func orderedFacts(flat map[string]string) []fact {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	facts := make([]fact, len(keys))
	for i, k := range keys {
		facts[i] = fact{k, flat[k]}
	}
	return facts
}

// validateFacts rejects the append before any write when a fact exceeds the
// column width, or when a key claims a registered stock/nominal form but its
// payload fails the codec parse. A verbatim caller field is only verbatim up
// to the reserved grammar; letting a malformed reserved fact through would
// poison every later aggregation over it.
func (s *journalService) validateFacts(facts []fact) error {
	for _, f := range facts {
		if len(f.key) > maxFactLen {
			return fmt.Errorf("%w: fact key %q exceeds %d characters", apperrors.ErrValidation, f.key[:32]+"...", maxFactLen)
		}
		if len(f.value) > maxFactLen {
			return fmt.Errorf("%w: value of fact %q exceeds %d characters", apperrors.ErrValidation, f.key, maxFactLen)
		}
		if _, err := s.codec.Decode(f.key, f.value); err != nil {
			return fmt.Errorf("%w: fact %q: %v", apperrors.ErrValidation, f.key, err)
		}
	}
	return nil
}
