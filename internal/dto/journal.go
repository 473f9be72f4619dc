package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
)

// LineItemRequest is one structured transaction line. Callers may submit
// these instead of (or alongside) pre-flattened detail fields; they are
// flattened into the same indexed form before encoding.
type LineItemRequest struct {
	ProductUUID string           `json:"product_uuid" binding:"required"`
	UnitUUID    string           `json:"unit_uuid" binding:"required"`
	Qty         decimal.Decimal  `json:"qty"`
	Price       decimal.Decimal  `json:"price"`
	Subtotal    *decimal.Decimal `json:"subtotal,omitempty"`
}

// ToDomain converts the request line to a domain line item at position i.
func (r LineItemRequest) ToDomain(i int) domain.LineItem {
	return domain.LineItem{
		Index:     i,
		ProductID: r.ProductUUID,
		UnitID:    r.UnitUUID,
		Qty:       r.Qty,
		Price:     r.Price,
		Subtotal:  r.Subtotal,
	}
}

// CreateTransactionRequest is the payload for SALE/BUY/RT_SALE/RT_BUY.
// Details carries arbitrary caller fields persisted verbatim as facts
// (is_credit, grand_total, due_date, customer_name, supplier, invoice, ...).
type CreateTransactionRequest struct {
	Details map[string]any    `json:"details"`
	Items   []LineItemRequest `json:"items" binding:"omitempty,dive"`
}

// CreateDebtRequest is the payload for a global AR/AP entry.
type CreateDebtRequest struct {
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	DueDate      string          `json:"due_date" binding:"omitempty,dateonly"`
	Counterparty string          `json:"counterparty"`
	Details      map[string]any  `json:"details"`
}

// CreatePaymentRequest is the payload for PAY_AR/PAY_AP. The reference to the
// journal being paid is mandatory; the service rejects the request before any
// write when it is missing.
type CreatePaymentRequest struct {
	Amount               decimal.Decimal `json:"amount" binding:"required"`
	ReferenceJournalCode string          `json:"reference_journal_code"`
	PaymentMethod        string          `json:"payment_method"`
	Counterparty         string          `json:"counterparty"`
	Details              map[string]any  `json:"details"`
}

// StockAdjustmentRequest is one (product, unit) pair in a stock opname.
type StockAdjustmentRequest struct {
	ProductUUID string          `json:"product_uuid" binding:"required"`
	UnitUUID    string          `json:"unit_uuid" binding:"required"`
	OldQty      decimal.Decimal `json:"old_qty"`
	NewQty      decimal.Decimal `json:"new_qty"`
}

// AdjustStockRequest is the payload for a stock adjustment journal.
type AdjustStockRequest struct {
	Adjustments []StockAdjustmentRequest `json:"adjustments" binding:"required,min=1,dive"`
}

// ListJournalsParams holds pagination parameters for journal listings.
type ListJournalsParams struct {
	Limit     int
	NextToken *string
}

// FactResponse is one key/value fact in a response body.
type FactResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// JournalResponse is the API shape of a journal with its facts.
type JournalResponse struct {
	Code      string         `json:"code"`
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"createdAt"`
	CreatedBy string         `json:"createdBy"`
	Facts     []FactResponse `json:"facts,omitempty"`
}

// ListJournalsResponse is a page of journals plus the cursor for the next one.
type ListJournalsResponse struct {
	Journals  []JournalResponse `json:"journals"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToJournalResponse converts a domain journal (with details, if loaded) to
// its API shape.
func ToJournalResponse(j *domain.Journal) JournalResponse {
	resp := JournalResponse{
		Code:      j.Code,
		Type:      string(j.TypePrefix),
		CreatedAt: j.CreatedAt,
		CreatedBy: j.CreatedBy,
	}
	if len(j.Details) > 0 {
		resp.Facts = make([]FactResponse, len(j.Details))
		for i, d := range j.Details {
			resp.Facts[i] = FactResponse{Key: d.Key, Value: d.Value}
		}
	}
	return resp
}
