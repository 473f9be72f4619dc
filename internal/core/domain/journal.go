package domain

import "time"

// TransactionType discriminates the business event a journal records.
// The type is baked into the journal code prefix and stored as an explicit
// column; aggregators filter on the column, never on the code string.
type TransactionType string

const (
	TypeSale       TransactionType = "SALE"
	TypeBuy        TransactionType = "BUY"
	TypeSaleReturn TransactionType = "RT_SALE"
	TypeBuyReturn  TransactionType = "RT_BUY"
	TypeAR         TransactionType = "AR"     // global receivable
	TypeAP         TransactionType = "AP"     // global payable
	TypePayAR      TransactionType = "PAY_AR" // receivable payment
	TypePayAP      TransactionType = "PAY_AP" // payable payment
	TypeAdjustment TransactionType = "ADJ"    // stock adjustment
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeSale, TypeBuy, TypeSaleReturn, TypeBuyReturn,
		TypeAR, TypeAP, TypePayAR, TypePayAP, TypeAdjustment:
		return true
	}
	return false
}

// Journal is the header of one atomic business transaction. It is created
// once together with its facts and never amended; corrections are new
// journals (e.g. RT_SALE reversing a SALE).
type Journal struct {
	JournalID  string          `json:"journalID"`
	Code       string          `json:"code"` // globally unique, human readable
	TypePrefix TransactionType `json:"type"`
	TenantID   string          `json:"tenantID"`
	SeqDate    time.Time       `json:"seqDate"`  // day component of the code
	Sequence   int             `json:"sequence"` // per (type, tenant, day) counter
	DeletedAt  *time.Time      `json:"deletedAt,omitempty"`
	DeletedBy  *string         `json:"deletedBy,omitempty"`
	AuditFields

	// Details are loaded on demand; nil means not fetched.
	Details []JournalDetail `json:"details,omitempty"`
}

// Deleted reports whether the journal is soft-deleted.
func (j *Journal) Deleted() bool {
	return j.DeletedAt != nil
}

// JournalDetail is one immutable key/value fact attached to a journal.
// Values are always text; the semantic type is carried by the key and
// recovered through the factcodec parser registry.
type JournalDetail struct {
	DetailID    string    `json:"detailID"`
	JournalCode string    `json:"journalCode"`
	Key         string    `json:"key"`   // <= 500 chars
	Value       string    `json:"value"` // <= 500 chars, always text
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
}

// ReportFact is a nominal fact joined with the owning journal's metadata,
// as needed by the report aggregator.
type ReportFact struct {
	JournalCode string
	TypePrefix  TransactionType
	CreatedAt   time.Time
	Value       string
}
