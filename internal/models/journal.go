package models

import "time"

// Journal is the database shape of a journal header row.
type Journal struct {
	JournalID     string     `json:"journalID"`
	Code          string     `json:"code"`
	TypePrefix    string     `json:"typePrefix"`
	TenantID      string     `json:"tenantID"`
	SeqDate       time.Time  `json:"seqDate"`
	Seq           int        `json:"seq"`
	CreatedAt     time.Time  `json:"createdAt"`
	CreatedBy     string     `json:"createdBy"`
	LastUpdatedAt time.Time  `json:"lastUpdatedAt"`
	LastUpdatedBy string     `json:"lastUpdatedBy"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
	DeletedBy     *string    `json:"deletedBy,omitempty"`
}

// JournalDetail is the database shape of one fact row. Rows are write-once;
// there are no update columns.
type JournalDetail struct {
	DetailID    string    `json:"detailID"`
	JournalCode string    `json:"journalCode"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
}
