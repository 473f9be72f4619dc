package mapping

import (
	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
	"github.com/tokosume/toko_backoffice_app/internal/models"
)

// ToModelJournal converts a domain journal header to its database shape.
func ToModelJournal(j domain.Journal) models.Journal {
	return models.Journal{
		JournalID:     j.JournalID,
		Code:          j.Code,
		TypePrefix:    string(j.TypePrefix),
		TenantID:      j.TenantID,
		SeqDate:       j.SeqDate,
		Seq:           j.Sequence,
		CreatedAt:     j.CreatedAt,
		CreatedBy:     j.CreatedBy,
		LastUpdatedAt: j.LastUpdatedAt,
		LastUpdatedBy: j.LastUpdatedBy,
		DeletedAt:     j.DeletedAt,
		DeletedBy:     j.DeletedBy,
	}
}

// ToDomainJournal converts a database journal row to the domain shape.
func ToDomainJournal(m models.Journal) domain.Journal {
	return domain.Journal{
		JournalID:  m.JournalID,
		Code:       m.Code,
		TypePrefix: domain.TransactionType(m.TypePrefix),
		TenantID:   m.TenantID,
		SeqDate:    m.SeqDate,
		Sequence:   m.Seq,
		DeletedAt:  m.DeletedAt,
		DeletedBy:  m.DeletedBy,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// ToModelJournalDetail converts a domain fact to its database shape.
func ToModelJournalDetail(d domain.JournalDetail) models.JournalDetail {
	return models.JournalDetail{
		DetailID:    d.DetailID,
		JournalCode: d.JournalCode,
		Key:         d.Key,
		Value:       d.Value,
		CreatedAt:   d.CreatedAt,
		CreatedBy:   d.CreatedBy,
	}
}

// ToDomainJournalDetail converts a database fact row to the domain shape.
func ToDomainJournalDetail(m models.JournalDetail) domain.JournalDetail {
	return domain.JournalDetail{
		DetailID:    m.DetailID,
		JournalCode: m.JournalCode,
		Key:         m.Key,
		Value:       m.Value,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
	}
}

// ToDomainJournalDetailSlice converts a slice of fact rows.
func ToDomainJournalDetailSlice(ms []models.JournalDetail) []domain.JournalDetail {
	out := make([]domain.JournalDetail, len(ms))
	for i, m := range ms {
		out[i] = ToDomainJournalDetail(m)
	}
	return out
}
