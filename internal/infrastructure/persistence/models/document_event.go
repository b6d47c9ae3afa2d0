package models

import (
	"time"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/google/uuid"
)

// DocumentEventModel is the audit trail row of a document lifecycle event
type DocumentEventModel struct {
	ID         uuid.UUID `gorm:"size:36;primaryKey"`
	EventType  string    `gorm:"size:64;not null"`
	DocumentID uuid.UUID `gorm:"size:36;not null;index:idx_document_events_document"`
	Payload    string    `gorm:"type:text;not null"`
	OccurredAt time.Time `gorm:"not null;index:idx_document_events_document"`
}

// TableName returns the table name for GORM
func (DocumentEventModel) TableName() string {
	return "document_events"
}

// DocumentEventModelFromDomain converts a history entry to its row
func DocumentEventModelFromDomain(e *document.HistoryEntry) *DocumentEventModel {
	return &DocumentEventModel{
		ID:         e.EventID,
		EventType:  e.EventType,
		DocumentID: e.DocumentID,
		Payload:    string(e.Payload),
		OccurredAt: e.OccurredAt,
	}
}

// ToDomain converts the row to a history entry
func (m *DocumentEventModel) ToDomain() document.HistoryEntry {
	return document.HistoryEntry{
		EventID:    m.ID,
		EventType:  m.EventType,
		DocumentID: m.DocumentID,
		Payload:    []byte(m.Payload),
		OccurredAt: m.OccurredAt,
	}
}
