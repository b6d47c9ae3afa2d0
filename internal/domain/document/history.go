package document

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one recorded lifecycle event of a document.
// Entries are append-only; payload is the serialized domain event.
type HistoryEntry struct {
	EventID    uuid.UUID
	EventType  string
	DocumentID uuid.UUID
	Payload    []byte
	OccurredAt time.Time
}

// HistoryRepository stores the audit trail of documents
type HistoryRepository interface {
	// Append records an entry; appending the same EventID twice is a no-op
	Append(ctx context.Context, entry *HistoryEntry) error

	// ListByDocument returns the entries of a document, oldest first
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]HistoryEntry, error)
}
