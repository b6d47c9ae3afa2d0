package document

import (
	"github.com/autodealer/backend/internal/domain/shared"
)

// AggregateTypeDocument is the aggregate type for documents
const AggregateTypeDocument = "Document"

// Event type constants
const (
	EventTypeDocumentIssued    = "DocumentIssued"
	EventTypeDocumentFinalized = "DocumentFinalized"
	EventTypeDocumentCancelled = "DocumentCancelled"
	EventTypeDocumentVoided    = "DocumentVoided"
)

// DocumentIssuedEvent is raised when a number is bound to a new document
type DocumentIssuedEvent struct {
	shared.BaseDomainEvent
	Kind           Kind   `json:"kind"`
	DocumentNumber string `json:"document_number"`
	Prefix         string `json:"prefix"`
	Year           int    `json:"year"`
	Sequence       int64  `json:"sequence"`
	TotalAmount    string `json:"total_amount"`
}

// NewDocumentIssuedEvent creates a new DocumentIssuedEvent
func NewDocumentIssuedEvent(d *Document) *DocumentIssuedEvent {
	return &DocumentIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentIssued, AggregateTypeDocument, d.ID),
		Kind:            d.Kind,
		DocumentNumber:  d.DocumentNumber,
		Prefix:          d.Number.Prefix,
		Year:            d.Number.Year,
		Sequence:        d.Number.Sequence,
		TotalAmount:     d.Amounts.TotalAmount.StringFixed(2),
	}
}

// DocumentFinalizedEvent is raised on draft -> finalized
type DocumentFinalizedEvent struct {
	shared.BaseDomainEvent
	DocumentNumber string `json:"document_number"`
}

// NewDocumentFinalizedEvent creates a new DocumentFinalizedEvent
func NewDocumentFinalizedEvent(d *Document) *DocumentFinalizedEvent {
	return &DocumentFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentFinalized, AggregateTypeDocument, d.ID),
		DocumentNumber:  d.DocumentNumber,
	}
}

// DocumentCancelledEvent is raised when a document is cancelled
type DocumentCancelledEvent struct {
	shared.BaseDomainEvent
	DocumentNumber string `json:"document_number"`
	PreviousStatus Status `json:"previous_status"`
	Reason         string `json:"reason"`
}

// NewDocumentCancelledEvent creates a new DocumentCancelledEvent
func NewDocumentCancelledEvent(d *Document, previous Status, reason string) *DocumentCancelledEvent {
	return &DocumentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCancelled, AggregateTypeDocument, d.ID),
		DocumentNumber:  d.DocumentNumber,
		PreviousStatus:  previous,
		Reason:          reason,
	}
}

// DocumentVoidedEvent is raised when a void record is written for a burned number
type DocumentVoidedEvent struct {
	shared.BaseDomainEvent
	DocumentNumber string `json:"document_number"`
	Reason         string `json:"reason"`
}

// NewDocumentVoidedEvent creates a new DocumentVoidedEvent
func NewDocumentVoidedEvent(d *Document, reason string) *DocumentVoidedEvent {
	return &DocumentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentVoided, AggregateTypeDocument, d.ID),
		DocumentNumber:  d.DocumentNumber,
		Reason:          reason,
	}
}
