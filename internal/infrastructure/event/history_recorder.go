package event

import (
	"context"
	"fmt"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var _ shared.EventHandler = (*HistoryRecorder)(nil)

// HistoryRecorder appends every document lifecycle event to the audit trail
type HistoryRecorder struct {
	repo       document.HistoryRepository
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewHistoryRecorder creates a recorder writing through repo
func NewHistoryRecorder(repo document.HistoryRepository, serializer *EventSerializer, logger *zap.Logger) *HistoryRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryRecorder{repo: repo, serializer: serializer, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *HistoryRecorder) EventTypes() []string {
	return []string{
		document.EventTypeDocumentIssued,
		document.EventTypeDocumentFinalized,
		document.EventTypeDocumentCancelled,
		document.EventTypeDocumentVoided,
	}
}

// Handle implements shared.EventHandler
func (h *HistoryRecorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	if event.AggregateType() != document.AggregateTypeDocument || !h.serializer.IsRegistered(event.EventType()) {
		return nil
	}
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", event.EventType(), err)
	}

	entry := &document.HistoryEntry{
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		DocumentID: event.AggregateID(),
		Payload:    payload,
		OccurredAt: event.OccurredAt(),
	}
	if err := h.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	h.logger.Debug("Document event recorded",
		zap.String("event_type", entry.EventType),
		zap.String("document_id", entry.DocumentID.String()),
	)
	return nil
}
