package persistence

import (
	"context"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ document.HistoryRepository = (*GormDocumentHistoryRepository)(nil)

// GormDocumentHistoryRepository implements document.HistoryRepository using GORM
type GormDocumentHistoryRepository struct {
	db *gorm.DB
}

// NewGormDocumentHistoryRepository creates a new GormDocumentHistoryRepository
func NewGormDocumentHistoryRepository(db *gorm.DB) *GormDocumentHistoryRepository {
	return &GormDocumentHistoryRepository{db: db}
}

// Append inserts the entry, ignoring a redelivered event id
func (r *GormDocumentHistoryRepository) Append(ctx context.Context, entry *document.HistoryEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.DocumentEventModelFromDomain(entry)).Error
}

// ListByDocument returns the entries of a document, oldest first
func (r *GormDocumentHistoryRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]document.HistoryEntry, error) {
	var rows []models.DocumentEventModel
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("occurred_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	entries := make([]document.HistoryEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}
