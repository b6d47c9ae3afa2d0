package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a document by its (prefix, year, sequence) triple
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, number document.Number) (*document.Document, error) {
	var model models.DocumentModel
	err := r.db.WithContext(ctx).
		Where("prefix = ? AND year = ? AND sequence = ?", number.Prefix, number.Year, number.Sequence).
		First(&model).Error
	if err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds documents matching the filter
func (r *GormDocumentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]document.Document, error) {
	var docModels []models.DocumentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DocumentModel{}), filter)
	query = orderAndPage(query, filter, DocumentSortFields, "created_at")
	if err := query.Find(&docModels).Error; err != nil {
		return nil, err
	}

	docs := make([]document.Document, len(docModels))
	for i := range docModels {
		docs[i] = *docModels[i].ToDomain()
	}
	return docs, nil
}

// Count counts documents matching the filter
func (r *GormDocumentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.DocumentModel{}), filter).Count(&count).Error
	return count, err
}

// Create inserts a document. A taken (prefix, year, sequence) yields ErrDuplicateNumber.
func (r *GormDocumentRepository) Create(ctx context.Context, doc *document.Document) error {
	err := r.db.WithContext(ctx).Create(models.DocumentModelFromDomain(doc)).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %s", document.ErrDuplicateNumber, doc.DocumentNumber)
	}
	return err
}

// UpdateLifecycle persists status, lifecycle timestamps, cancellation reason and
// artifact key only. The statement never names a number, amount or snapshot column.
func (r *GormDocumentRepository) UpdateLifecycle(ctx context.Context, doc *document.Document) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("id = ? AND version = ?", doc.ID, doc.Version).
		Updates(map[string]any{
			"status":        doc.Status,
			"finalized_at":  doc.FinalizedAt,
			"cancelled_at":  doc.CancelledAt,
			"cancel_reason": doc.CancelReason,
			"artifact_key":  doc.ArtifactKey,
			"version":       doc.Version + 1,
			"updated_at":    now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	doc.IncrementVersion()
	doc.UpdatedAt = now
	return nil
}

// HasActiveForVehicle reports whether a finalized document references the vehicle
func (r *GormDocumentRepository) HasActiveForVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("vehicle_id = ? AND status = ? AND void = ?", vehicleID, document.StatusFinalized, false).
		Count(&count).Error
	return count > 0, err
}

// MaxSequence returns the highest stored sequence for (prefix, year), 0 if none.
// Used to seed external sequence backends.
func (r *GormDocumentRepository) MaxSequence(ctx context.Context, prefix string, year int) (int64, error) {
	var max *int64
	err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("prefix = ? AND year = ?", prefix, year).
		Select("MAX(sequence)").
		Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max, nil
}

func (r *GormDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(document_number) LIKE ?", likePattern(filter.Search))
	}
	for key, value := range filter.Filters {
		switch key {
		case "kind", "status", "prefix", "year", "vehicle_id", "client_id", "billing_type":
			query = query.Where(key+" = ?", value)
		case "void":
			query = query.Where("void = ?", value)
		case "issued_from":
			query = query.Where("created_at >= ?", value)
		case "issued_to":
			query = query.Where("created_at < ?", value)
		}
	}
	return query
}

var _ document.DocumentRepository = (*GormDocumentRepository)(nil)
