package document

import (
	"context"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentRepository defines the interface for document persistence
type DocumentRepository interface {
	// FindByID finds a document by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// FindByNumber finds a document by its (prefix, year, sequence) triple
	FindByNumber(ctx context.Context, number Number) (*Document, error)

	// FindAll finds documents matching the filter.
	// Supported filter keys: kind, status, prefix, year, vehicle_id, client_id
	FindAll(ctx context.Context, filter shared.Filter) ([]Document, error)

	// Count counts documents matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create inserts a new document.
	// Returns ErrDuplicateNumber when the number is already held by another document.
	Create(ctx context.Context, doc *Document) error

	// UpdateLifecycle persists status, cancellation and artifact fields only.
	// Number, amounts and snapshots are never rewritten.
	UpdateLifecycle(ctx context.Context, doc *Document) error

	// HasActiveForVehicle reports whether a finalized, non-cancelled document references the vehicle
	HasActiveForVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error)
}
