package stock

import (
	"context"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VehicleRepository persists vehicles together with their cost ledger
type VehicleRepository interface {
	// FindByID finds a vehicle by ID with its cost entries loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// FindAll finds vehicles matching the filter, without cost entries
	FindAll(ctx context.Context, filter shared.Filter) ([]Vehicle, error)

	// Count counts vehicles matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create inserts a new vehicle and its cost entries
	Create(ctx context.Context, vehicle *Vehicle) error

	// SaveWithLock updates a vehicle and synchronizes its cost entries.
	// It fails with shared.ErrConcurrencyConflict when the stored version moved.
	SaveWithLock(ctx context.Context, vehicle *Vehicle) error
}
