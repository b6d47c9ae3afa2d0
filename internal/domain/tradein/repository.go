package tradein

import (
	"context"

	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/google/uuid"
)

// TradeInRepository defines the interface for trade-in persistence
type TradeInRepository interface {
	// FindByID finds a trade-in by ID
	FindByID(ctx context.Context, id uuid.UUID) (*TradeIn, error)

	// FindBySaleVehicle finds the trade-in recorded against a sale vehicle
	FindBySaleVehicle(ctx context.Context, saleVehicleID uuid.UUID) (*TradeIn, error)

	// CreateWithVehicle inserts the stock vehicle and the trade-in link in one
	// transaction. Either both rows exist afterwards or neither does.
	CreateWithVehicle(ctx context.Context, vehicle *stock.Vehicle, tradeIn *TradeIn) error
}
