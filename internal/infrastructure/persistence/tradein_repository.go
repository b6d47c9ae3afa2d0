package persistence

import (
	"context"

	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/domain/tradein"
	"github.com/autodealer/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTradeInRepository implements TradeInRepository using GORM
type GormTradeInRepository struct {
	db *gorm.DB
}

// NewGormTradeInRepository creates a new GormTradeInRepository
func NewGormTradeInRepository(db *gorm.DB) *GormTradeInRepository {
	return &GormTradeInRepository{db: db}
}

// FindByID finds a trade-in by ID
func (r *GormTradeInRepository) FindByID(ctx context.Context, id uuid.UUID) (*tradein.TradeIn, error) {
	var model models.TradeInModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindBySaleVehicle finds the trade-in recorded against a sale vehicle
func (r *GormTradeInRepository) FindBySaleVehicle(ctx context.Context, saleVehicleID uuid.UUID) (*tradein.TradeIn, error) {
	var model models.TradeInModel
	if err := r.db.WithContext(ctx).First(&model, "sale_vehicle_id = ?", saleVehicleID).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// CreateWithVehicle stores the trade-in vehicle and its link in one transaction.
// A second trade-in for the same sale vehicle fails with ErrAlreadyRecorded.
func (r *GormTradeInRepository) CreateWithVehicle(ctx context.Context, vehicle *stock.Vehicle, tradeIn *tradein.TradeIn) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createVehicle(tx, vehicle); err != nil {
			return err
		}
		return tx.Create(models.TradeInModelFromDomain(tradeIn)).Error
	})
	if isDuplicateKey(err) {
		return tradein.ErrAlreadyRecorded
	}
	return err
}

var _ tradein.TradeInRepository = (*GormTradeInRepository)(nil)
