package persistence

import (
	"context"
	"time"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVehicleRepository implements VehicleRepository using GORM
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

func preloadCosts(db *gorm.DB) *gorm.DB {
	return db.Order("incurred_on ASC, created_at ASC")
}

// FindByID finds a vehicle by ID together with its cost entries
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Vehicle, error) {
	var model models.VehicleModel
	err := r.db.WithContext(ctx).
		Preload("Costs", preloadCosts).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds vehicles matching the filter.
// Supported filter keys: status, make, origin_country
func (r *GormVehicleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]stock.Vehicle, error) {
	var vehicleModels []models.VehicleModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.VehicleModel{}), filter)
	query = orderAndPage(query, filter, VehicleSortFields, "created_at")

	if err := query.Preload("Costs", preloadCosts).Find(&vehicleModels).Error; err != nil {
		return nil, err
	}

	vehicles := make([]stock.Vehicle, len(vehicleModels))
	for i := range vehicleModels {
		vehicles[i] = *vehicleModels[i].ToDomain()
	}
	return vehicles, nil
}

// Count counts vehicles matching the filter
func (r *GormVehicleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.VehicleModel{}), filter).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of vehicles in each lifecycle status
func (r *GormVehicleRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.VehicleModel{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// Create inserts a new vehicle and any cost entries it already carries
func (r *GormVehicleRepository) Create(ctx context.Context, vehicle *stock.Vehicle) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createVehicle(tx, vehicle)
	})
}

func createVehicle(tx *gorm.DB, vehicle *stock.Vehicle) error {
	if err := tx.Omit(clause.Associations).Create(models.VehicleModelFromDomain(vehicle)).Error; err != nil {
		return err
	}
	for i := range vehicle.Costs {
		if err := tx.Create(models.CostEntryModelFromDomain(&vehicle.Costs[i])).Error; err != nil {
			return err
		}
	}
	return nil
}

// SaveWithLock updates the vehicle if its stored version still matches and
// synchronises the cost ledger: entries removed from the aggregate are deleted,
// new ones inserted. Cost rows themselves are never updated.
// On success the aggregate's version is incremented.
func (r *GormVehicleRepository) SaveWithLock(ctx context.Context, vehicle *stock.Vehicle) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.VehicleModelFromDomain(vehicle)
		model.Version = vehicle.Version + 1
		model.UpdatedAt = time.Now()

		result := tx.Model(&models.VehicleModel{}).
			Where("id = ? AND version = ?", vehicle.ID, vehicle.Version).
			Select("*").
			Omit("id", "created_at", clause.Associations).
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		keep := make([]uuid.UUID, 0, len(vehicle.Costs))
		for i := range vehicle.Costs {
			keep = append(keep, vehicle.Costs[i].ID)
		}
		del := tx.Where("vehicle_id = ?", vehicle.ID)
		if len(keep) > 0 {
			del = del.Where("id NOT IN ?", keep)
		}
		if err := del.Delete(&models.CostEntryModel{}).Error; err != nil {
			return err
		}

		for i := range vehicle.Costs {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(models.CostEntryModelFromDomain(&vehicle.Costs[i])).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	vehicle.IncrementVersion()
	return nil
}

func (r *GormVehicleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(make) LIKE ? OR LOWER(model) LIKE ? OR LOWER(vin) LIKE ? OR LOWER(registration_plate) LIKE ?",
			p, p, p, p)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "make":
			query = query.Where("make = ?", value)
		case "origin_country":
			query = query.Where("origin_country = ?", value)
		}
	}
	return query
}

var _ stock.VehicleRepository = (*GormVehicleRepository)(nil)
