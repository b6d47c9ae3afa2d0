package models

import (
	"time"

	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleModel is the persistence model for the Vehicle aggregate.
type VehicleModel struct {
	AggregateModel
	VIN               string              `gorm:"size:17;index"`
	Make              string              `gorm:"size:100;not null"`
	Model             string              `gorm:"size:100;not null"`
	Trim              string              `gorm:"size:100"`
	Year              int                 `gorm:"not null;default:0"`
	Mileage           int                 `gorm:"not null;default:0"`
	Color             string              `gorm:"size:50"`
	RegistrationPlate string              `gorm:"size:20;index"`
	PurchasePrice     decimal.Decimal     `gorm:"type:decimal(14,2);not null"`
	Currency          string              `gorm:"size:3;not null;default:'EUR'"`
	ExchangeRate      decimal.Decimal     `gorm:"type:decimal(12,6);not null;default:1"`
	OriginCountry     string              `gorm:"size:64"`
	SellingPrice      decimal.Decimal     `gorm:"type:decimal(14,2);not null;default:0"`
	Status            stock.VehicleStatus `gorm:"size:20;not null;index"`
	Costs             []CostEntryModel    `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (VehicleModel) TableName() string {
	return "vehicles"
}

// ToDomain converts the persistence model to a domain Vehicle, including loaded costs
func (m *VehicleModel) ToDomain() *stock.Vehicle {
	v := &stock.Vehicle{
		BaseAggregateRoot: m.ToAggregateRoot(),
		VIN:               m.VIN,
		Make:              m.Make,
		Model:             m.Model,
		Trim:              m.Trim,
		Year:              m.Year,
		Mileage:           m.Mileage,
		Color:             m.Color,
		RegistrationPlate: m.RegistrationPlate,
		PurchasePrice:     m.PurchasePrice,
		Currency:          m.Currency,
		ExchangeRate:      m.ExchangeRate,
		OriginCountry:     m.OriginCountry,
		SellingPrice:      m.SellingPrice,
		Status:            m.Status,
		Costs:             make([]stock.CostEntry, len(m.Costs)),
	}
	for i := range m.Costs {
		v.Costs[i] = m.Costs[i].ToDomain()
	}
	return v
}

// VehicleModelFromDomain creates a persistence model from a domain Vehicle without its costs
func VehicleModelFromDomain(v *stock.Vehicle) *VehicleModel {
	m := &VehicleModel{
		VIN:               v.VIN,
		Make:              v.Make,
		Model:             v.Model,
		Trim:              v.Trim,
		Year:              v.Year,
		Mileage:           v.Mileage,
		Color:             v.Color,
		RegistrationPlate: v.RegistrationPlate,
		PurchasePrice:     v.PurchasePrice,
		Currency:          v.Currency,
		ExchangeRate:      v.ExchangeRate,
		OriginCountry:     v.OriginCountry,
		SellingPrice:      v.SellingPrice,
		Status:            v.Status,
	}
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	return m
}

// CostEntryModel is one row of a vehicle's cost ledger. Rows are insert-only.
type CostEntryModel struct {
	ID          uuid.UUID          `gorm:"size:36;primaryKey"`
	VehicleID   uuid.UUID          `gorm:"size:36;not null;index"`
	Category    stock.CostCategory `gorm:"size:20;not null"`
	Amount      decimal.Decimal    `gorm:"type:decimal(14,2);not null"`
	Description string             `gorm:"size:255"`
	Supplier    string             `gorm:"size:200"`
	IncurredOn  time.Time          `gorm:"not null"`
	CreatedAt   time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CostEntryModel) TableName() string {
	return "cost_entries"
}

// ToDomain converts the persistence model to a domain CostEntry
func (m *CostEntryModel) ToDomain() stock.CostEntry {
	return stock.CostEntry{
		ID:          m.ID,
		VehicleID:   m.VehicleID,
		Category:    m.Category,
		Amount:      m.Amount,
		Description: m.Description,
		Supplier:    m.Supplier,
		IncurredOn:  m.IncurredOn,
		CreatedAt:   m.CreatedAt,
	}
}

// CostEntryModelFromDomain creates a persistence model from a domain CostEntry
func CostEntryModelFromDomain(c *stock.CostEntry) *CostEntryModel {
	return &CostEntryModel{
		ID:          c.ID,
		VehicleID:   c.VehicleID,
		Category:    c.Category,
		Amount:      c.Amount,
		Description: c.Description,
		Supplier:    c.Supplier,
		IncurredOn:  c.IncurredOn,
		CreatedAt:   c.CreatedAt,
	}
}
