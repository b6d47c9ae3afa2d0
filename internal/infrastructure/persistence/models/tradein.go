package models

import (
	"github.com/autodealer/backend/internal/domain/tradein"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeInModel links a sale vehicle to the vehicle taken in part-exchange.
// A sale vehicle carries at most one trade-in.
type TradeInModel struct {
	BaseModel
	SaleVehicleID    uuid.UUID       `gorm:"size:36;not null;uniqueIndex"`
	TradeInVehicleID uuid.UUID       `gorm:"size:36;not null"`
	ClientID         uuid.UUID       `gorm:"size:36;not null;index"`
	Value            decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Notes            string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TradeInModel) TableName() string {
	return "trade_ins"
}

// ToDomain converts the persistence model to a domain TradeIn
func (m *TradeInModel) ToDomain() *tradein.TradeIn {
	return &tradein.TradeIn{
		BaseEntity:       m.BaseModel.ToDomain(),
		SaleVehicleID:    m.SaleVehicleID,
		TradeInVehicleID: m.TradeInVehicleID,
		ClientID:         m.ClientID,
		Value:            m.Value,
		Notes:            m.Notes,
	}
}

// TradeInModelFromDomain creates a persistence model from a domain TradeIn
func TradeInModelFromDomain(t *tradein.TradeIn) *TradeInModel {
	m := &TradeInModel{
		SaleVehicleID:    t.SaleVehicleID,
		TradeInVehicleID: t.TradeInVehicleID,
		ClientID:         t.ClientID,
		Value:            t.Value,
		Notes:            t.Notes,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
