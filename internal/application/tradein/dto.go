package tradein

import (
	"time"

	stockapp "github.com/autodealer/backend/internal/application/stock"
	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/domain/tradein"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTradeInRequest records a vehicle taken in part-exchange against a sale
type CreateTradeInRequest struct {
	SaleVehicleID uuid.UUID             `json:"sale_vehicle_id" binding:"required"`
	ClientID      uuid.UUID             `json:"client_id" binding:"required"`
	Vehicle       stockapp.VehicleInput `json:"vehicle" binding:"required"`
	TradeInValue  stockapp.Amount       `json:"trade_in_value" binding:"required"`
	Notes         string                `json:"notes" binding:"max=1000"`
}

// TradeInResponse represents a recorded trade-in
type TradeInResponse struct {
	ID               uuid.UUID                 `json:"id"`
	SaleVehicleID    uuid.UUID                 `json:"sale_vehicle_id"`
	TradeInVehicleID uuid.UUID                 `json:"trade_in_vehicle_id"`
	ClientID         uuid.UUID                 `json:"client_id"`
	Value            decimal.Decimal           `json:"value"`
	Notes            string                    `json:"notes,omitempty"`
	Vehicle          *stockapp.VehicleResponse `json:"vehicle,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
}

// ToTradeInResponse converts a trade-in and, when known, its stock vehicle
func ToTradeInResponse(t *tradein.TradeIn, vehicle *stock.Vehicle) TradeInResponse {
	resp := TradeInResponse{
		ID:               t.ID,
		SaleVehicleID:    t.SaleVehicleID,
		TradeInVehicleID: t.TradeInVehicleID,
		ClientID:         t.ClientID,
		Value:            t.Value,
		Notes:            t.Notes,
		CreatedAt:        t.CreatedAt,
	}
	if vehicle != nil {
		v := stockapp.ToVehicleResponse(vehicle)
		resp.Vehicle = &v
	}
	return resp
}
