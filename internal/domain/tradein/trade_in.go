// Package tradein models vehicles accepted in part-exchange against a sale.
package tradein

import (
	"strings"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeIn links a sale vehicle, the vehicle taken in part-exchange and the client
type TradeIn struct {
	shared.BaseEntity
	SaleVehicleID    uuid.UUID
	TradeInVehicleID uuid.UUID
	ClientID         uuid.UUID
	Value            decimal.Decimal
	Notes            string
}

// NewTradeIn creates the link for a trade-in vehicle already built by stock.NewTradeInVehicle
func NewTradeIn(saleVehicleID uuid.UUID, tradeInVehicle *stock.Vehicle, clientID uuid.UUID, notes string) (*TradeIn, error) {
	if saleVehicleID == uuid.Nil {
		return nil, shared.NewValidationError("sale_vehicle_id", "Sale vehicle is required")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewValidationError("client_id", "Client is required")
	}
	if tradeInVehicle == nil {
		return nil, shared.NewValidationError("vehicle", "Trade-in vehicle is required")
	}
	if tradeInVehicle.ID == saleVehicleID {
		return nil, shared.NewValidationError("vehicle", "A vehicle cannot be traded in against itself")
	}
	return &TradeIn{
		BaseEntity:       shared.NewBaseEntity(),
		SaleVehicleID:    saleVehicleID,
		TradeInVehicleID: tradeInVehicle.ID,
		ClientID:         clientID,
		Value:            tradeInVehicle.PurchasePrice,
		Notes:            strings.TrimSpace(notes),
	}, nil
}

// ErrAlreadyRecorded is returned when the sale vehicle already has a trade-in
var ErrAlreadyRecorded = shared.NewDomainError("TRADE_IN_EXISTS", "A trade-in is already recorded for this sale vehicle")
