// Package tradein records vehicles accepted in part-exchange. The stock
// vehicle and its trade-in link are created together or not at all.
package tradein

import (
	"context"
	"errors"

	"github.com/autodealer/backend/internal/domain/partner"
	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/domain/tradein"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles trade-in recording
type Service struct {
	tradeInRepo tradein.TradeInRepository
	vehicleRepo stock.VehicleRepository
	clientRepo  partner.ClientRepository
	logger      *zap.Logger
}

// NewService creates a new trade-in Service
func NewService(
	tradeInRepo tradein.TradeInRepository,
	vehicleRepo stock.VehicleRepository,
	clientRepo partner.ClientRepository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tradeInRepo: tradeInRepo,
		vehicleRepo: vehicleRepo,
		clientRepo:  clientRepo,
		logger:      logger,
	}
}

// Create records a trade-in: a new in-stock vehicle priced at the trade-in
// value plus its link to the sale vehicle and client.
func (s *Service) Create(ctx context.Context, req CreateTradeInRequest) (*TradeInResponse, error) {
	attrs, err := req.Vehicle.Attributes()
	if err != nil {
		return nil, err
	}
	value, err := req.TradeInValue.Parse("trade_in_value")
	if err != nil {
		return nil, err
	}

	if _, err := s.vehicleRepo.FindByID(ctx, req.SaleVehicleID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("sale_vehicle_id", "Sale vehicle not found")
		}
		return nil, err
	}
	if _, err := s.clientRepo.FindByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("client_id", "Client not found")
		}
		return nil, err
	}
	// the unique index still decides under concurrency; this gives the common case a clean answer
	existing, err := s.tradeInRepo.FindBySaleVehicle(ctx, req.SaleVehicleID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, tradein.ErrAlreadyRecorded
	}

	vehicle, err := stock.NewTradeInVehicle(attrs, value)
	if err != nil {
		return nil, err
	}
	link, err := tradein.NewTradeIn(req.SaleVehicleID, vehicle, req.ClientID, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.tradeInRepo.CreateWithVehicle(ctx, vehicle, link); err != nil {
		return nil, err
	}

	s.logger.Info("trade-in recorded",
		zap.String("trade_in_id", link.ID.String()),
		zap.String("sale_vehicle_id", link.SaleVehicleID.String()),
		zap.String("trade_in_vehicle_id", vehicle.ID.String()),
		zap.String("value", value.String()),
	)
	response := ToTradeInResponse(link, vehicle)
	return &response, nil
}

// GetByID retrieves a trade-in with its stock vehicle
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*TradeInResponse, error) {
	link, err := s.tradeInRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicleRepo.FindByID(ctx, link.TradeInVehicleID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	response := ToTradeInResponse(link, vehicle)
	return &response, nil
}
