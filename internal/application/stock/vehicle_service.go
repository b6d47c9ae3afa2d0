package stock

import (
	"context"
	"errors"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxSaveAttempts bounds re-reads after an optimistic lock conflict on a vehicle
const maxSaveAttempts = 3

// IssuedDocuments tells whether documents were issued for a vehicle
type IssuedDocuments interface {
	HasActiveForVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error)
}

// VehicleService handles stock vehicles and their cost ledger
type VehicleService struct {
	vehicleRepo         stock.VehicleRepository
	documents           IssuedDocuments
	lockCostsAfterIssue bool
	logger              *zap.Logger
}

// NewVehicleService creates a new VehicleService.
// When lockCostsAfterIssue is set, cost entries cannot be removed once an
// active document references the vehicle.
func NewVehicleService(
	vehicleRepo stock.VehicleRepository,
	documents IssuedDocuments,
	lockCostsAfterIssue bool,
	logger *zap.Logger,
) *VehicleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleService{
		vehicleRepo:         vehicleRepo,
		documents:           documents,
		lockCostsAfterIssue: lockCostsAfterIssue,
		logger:              logger,
	}
}

// Create registers a vehicle with its initial cost lines
func (s *VehicleService) Create(ctx context.Context, req CreateVehicleRequest) (*VehicleResponse, error) {
	vehicle, err := buildVehicle(req)
	if err != nil {
		return nil, err
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, err
	}
	s.logger.Info("vehicle registered",
		zap.String("vehicle_id", vehicle.ID.String()),
		zap.String("vehicle", vehicle.DisplayName()),
		zap.Int("cost_entries", len(vehicle.Costs)),
	)

	response := ToVehicleResponse(vehicle)
	return &response, nil
}

// buildVehicle validates req and assembles the aggregate without saving it
func buildVehicle(req CreateVehicleRequest) (*stock.Vehicle, error) {
	attrs, err := req.Attributes()
	if err != nil {
		return nil, err
	}
	purchasePrice, err := req.PurchasePrice.Parse("purchase_price")
	if err != nil {
		return nil, err
	}

	vehicle, err := stock.NewVehicle(attrs, purchasePrice)
	if err != nil {
		return nil, err
	}
	if req.SellingPrice.IsSet() {
		price, err := req.SellingPrice.Parse("selling_price")
		if err != nil {
			return nil, err
		}
		if err := vehicle.SetSellingPrice(price); err != nil {
			return nil, err
		}
	}
	for _, c := range req.Costs {
		entry, err := c.toEntry()
		if err != nil {
			return nil, err
		}
		if err := vehicle.AddCost(entry); err != nil {
			return nil, err
		}
	}
	if req.InStock {
		if err := vehicle.TransitionTo(stock.VehicleStatusInStock); err != nil {
			return nil, err
		}
	}
	return vehicle, nil
}

// GetByID retrieves a vehicle with its costs and cost summary
func (s *VehicleService) GetByID(ctx context.Context, id uuid.UUID) (*VehicleResponse, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToVehicleResponse(vehicle)
	return &response, nil
}

// List retrieves vehicles with filtering and pagination
func (s *VehicleService) List(ctx context.Context, filter VehicleListFilter) ([]VehicleListResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Make != "" {
		domainFilter.Filters["make"] = filter.Make
	}
	if filter.OriginCountry != "" {
		domainFilter.Filters["origin_country"] = filter.OriginCountry
	}

	vehicles, err := s.vehicleRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.vehicleRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToVehicleListResponses(vehicles), total, nil
}

// Update changes the selling price, registration plate or status of a vehicle
func (s *VehicleService) Update(ctx context.Context, id uuid.UUID, req UpdateVehicleRequest) (*VehicleResponse, error) {
	var price *Amount
	if req.SellingPrice != nil && req.SellingPrice.IsSet() {
		price = req.SellingPrice
	}
	vehicle, err := s.mutate(ctx, id, func(v *stock.Vehicle) error {
		if price != nil {
			p, err := price.Parse("selling_price")
			if err != nil {
				return err
			}
			if err := v.SetSellingPrice(p); err != nil {
				return err
			}
		}
		if req.RegistrationPlate != nil {
			v.SetRegistrationPlate(*req.RegistrationPlate)
		}
		if req.Status != nil && stock.VehicleStatus(*req.Status) != v.Status {
			return v.TransitionTo(stock.VehicleStatus(*req.Status))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	response := ToVehicleResponse(vehicle)
	return &response, nil
}

// AddCost appends a cost line and returns the updated vehicle
func (s *VehicleService) AddCost(ctx context.Context, vehicleID uuid.UUID, req AddCostRequest) (*VehicleResponse, error) {
	entry, err := req.toEntry()
	if err != nil {
		return nil, err
	}
	vehicle, err := s.mutate(ctx, vehicleID, func(v *stock.Vehicle) error {
		added := *entry
		return v.AddCost(&added)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("cost entry added",
		zap.String("vehicle_id", vehicleID.String()),
		zap.String("cost_id", entry.ID.String()),
		zap.String("category", string(entry.Category)),
		zap.String("amount", entry.Amount.String()),
	)
	response := ToVehicleResponse(vehicle)
	return &response, nil
}

// DeleteCost removes a cost line. Documents already issued keep their frozen totals.
func (s *VehicleService) DeleteCost(ctx context.Context, vehicleID, costID uuid.UUID) (*VehicleResponse, error) {
	if s.lockCostsAfterIssue && s.documents != nil {
		issued, err := s.documents.HasActiveForVehicle(ctx, vehicleID)
		if err != nil {
			return nil, err
		}
		if issued {
			return nil, stock.ErrCostLocked
		}
	}
	vehicle, err := s.mutate(ctx, vehicleID, func(v *stock.Vehicle) error {
		return v.RemoveCost(costID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("cost entry removed",
		zap.String("vehicle_id", vehicleID.String()),
		zap.String("cost_id", costID.String()),
	)
	response := ToVehicleResponse(vehicle)
	return &response, nil
}

// CostSummary returns the PRU, margin and category breakdown of a vehicle
func (s *VehicleService) CostSummary(ctx context.Context, vehicleID uuid.UUID) (*CostSummaryResponse, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	response := ToCostSummaryResponse(vehicle.ID, stock.Summarize(vehicle))
	return &response, nil
}

// SuggestBilling suggests a VAT regime from the vehicle's origin country.
// The suggestion is advisory; documents accept either regime.
func (s *VehicleService) SuggestBilling(ctx context.Context, vehicleID uuid.UUID) (*BillingSuggestionResponse, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return &BillingSuggestionResponse{
		VehicleID:     vehicle.ID,
		OriginCountry: vehicle.OriginCountry,
		EUOrigin:      tax.IsEUCountry(vehicle.OriginCountry),
		BillingType:   tax.SuggestBillingType(vehicle.OriginCountry),
	}, nil
}

// mutate loads a vehicle, applies fn and saves it under its version.
// A concurrent writer forces a reload so fn always runs on fresh state.
func (s *VehicleService) mutate(ctx context.Context, id uuid.UUID, fn func(*stock.Vehicle) error) (*stock.Vehicle, error) {
	for attempt := 1; ; attempt++ {
		vehicle, err := s.vehicleRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(vehicle); err != nil {
			return nil, err
		}
		err = s.vehicleRepo.SaveWithLock(ctx, vehicle)
		if err == nil {
			return vehicle, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= maxSaveAttempts {
			return nil, err
		}
		s.logger.Debug("vehicle version moved, retrying",
			zap.String("vehicle_id", id.String()),
			zap.Int("attempt", attempt),
		)
	}
}
