package stock

import (
	"regexp"
	"strings"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleStatus represents where a vehicle is in the dealership lifecycle
type VehicleStatus string

const (
	VehicleStatusSourcing VehicleStatus = "sourcing"
	VehicleStatusInStock  VehicleStatus = "in_stock"
	VehicleStatusReserved VehicleStatus = "reserved"
	VehicleStatusSold     VehicleStatus = "sold"
)

// IsValid checks if the status is a valid VehicleStatus
func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleStatusSourcing, VehicleStatusInStock, VehicleStatusReserved, VehicleStatusSold:
		return true
	}
	return false
}

// String returns the string representation of VehicleStatus
func (s VehicleStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s VehicleStatus) CanTransitionTo(target VehicleStatus) bool {
	switch s {
	case VehicleStatusSourcing:
		return target == VehicleStatusInStock
	case VehicleStatusInStock:
		return target == VehicleStatusReserved || target == VehicleStatusSold
	case VehicleStatusReserved:
		return target == VehicleStatusInStock || target == VehicleStatusSold
	case VehicleStatusSold:
		return false
	}
	return false
}

// VehicleAttributes holds the descriptive and acquisition fields of a vehicle
type VehicleAttributes struct {
	VIN               string
	Make              string
	Model             string
	Trim              string
	Year              int
	Mileage           int
	Color             string
	RegistrationPlate string
	Currency          string
	ExchangeRate      decimal.Decimal
	OriginCountry     string
}

// Vehicle is the aggregate root for a stock vehicle and its cost ledger
type Vehicle struct {
	shared.BaseAggregateRoot
	VIN               string
	Make              string
	Model             string
	Trim              string
	Year              int
	Mileage           int
	Color             string
	RegistrationPlate string
	PurchasePrice     decimal.Decimal
	Currency          string
	ExchangeRate      decimal.Decimal
	OriginCountry     string
	SellingPrice      decimal.Decimal
	Status            VehicleStatus
	Costs             []CostEntry
}

// NewVehicle creates a vehicle in sourcing status
func NewVehicle(attrs VehicleAttributes, purchasePrice decimal.Decimal) (*Vehicle, error) {
	if strings.TrimSpace(attrs.Make) == "" {
		return nil, shared.NewValidationError("make", "Vehicle make cannot be empty")
	}
	if strings.TrimSpace(attrs.Model) == "" {
		return nil, shared.NewValidationError("model", "Vehicle model cannot be empty")
	}
	if purchasePrice.IsNegative() {
		return nil, shared.NewValidationError("purchase_price", "Purchase price cannot be negative")
	}
	if attrs.Year < 0 || attrs.Mileage < 0 {
		return nil, shared.NewValidationError("year", "Year and mileage cannot be negative")
	}

	currency := strings.ToUpper(strings.TrimSpace(attrs.Currency))
	if currency == "" {
		currency = "EUR"
	}
	rate := attrs.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	if rate.IsNegative() {
		return nil, shared.NewValidationError("exchange_rate", "Exchange rate must be positive")
	}

	return &Vehicle{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VIN:               strings.ToUpper(strings.TrimSpace(attrs.VIN)),
		Make:              strings.TrimSpace(attrs.Make),
		Model:             strings.TrimSpace(attrs.Model),
		Trim:              attrs.Trim,
		Year:              attrs.Year,
		Mileage:           attrs.Mileage,
		Color:             attrs.Color,
		RegistrationPlate: normalizePlate(attrs.RegistrationPlate),
		PurchasePrice:     purchasePrice,
		Currency:          currency,
		ExchangeRate:      rate,
		OriginCountry:     strings.ToUpper(strings.TrimSpace(attrs.OriginCountry)),
		SellingPrice:      decimal.Zero,
		Status:            VehicleStatusSourcing,
		Costs:             make([]CostEntry, 0),
	}, nil
}

// NewTradeInVehicle creates a vehicle accepted in part-exchange.
// It enters stock directly and its cost basis is the agreed trade-in value.
func NewTradeInVehicle(attrs VehicleAttributes, tradeInValue decimal.Decimal) (*Vehicle, error) {
	if !tradeInValue.IsPositive() {
		return nil, shared.NewValidationError("trade_in_value", "Trade-in value must be positive")
	}
	v, err := NewVehicle(attrs, tradeInValue)
	if err != nil {
		return nil, err
	}
	v.Status = VehicleStatusInStock
	return v, nil
}

// AddCost appends an entry to the cost ledger
func (v *Vehicle) AddCost(entry *CostEntry) error {
	if entry == nil {
		return shared.NewValidationError("cost", "Cost entry cannot be empty")
	}
	if v.Status == VehicleStatusSold {
		return shared.NewDomainError("INVALID_STATE", "Cannot add costs to a sold vehicle")
	}
	entry.VehicleID = v.ID
	v.Costs = append(v.Costs, *entry)
	v.Touch()
	return nil
}

// RemoveCost removes a cost entry by ID
func (v *Vehicle) RemoveCost(costID uuid.UUID) error {
	for i, c := range v.Costs {
		if c.ID == costID {
			v.Costs = append(v.Costs[:i], v.Costs[i+1:]...)
			v.Touch()
			return nil
		}
	}
	return shared.NewDomainError("COST_NOT_FOUND", "Cost entry not found on vehicle")
}

// SetSellingPrice updates the advertised selling price
func (v *Vehicle) SetSellingPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewValidationError("selling_price", "Selling price cannot be negative")
	}
	v.SellingPrice = price
	v.Touch()
	return nil
}

// SetRegistrationPlate records the plate once the vehicle is registered
func (v *Vehicle) SetRegistrationPlate(plate string) {
	v.RegistrationPlate = normalizePlate(plate)
	v.Touch()
}

// TransitionTo moves the vehicle to another lifecycle status
func (v *Vehicle) TransitionTo(target VehicleStatus) error {
	if !target.IsValid() {
		return shared.NewValidationError("status", "Invalid vehicle status")
	}
	if !v.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move vehicle from "+string(v.Status)+" to "+string(target))
	}
	v.Status = target
	v.Touch()
	return nil
}

// DisplayName returns "Make Model Trim"
func (v *Vehicle) DisplayName() string {
	return strings.TrimSpace(strings.Join([]string{v.Make, v.Model, v.Trim}, " "))
}

// HasRegistrationPlate reports whether a plate was recorded
func (v *Vehicle) HasRegistrationPlate() bool {
	return v.RegistrationPlate != ""
}

// CostEntryAt returns the cost entry with the given ID
func (v *Vehicle) CostEntryAt(costID uuid.UUID) (*CostEntry, bool) {
	for i := range v.Costs {
		if v.Costs[i].ID == costID {
			return &v.Costs[i], true
		}
	}
	return nil, false
}

// platePattern accepts current (AB-123-CD) and older (1234 AB 56) French plates
// as well as foreign plates made of letters, digits, spaces and dashes
var platePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 -]{1,18}[A-Za-z0-9]$`)

// ValidPlate reports whether plate looks like a registration plate
func ValidPlate(plate string) bool {
	return platePattern.MatchString(strings.TrimSpace(plate))
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
