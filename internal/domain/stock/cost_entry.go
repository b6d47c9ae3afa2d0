package stock

import (
	"strings"
	"time"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostCategory classifies a cost entry
type CostCategory string

const (
	CostCategoryPurchase     CostCategory = "purchase"
	CostCategoryTransport    CostCategory = "transport"
	CostCategoryCustoms      CostCategory = "customs"
	CostCategoryHomologation CostCategory = "homologation"
	CostCategoryCO2Malus     CostCategory = "co2_malus"
	CostCategoryWorkshop     CostCategory = "workshop"
	CostCategoryDetailing    CostCategory = "detailing"
	CostCategoryParts        CostCategory = "parts"
	CostCategoryOther        CostCategory = "other"
)

// AllCostCategories lists every category in display order
func AllCostCategories() []CostCategory {
	return []CostCategory{
		CostCategoryPurchase,
		CostCategoryTransport,
		CostCategoryCustoms,
		CostCategoryHomologation,
		CostCategoryCO2Malus,
		CostCategoryWorkshop,
		CostCategoryDetailing,
		CostCategoryParts,
		CostCategoryOther,
	}
}

// IsValid checks if the category is known
func (c CostCategory) IsValid() bool {
	for _, known := range AllCostCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the string representation of CostCategory
func (c CostCategory) String() string {
	return string(c)
}

// CostEntry is a single line in a vehicle's cost ledger
type CostEntry struct {
	ID          uuid.UUID
	VehicleID   uuid.UUID
	Category    CostCategory
	Amount      decimal.Decimal
	Description string
	Supplier    string
	IncurredOn  time.Time
	CreatedAt   time.Time
}

// NewCostEntry creates a cost entry. Amount must be non-negative.
func NewCostEntry(category CostCategory, amount decimal.Decimal, description, supplier string, incurredOn time.Time) (*CostEntry, error) {
	if !category.IsValid() {
		return nil, shared.NewValidationError("category", "Unknown cost category: "+string(category))
	}
	if amount.IsNegative() {
		return nil, shared.NewValidationError("amount", "Cost amount cannot be negative")
	}
	now := time.Now()
	if incurredOn.IsZero() {
		incurredOn = now
	}
	return &CostEntry{
		ID:          uuid.New(),
		Category:    category,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		Supplier:    strings.TrimSpace(supplier),
		IncurredOn:  incurredOn,
		CreatedAt:   now,
	}, nil
}

// MaxAmount is the largest amount a ledger column (numeric(14,2)) holds
var MaxAmount = decimal.RequireFromString("999999999999.99")

// ParseAmount parses a user-supplied monetary amount.
// Non-numeric input is rejected rather than coerced to zero, and so are
// fractions of a cent and amounts the ledger columns cannot store.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	amount, err := parseNonNegative(field, raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, shared.NewValidationError(field, field+" cannot have more than 2 decimal places")
	}
	if err := CheckAmountRange(field, amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// CheckAmountRange rejects amounts above MaxAmount, including computed totals
func CheckAmountRange(field string, amount decimal.Decimal) error {
	if amount.GreaterThan(MaxAmount) {
		return shared.NewValidationError(field, field+" exceeds "+MaxAmount.StringFixed(2))
	}
	return nil
}

// ParseRate parses an exchange rate: positive, at most 6 decimal places
func ParseRate(field, raw string) (decimal.Decimal, error) {
	rate, err := parseNonNegative(field, raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() || !rate.Equal(rate.Round(6)) || rate.GreaterThanOrEqual(maxRate) {
		return decimal.Zero, shared.NewValidationError(field, field+" must be a positive rate with at most 6 decimal places")
	}
	return rate, nil
}

var maxRate = decimal.NewFromInt(1000000)

func parseNonNegative(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, shared.NewValidationError(field, field+" is required")
	}
	// accept the French decimal comma
	raw = strings.ReplaceAll(raw, ",", ".")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, shared.NewValidationError(field, field+" must be a number")
	}
	if amount.IsNegative() {
		return decimal.Zero, shared.NewValidationError(field, field+" cannot be negative")
	}
	return amount, nil
}

// ErrCostLocked is returned when removing a cost from a vehicle that already has an issued document
var ErrCostLocked = shared.NewDomainError("COST_LOCKED", "Cost entries are locked once a document has been issued for the vehicle")
