// Package extraction turns free text (listing copy, auction sheets) into
// vehicle data through an external model. The model output is untrusted and
// is validated here before it may prefill any price or cost field.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrExtractionFailed wraps any failure of the external extractor
var ErrExtractionFailed = shared.NewDomainError("EXTRACTION_FAILED", "Vehicle data extraction failed")

// ErrExtractionUnavailable is returned when no extractor is configured
var ErrExtractionUnavailable = shared.NewDomainError("EXTRACTION_UNAVAILABLE", "Vehicle data extraction is not configured")

// RawCost is one cost line as returned by the model
type RawCost struct {
	Category    string `json:"category" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"max=200"`
}

// RawVehicle is the model output before validation
type RawVehicle struct {
	Make          string    `json:"make" validate:"required,max=60"`
	Model         string    `json:"model" validate:"required,max=60"`
	Trim          string    `json:"trim" validate:"max=100"`
	VIN           string    `json:"vin" validate:"omitempty,len=17,alphanum"`
	Year          int       `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	Mileage       int       `json:"mileage" validate:"gte=0,lte=2000000"`
	Color         string    `json:"color" validate:"max=40"`
	OriginCountry string    `json:"origin_country" validate:"omitempty,iso3166_1_alpha2"`
	Currency      string    `json:"currency" validate:"omitempty,iso4217"`
	PurchasePrice string    `json:"purchase_price"`
	SellingPrice  string    `json:"selling_price"`
	Costs         []RawCost `json:"costs" validate:"max=30,dive"`
}

// Extractor calls the external model
type Extractor interface {
	Extract(ctx context.Context, text string) (*RawVehicle, error)
}

// ExtractedCost is a validated cost suggestion
type ExtractedCost struct {
	Category    stock.CostCategory `json:"category"`
	Amount      decimal.Decimal    `json:"amount"`
	Description string             `json:"description,omitempty"`
}

// ExtractedVehicle is validated data ready to prefill a vehicle form
type ExtractedVehicle struct {
	Attributes       stock.VehicleAttributes `json:"attributes"`
	PurchasePrice    *decimal.Decimal        `json:"purchase_price,omitempty"`
	SellingPrice     *decimal.Decimal        `json:"selling_price,omitempty"`
	Costs            []ExtractedCost         `json:"costs"`
	SuggestedBilling tax.BillingType         `json:"suggested_billing,omitempty"`
}

// Service validates extractor output
type Service struct {
	extractor Extractor
	validate  *validator.Validate
	logger    *zap.Logger
	maxInput  int
}

// NewService creates a new extraction service. extractor may be nil when AI is disabled.
func NewService(extractor Extractor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		extractor: extractor,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
		maxInput:  20000,
	}
}

// ExtractVehicle sends text to the extractor and validates the answer
func (s *Service) ExtractVehicle(ctx context.Context, text string) (*ExtractedVehicle, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, shared.NewValidationError("text", "Text to extract from is required")
	}
	if len(text) > s.maxInput {
		return nil, shared.NewValidationError("text", fmt.Sprintf("Text exceeds %d characters", s.maxInput))
	}
	if s.extractor == nil {
		return nil, ErrExtractionUnavailable
	}

	raw, err := s.extractor.Extract(ctx, text)
	if err != nil {
		s.logger.Warn("vehicle extraction failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if raw == nil {
		return nil, ErrExtractionFailed
	}

	out, err := s.check(raw)
	if err != nil {
		s.logger.Info("vehicle extraction rejected", zap.Error(err))
		return nil, err
	}
	return out, nil
}

// check validates raw and converts it; any malformed amount rejects the whole result
func (s *Service) check(raw *RawVehicle) (*ExtractedVehicle, error) {
	raw.VIN = strings.ToUpper(strings.TrimSpace(raw.VIN))
	raw.OriginCountry = strings.ToUpper(strings.TrimSpace(raw.OriginCountry))
	raw.Currency = strings.ToUpper(strings.TrimSpace(raw.Currency))

	if err := s.validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return nil, shared.NewValidationError(f.Namespace(), "Extracted value failed "+f.Tag()+" check")
		}
		return nil, shared.NewValidationError("extraction", err.Error())
	}

	out := &ExtractedVehicle{
		Attributes: stock.VehicleAttributes{
			VIN:           raw.VIN,
			Make:          strings.TrimSpace(raw.Make),
			Model:         strings.TrimSpace(raw.Model),
			Trim:          strings.TrimSpace(raw.Trim),
			Year:          raw.Year,
			Mileage:       raw.Mileage,
			Color:         strings.TrimSpace(raw.Color),
			Currency:      raw.Currency,
			OriginCountry: raw.OriginCountry,
		},
		SuggestedBilling: tax.SuggestBillingType(raw.OriginCountry),
	}

	var err error
	if out.PurchasePrice, err = optionalAmount("purchase_price", raw.PurchasePrice); err != nil {
		return nil, err
	}
	if out.SellingPrice, err = optionalAmount("selling_price", raw.SellingPrice); err != nil {
		return nil, err
	}

	for i, c := range raw.Costs {
		category := stock.CostCategory(strings.ToLower(strings.TrimSpace(c.Category)))
		if !category.IsValid() {
			category = stock.CostCategoryOther
		}
		amount, err := stock.ParseAmount(fmt.Sprintf("costs[%d].amount", i), c.Amount)
		if err != nil {
			return nil, err
		}
		out.Costs = append(out.Costs, ExtractedCost{
			Category:    category,
			Amount:      amount,
			Description: strings.TrimSpace(c.Description),
		})
	}
	return out, nil
}

func optionalAmount(field, raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := stock.ParseAmount(field, raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
