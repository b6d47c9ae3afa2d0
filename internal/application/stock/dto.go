package stock

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amount is a monetary input accepted either as a JSON number or a string.
// The raw text is kept so stock.ParseAmount can reject malformed values
// instead of silently turning them into zero.
type Amount string

// UnmarshalJSON accepts 1234.5, "1234.50" and "1234,50"
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(raw)
	return nil
}

// IsSet reports whether a value was supplied
func (a Amount) IsSet() bool {
	return strings.TrimSpace(string(a)) != ""
}

// Parse validates the amount for field
func (a Amount) Parse(field string) (decimal.Decimal, error) {
	return stock.ParseAmount(field, string(a))
}

// VehicleInput holds the descriptive fields of a vehicle.
// It is shared by vehicle creation and trade-in recording.
type VehicleInput struct {
	VIN               string `json:"vin" binding:"omitempty,len=17,alphanum"`
	Make              string `json:"make" binding:"required,max=60"`
	Model             string `json:"model" binding:"required,max=60"`
	Trim              string `json:"trim" binding:"max=100"`
	Year              int    `json:"year" binding:"omitempty,gte=1900,lte=2100"`
	Mileage           int    `json:"mileage" binding:"gte=0"`
	Color             string `json:"color" binding:"max=40"`
	RegistrationPlate string `json:"registration_plate" binding:"omitempty,max=20,plate"`
	Currency          string `json:"currency" binding:"omitempty,len=3"`
	ExchangeRate      Amount `json:"exchange_rate"`
	OriginCountry     string `json:"origin_country" binding:"omitempty,max=20"`
}

// Attributes converts the input into domain attributes
func (in VehicleInput) Attributes() (stock.VehicleAttributes, error) {
	attrs := stock.VehicleAttributes{
		VIN:               in.VIN,
		Make:              in.Make,
		Model:             in.Model,
		Trim:              in.Trim,
		Year:              in.Year,
		Mileage:           in.Mileage,
		Color:             in.Color,
		RegistrationPlate: in.RegistrationPlate,
		Currency:          in.Currency,
		OriginCountry:     in.OriginCountry,
	}
	if in.ExchangeRate.IsSet() {
		rate, err := stock.ParseRate("exchange_rate", string(in.ExchangeRate))
		if err != nil {
			return stock.VehicleAttributes{}, err
		}
		attrs.ExchangeRate = rate
	}
	return attrs, nil
}

// CreateVehicleRequest represents a request to register a vehicle in stock
type CreateVehicleRequest struct {
	VehicleInput
	PurchasePrice Amount           `json:"purchase_price" binding:"required"`
	SellingPrice  Amount           `json:"selling_price"`
	InStock       bool             `json:"in_stock"`
	Costs         []AddCostRequest `json:"costs" binding:"max=50,dive"`
}

// UpdateVehicleRequest represents a partial update of a vehicle.
// Descriptive fields are fixed once the vehicle exists; documents snapshot them.
type UpdateVehicleRequest struct {
	SellingPrice      *Amount `json:"selling_price"`
	RegistrationPlate *string `json:"registration_plate" binding:"omitempty,max=20,plate"`
	Status            *string `json:"status" binding:"omitempty,oneof=sourcing in_stock reserved sold"`
}

// AddCostRequest represents a new cost line on a vehicle
type AddCostRequest struct {
	Category    string `json:"category" binding:"required"`
	Amount      Amount `json:"amount" binding:"required"`
	Description string `json:"description" binding:"max=200"`
	Supplier    string `json:"supplier" binding:"max=120"`
	IncurredOn  string `json:"incurred_on" binding:"omitempty,datetime=2006-01-02"`
}

// toEntry validates the request and builds the domain entry
func (r AddCostRequest) toEntry() (*stock.CostEntry, error) {
	amount, err := r.Amount.Parse("amount")
	if err != nil {
		return nil, err
	}
	var incurredOn time.Time
	if r.IncurredOn != "" {
		incurredOn, err = time.Parse(time.DateOnly, r.IncurredOn)
		if err != nil {
			return nil, err
		}
	}
	category := stock.CostCategory(strings.ToLower(strings.TrimSpace(r.Category)))
	return stock.NewCostEntry(category, amount, r.Description, r.Supplier, incurredOn)
}

// VehicleListFilter represents filter options for the vehicle list
type VehicleListFilter struct {
	Search        string `form:"search"`
	Status        string `form:"status" binding:"omitempty,oneof=sourcing in_stock reserved sold"`
	Make          string `form:"make"`
	OriginCountry string `form:"origin_country"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CostEntryResponse represents one cost line in API responses
type CostEntryResponse struct {
	ID          uuid.UUID       `json:"id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Supplier    string          `json:"supplier,omitempty"`
	IncurredOn  string          `json:"incurred_on"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CategoryShareResponse is one slice of the cost breakdown
type CategoryShareResponse struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Percent  decimal.Decimal `json:"percent"`
}

// CostSummaryResponse is the cost basis and margin of a vehicle
type CostSummaryResponse struct {
	VehicleID     uuid.UUID               `json:"vehicle_id"`
	PurchasePrice decimal.Decimal         `json:"purchase_price"`
	TotalCosts    decimal.Decimal         `json:"total_costs"`
	PRU           decimal.Decimal         `json:"pru"`
	SellingPrice  decimal.Decimal         `json:"selling_price"`
	Margin        decimal.Decimal         `json:"margin"`
	MarginPercent decimal.Decimal         `json:"margin_percent"`
	Priced        bool                    `json:"priced"`
	Breakdown     []CategoryShareResponse `json:"breakdown"`
}

// VehicleResponse represents a vehicle with its cost ledger
type VehicleResponse struct {
	ID                uuid.UUID           `json:"id"`
	VIN               string              `json:"vin"`
	Make              string              `json:"make"`
	Model             string              `json:"model"`
	Trim              string              `json:"trim"`
	Year              int                 `json:"year"`
	Mileage           int                 `json:"mileage"`
	Color             string              `json:"color"`
	RegistrationPlate string              `json:"registration_plate"`
	PurchasePrice     decimal.Decimal     `json:"purchase_price"`
	Currency          string              `json:"currency"`
	ExchangeRate      decimal.Decimal     `json:"exchange_rate"`
	OriginCountry     string              `json:"origin_country"`
	SellingPrice      decimal.Decimal     `json:"selling_price"`
	Status            string              `json:"status"`
	Costs             []CostEntryResponse `json:"costs"`
	Summary           CostSummaryResponse `json:"summary"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Version           int                 `json:"version"`
}

// VehicleListResponse represents a vehicle in list responses
type VehicleListResponse struct {
	ID                uuid.UUID       `json:"id"`
	VIN               string          `json:"vin"`
	Make              string          `json:"make"`
	Model             string          `json:"model"`
	Year              int             `json:"year"`
	RegistrationPlate string          `json:"registration_plate"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
}

// BillingSuggestionResponse is the suggested VAT regime for a vehicle
type BillingSuggestionResponse struct {
	VehicleID     uuid.UUID       `json:"vehicle_id"`
	OriginCountry string          `json:"origin_country"`
	EUOrigin      bool            `json:"eu_origin"`
	BillingType   tax.BillingType `json:"billing_type"`
}

// ToCostSummaryResponse converts a computed summary
func ToCostSummaryResponse(vehicleID uuid.UUID, s stock.CostSummary) CostSummaryResponse {
	breakdown := make([]CategoryShareResponse, len(s.Breakdown))
	for i, share := range s.Breakdown {
		breakdown[i] = CategoryShareResponse{
			Category: string(share.Category),
			Amount:   share.Amount,
			Percent:  share.Percent,
		}
	}
	return CostSummaryResponse{
		VehicleID:     vehicleID,
		PurchasePrice: s.PurchasePrice,
		TotalCosts:    s.TotalCosts,
		PRU:           s.PRU,
		SellingPrice:  s.SellingPrice,
		Margin:        s.Margin,
		MarginPercent: s.MarginPercent.Round(2),
		Priced:        s.Priced,
		Breakdown:     breakdown,
	}
}

// ToVehicleResponse converts a domain Vehicle to VehicleResponse
func ToVehicleResponse(v *stock.Vehicle) VehicleResponse {
	costs := make([]CostEntryResponse, len(v.Costs))
	for i, c := range v.Costs {
		costs[i] = CostEntryResponse{
			ID:          c.ID,
			Category:    string(c.Category),
			Amount:      c.Amount,
			Description: c.Description,
			Supplier:    c.Supplier,
			IncurredOn:  c.IncurredOn.Format(time.DateOnly),
			CreatedAt:   c.CreatedAt,
		}
	}
	return VehicleResponse{
		ID:                v.ID,
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
		Status:            string(v.Status),
		Costs:             costs,
		Summary:           ToCostSummaryResponse(v.ID, stock.Summarize(v)),
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
		Version:           v.Version,
	}
}

// ToVehicleListResponses converts a slice of vehicles for list responses
func ToVehicleListResponses(vehicles []stock.Vehicle) []VehicleListResponse {
	out := make([]VehicleListResponse, len(vehicles))
	for i := range vehicles {
		v := &vehicles[i]
		out[i] = VehicleListResponse{
			ID:                v.ID,
			VIN:               v.VIN,
			Make:              v.Make,
			Model:             v.Model,
			Year:              v.Year,
			RegistrationPlate: v.RegistrationPlate,
			PurchasePrice:     v.PurchasePrice,
			SellingPrice:      v.SellingPrice,
			Status:            string(v.Status),
			CreatedAt:         v.CreatedAt,
		}
	}
	return out
}
