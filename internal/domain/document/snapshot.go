package document

import (
	"github.com/autodealer/backend/internal/domain/partner"
	"github.com/autodealer/backend/internal/domain/stock"
)

// VehicleSnapshot is a copy of the vehicle fields at issuance time
type VehicleSnapshot struct {
	Brand             string `json:"brand"`
	Model             string `json:"model"`
	Trim              string `json:"trim"`
	VIN               string `json:"vin"`
	Year              int    `json:"year"`
	Mileage           int    `json:"mileage"`
	Color             string `json:"color"`
	RegistrationPlate string `json:"registrationPlate,omitempty"`
}

// ClientSnapshot is a copy of the client fields at issuance time
type ClientSnapshot struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
}

// FullName returns "First Last"
func (c ClientSnapshot) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}

// CompanySnapshot is the issuing dealership's identity at issuance time
type CompanySnapshot struct {
	Name       string `json:"name"`
	LegalID    string `json:"legalId"`
	VATNumber  string `json:"vatNumber"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// SnapshotVehicle copies the vehicle fields a document prints
func SnapshotVehicle(v *stock.Vehicle) *VehicleSnapshot {
	if v == nil {
		return nil
	}
	return &VehicleSnapshot{
		Brand:             v.Make,
		Model:             v.Model,
		Trim:              v.Trim,
		VIN:               v.VIN,
		Year:              v.Year,
		Mileage:           v.Mileage,
		Color:             v.Color,
		RegistrationPlate: v.RegistrationPlate,
	}
}

// SnapshotClient copies the client fields a document prints
func SnapshotClient(c *partner.Client) *ClientSnapshot {
	if c == nil {
		return nil
	}
	return &ClientSnapshot{
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		PostalCode: c.PostalCode,
		City:       c.City,
	}
}
