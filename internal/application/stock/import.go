package stock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/stock"
	csvimport "github.com/autodealer/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxImportRows   = 1000
	maxImportErrors = 100
	costColumnPfx   = "cost_"
)

// requiredImportColumns must be present in every stock file
var requiredImportColumns = []string{"make", "model", "purchase_price"}

// importAliases lets the French column titles of the dealer spreadsheet through
var importAliases = map[string]string{
	"marque":            "make",
	"modele":            "model",
	"modèle":            "model",
	"finition":          "trim",
	"annee":             "year",
	"année":             "year",
	"kilometrage":       "mileage",
	"kilométrage":       "mileage",
	"km":                "mileage",
	"couleur":           "color",
	"immatriculation":   "registration_plate",
	"immat":             "registration_plate",
	"plate":             "registration_plate",
	"pays_origine":      "origin_country",
	"origine":           "origin_country",
	"devise":            "currency",
	"taux_change":       "exchange_rate",
	"prix_achat":        "purchase_price",
	"prix_vente":        "selling_price",
	"en_stock":          "in_stock",
	"frais_transport":   "cost_transport",
	"frais_douane":      "cost_customs",
	"frais_carte_grise": "cost_homologation",
	"malus":             "cost_co2_malus",
}

// ImportOptions controls a stock import
type ImportOptions struct {
	// DryRun validates every row and saves nothing
	DryRun bool
	// SkipInvalid saves the valid rows even when others fail.
	// Without it one bad row rejects the whole file.
	SkipInvalid bool
}

// ImportResult summarizes a stock import
type ImportResult struct {
	TotalRows  int                  `json:"total_rows"`
	ValidRows  int                  `json:"valid_rows"`
	ErrorRows  int                  `json:"error_rows"`
	Imported   int                  `json:"imported"`
	DryRun     bool                 `json:"dry_run"`
	VehicleIDs []uuid.UUID          `json:"vehicle_ids"`
	Errors     []csvimport.RowError `json:"errors"`
	Truncated  bool                 `json:"truncated,omitempty"`
	Encoding   string               `json:"encoding"`
}

type parsedRow struct {
	line    int
	vehicle *stock.Vehicle
}

// Import registers vehicles from a CSV stock file. Every row is validated
// before anything is saved.
func (s *VehicleService) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	parser, err := csvimport.NewCSVParser(r, csvimport.WithHeaderAliases(importAliases))
	if err != nil {
		return nil, importFileError(err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, importFileError(err)
	}
	if missing := parser.MissingHeaders(requiredImportColumns); len(missing) > 0 {
		return nil, shared.NewValidationError("file", "missing columns: "+strings.Join(missing, ", "))
	}
	rows, err := parser.ReadAllRows(maxImportRows)
	if err != nil {
		return nil, importFileError(err)
	}
	if len(rows) == 0 {
		return nil, importFileError(csvimport.ErrNoDataRows)
	}

	errs := csvimport.NewErrorCollection(maxImportErrors)
	valid := make([]parsedRow, 0, len(rows))
	seenVIN := make(map[string]int)
	for _, row := range rows {
		req, ok := requestFromRow(row, errs)
		if !ok {
			continue
		}
		if vin := strings.ToUpper(req.VIN); vin != "" {
			if first, dup := seenVIN[vin]; dup {
				errs.Add(csvimport.RowError{
					Row: row.LineNumber, Column: "vin", Code: csvimport.ErrCodeDuplicate,
					Message: fmt.Sprintf("VIN already used on row %d", first), Value: req.VIN,
				})
				continue
			}
			seenVIN[vin] = row.LineNumber
		}
		vehicle, err := buildVehicle(req)
		if err != nil {
			addRowFailure(errs, row, err)
			continue
		}
		valid = append(valid, parsedRow{line: row.LineNumber, vehicle: vehicle})
	}

	result := &ImportResult{
		TotalRows:  len(rows),
		ValidRows:  len(valid),
		DryRun:     opts.DryRun,
		VehicleIDs: make([]uuid.UUID, 0, len(valid)),
		Encoding:   parser.Encoding(),
	}

	if !opts.DryRun && (opts.SkipInvalid || errs.TotalCount() == 0) {
		for _, p := range valid {
			if err := s.vehicleRepo.Create(ctx, p.vehicle); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				errs.Add(csvimport.RowError{Row: p.line, Code: csvimport.ErrCodeRejected, Message: err.Error()})
				continue
			}
			result.VehicleIDs = append(result.VehicleIDs, p.vehicle.ID)
		}
		result.Imported = len(result.VehicleIDs)
	}

	result.Errors = errs.Errors()
	result.ErrorRows = errs.RowCount()
	result.Truncated = errs.IsTruncated()

	s.logger.Info("stock file imported",
		zap.Int("rows", result.TotalRows),
		zap.Int("valid", result.ValidRows),
		zap.Int("imported", result.Imported),
		zap.Int("errors", errs.TotalCount()),
		zap.Bool("dry_run", opts.DryRun),
		zap.String("encoding", result.Encoding),
	)
	return result, nil
}

// requestFromRow maps the cells onto a creation request. Cells that cannot
// be parsed are reported and the row is dropped.
func requestFromRow(row *csvimport.Row, errs *csvimport.ErrorCollection) (CreateVehicleRequest, bool) {
	line := row.LineNumber
	ok := true

	req := CreateVehicleRequest{
		VehicleInput: VehicleInput{
			VIN:               row.Get("vin"),
			Make:              row.Get("make"),
			Model:             row.Get("model"),
			Trim:              row.Get("trim"),
			Color:             row.Get("color"),
			RegistrationPlate: row.Get("registration_plate"),
			Currency:          strings.ToUpper(row.Get("currency")),
			OriginCountry:     strings.ToUpper(row.Get("origin_country")),
			ExchangeRate:      Amount(cleanAmount(row.Get("exchange_rate"))),
		},
		PurchasePrice: Amount(cleanAmount(row.Get("purchase_price"))),
		SellingPrice:  Amount(cleanAmount(row.Get("selling_price"))),
	}

	for _, col := range requiredImportColumns {
		if row.Get(col) == "" {
			errs.AddRequired(line, col)
			ok = false
		}
	}
	for col, dst := range map[string]*int{"year": &req.Year, "mileage": &req.Mileage} {
		raw := row.Get(col)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(stripSpaces(raw))
		if err != nil || n < 0 {
			errs.AddInvalid(line, col, col+" must be a whole number", raw)
			ok = false
			continue
		}
		*dst = n
	}
	if vin := req.VIN; vin != "" && !validVIN(vin) {
		errs.AddInvalid(line, "vin", "must be 17 letters or digits", vin)
		ok = false
	}
	if plate := req.RegistrationPlate; plate != "" && !stock.ValidPlate(plate) {
		errs.AddInvalid(line, "registration_plate", "must be a valid registration plate", plate)
		ok = false
	}
	if raw := row.Get("in_stock"); raw != "" {
		inStock, valid := parseYesNo(raw)
		if !valid {
			errs.AddInvalid(line, "in_stock", "must be yes or no", raw)
			ok = false
		}
		req.InStock = inStock
	}

	for _, category := range stock.AllCostCategories() {
		raw := row.Get(costColumnPfx + string(category))
		if raw == "" {
			continue
		}
		req.Costs = append(req.Costs, AddCostRequest{
			Category:    string(category),
			Amount:      Amount(cleanAmount(raw)),
			Description: "Imported from stock file",
		})
	}
	return req, ok
}

// addRowFailure reports a domain rejection against the offending column when known
func addRowFailure(errs *csvimport.ErrorCollection, row *csvimport.Row, err error) {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Field != "" {
		column := de.Field
		if column == "amount" {
			column = "costs"
		}
		errs.AddInvalid(row.LineNumber, column, de.Message, row.Get(column))
		return
	}
	errs.Add(csvimport.RowError{Row: row.LineNumber, Code: csvimport.ErrCodeRejected, Message: err.Error()})
}

func importFileError(err error) error {
	return shared.NewValidationError("file", err.Error())
}

// cleanAmount drops currency signs and thousands separators ("12 500,00 €")
func cleanAmount(raw string) string {
	return strings.TrimSuffix(strings.TrimPrefix(stripSpaces(raw), "€"), "€")
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)
}

func validVIN(vin string) bool {
	if len(vin) != 17 {
		return false
	}
	for _, r := range vin {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return false
		}
	}
	return true
}

func parseYesNo(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "x", "y", "yes", "o", "oui", "true", "vrai":
		return true, true
	case "0", "n", "no", "non", "false", "faux":
		return false, true
	}
	return false, false
}
