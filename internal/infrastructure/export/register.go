// Package export writes the document register as an XLSX workbook.
package export

import (
	"fmt"
	"time"

	documentapp "github.com/autodealer/backend/internal/application/document"
	"github.com/autodealer/backend/internal/domain/document"
	"github.com/xuri/excelize/v2"
)

const registerSheet = "Registre"

var registerHeaders = []string{
	"Numéro",
	"Type",
	"Statut",
	"Régime",
	"Date",
	"Client",
	"Véhicule",
	"VIN",
	"Prix de vente",
	"HT",
	"TVA",
	"Frais",
	"Total TTC",
	"Reprise",
	"Motif d'annulation",
}

// RegisterExporter writes one row per document, in the order given
type RegisterExporter struct{}

var _ documentapp.RegisterExporter = (*RegisterExporter)(nil)

// NewRegisterExporter creates a new RegisterExporter
func NewRegisterExporter() *RegisterExporter {
	return &RegisterExporter{}
}

// Export returns the XLSX bytes of the register
func (e *RegisterExporter) Export(docs []document.Document) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, err
	}

	headerStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	moneyStyle, err := file.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	for i, h := range registerHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(registerSheet, cell, h); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(registerHeaders), 1)
	_ = file.SetCellStyle(registerSheet, "A1", last, headerStyle)

	for i := range docs {
		row := i + 2
		if err := writeRow(file, row, &docs[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
	}
	if len(docs) > 0 {
		_ = file.SetCellStyle(registerSheet, "I2", fmt.Sprintf("N%d", len(docs)+1), moneyStyle)
	}

	_ = file.SetColWidth(registerSheet, "A", "A", 18)
	_ = file.SetColWidth(registerSheet, "B", "D", 14)
	_ = file.SetColWidth(registerSheet, "F", "H", 26)
	_ = file.SetColWidth(registerSheet, "I", "N", 14)
	_ = file.SetColWidth(registerSheet, "O", "O", 32)
	_ = file.SetPanes(registerSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(file *excelize.File, row int, d *document.Document) error {
	client, vehicle, vin := "", "", ""
	if d.ClientSnapshot != nil {
		client = d.ClientSnapshot.FullName()
	}
	if d.VehicleSnapshot != nil {
		vehicle = d.VehicleSnapshot.Brand + " " + d.VehicleSnapshot.Model
		vin = d.VehicleSnapshot.VIN
	}

	values := []any{
		d.DocumentNumber,
		string(d.Kind),
		statusLabel(d),
		string(d.BillingType),
		issuedOn(d),
		client,
		vehicle,
		vin,
	}
	if d.Kind.CarriesAmounts() {
		a := d.Amounts
		values = append(values,
			a.SalePrice.InexactFloat64(),
			a.PriceExclTax.InexactFloat64(),
			a.VATAmount.InexactFloat64(),
			a.HandlingFee.InexactFloat64(),
			a.TotalAmount.InexactFloat64(),
			a.TradeInDeduction.InexactFloat64(),
		)
	} else {
		values = append(values, nil, nil, nil, nil, nil, nil)
	}
	values = append(values, d.CancelReason)

	cell, _ := excelize.CoordinatesToCellName(1, row)
	return file.SetSheetRow(registerSheet, cell, &values)
}

func statusLabel(d *document.Document) string {
	if d.Void {
		return "void"
	}
	return string(d.Status)
}

func issuedOn(d *document.Document) string {
	t := d.CreatedAt
	if d.FinalizedAt != nil {
		t = *d.FinalizedAt
	}
	return t.In(time.Local).Format("2006-01-02")
}
