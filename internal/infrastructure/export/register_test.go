package export

import (
	"bytes"
	"testing"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newDoc(t *testing.T, seq int64) document.Document {
	t.Helper()
	engine := tax.NewEngine(tax.DefaultConfig())
	d, err := document.NewFinalized(document.IssueParams{
		Kind:            document.KindVATInvoice,
		Number:          document.Number{Prefix: "FV", Year: 2026, Sequence: seq},
		BillingType:     tax.BillingTypeVAT,
		Amounts:         document.AmountsFrom(engine.Compute(decimal.NewFromInt(30000), tax.BillingTypeVAT, decimal.Zero)),
		VehicleID:       uuid.New(),
		ClientID:        uuid.New(),
		VehicleSnapshot: &document.VehicleSnapshot{Brand: "Peugeot", Model: "308", VIN: "VF3TEST"},
		ClientSnapshot:  &document.ClientSnapshot{FirstName: "Léa", LastName: "Bernard"},
	})
	require.NoError(t, err)
	return *d
}

func TestRegisterExporter_Export(t *testing.T) {
	first := newDoc(t, 1)
	second := newDoc(t, 2)
	require.NoError(t, second.Cancel("erreur de saisie"))

	data, err := NewRegisterExporter().Export([]document.Document{first, second})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(registerSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Numéro", rows[0][0])
	assert.Equal(t, "FV-2026-00001", rows[1][0])
	assert.Equal(t, "finalized", rows[1][2])
	assert.Equal(t, "Léa Bernard", rows[1][5])
	assert.Equal(t, "FV-2026-00002", rows[2][0])
	assert.Equal(t, "cancelled", rows[2][2])
	assert.Equal(t, "erreur de saisie", rows[2][14])

	total, err := f.GetCellValue(registerSheet, "M2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "30350", total)
}

func TestRegisterExporter_Empty(t *testing.T) {
	data, err := NewRegisterExporter().Export(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(registerSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
