package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/domain/partner"
	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/autodealer/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDatabase opens a migrated sqlite database in a temp directory
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "ledger.db") + "?_busy_timeout=5000",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestGorm(t *testing.T) *gorm.DB {
	t.Helper()
	return newTestDatabase(t).DB
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedClock(year int) document.Clock {
	return func() time.Time {
		return time.Date(year, time.March, 14, 10, 0, 0, 0, time.UTC)
	}
}

func newStoredVehicle(t *testing.T, db *gorm.DB) *stock.Vehicle {
	t.Helper()
	v, err := stock.NewVehicle(stock.VehicleAttributes{
		VIN:           "WVWZZZ1JZXW000001",
		Make:          "Volkswagen",
		Model:         "Golf",
		Year:          2021,
		Mileage:       42000,
		OriginCountry: "DE",
	}, d("30000"))
	require.NoError(t, err)
	require.NoError(t, NewGormVehicleRepository(db).Create(t.Context(), v))
	return v
}

func newStoredClient(t *testing.T, db *gorm.DB) *partner.Client {
	t.Helper()
	c, err := partner.NewClient(partner.ClientDetails{FirstName: "Jeanne", LastName: "Martin", City: "Lyon"})
	require.NoError(t, err)
	require.NoError(t, NewGormClientRepository(db).Save(t.Context(), c))
	return c
}

func newInvoice(t *testing.T, v *stock.Vehicle, c *partner.Client, seq int64) *document.Document {
	t.Helper()
	comp := tax.NewEngine(tax.DefaultConfig()).Compute(d("30000"), tax.BillingTypeVAT, decimal.Zero)
	doc, err := document.NewFinalized(document.IssueParams{
		Kind:            document.KindVATInvoice,
		Number:          document.Number{Prefix: document.PrefixVATInvoice, Year: 2025, Sequence: seq},
		Padding:         document.DefaultPadding,
		BillingType:     tax.BillingTypeVAT,
		Amounts:         document.AmountsFrom(comp),
		VehicleID:       v.ID,
		ClientID:        c.ID,
		VehicleSnapshot: document.SnapshotVehicle(v),
		ClientSnapshot:  document.SnapshotClient(c),
		CompanySnapshot: &document.CompanySnapshot{Name: "Garage Test"},
	})
	require.NoError(t, err)
	return doc
}

func newID() uuid.UUID { return uuid.New() }
