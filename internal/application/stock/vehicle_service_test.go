package stock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVehicleRepository is a mock implementation of stock.VehicleRepository
type MockVehicleRepository struct {
	mock.Mock
}

func (m *MockVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]stock.Vehicle, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *stock.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleRepository) SaveWithLock(ctx context.Context, vehicle *stock.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

// MockIssuedDocuments is a mock implementation of IssuedDocuments
type MockIssuedDocuments struct {
	mock.Mock
}

func (m *MockIssuedDocuments) HasActiveForVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	args := m.Called(ctx, vehicleID)
	return args.Bool(0), args.Error(1)
}

func newVehicle(t *testing.T, purchase int64, costs ...int64) *stock.Vehicle {
	t.Helper()
	v, err := stock.NewVehicle(stock.VehicleAttributes{Make: "Peugeot", Model: "3008", OriginCountry: "DE"}, decimal.NewFromInt(purchase))
	require.NoError(t, err)
	for _, c := range costs {
		entry, err := stock.NewCostEntry(stock.CostCategoryTransport, decimal.NewFromInt(c), "", "", v.CreatedAt)
		require.NoError(t, err)
		require.NoError(t, v.AddCost(entry))
	}
	return v
}

func TestAmount_UnmarshalJSON(t *testing.T) {
	var body struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
		D Amount `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 1250.5, "b": "980,40", "c": null, "d": "abc"}`), &body))

	a, err := body.A.Parse("a")
	require.NoError(t, err)
	assert.Equal(t, "1250.5", a.String())

	b, err := body.B.Parse("b")
	require.NoError(t, err)
	assert.Equal(t, "980.4", b.String())

	assert.False(t, body.C.IsSet())

	_, err = body.D.Parse("d")
	assert.True(t, shared.IsValidationError(err), "malformed amounts are rejected, never coerced")
}

func TestVehicleService_Create(t *testing.T) {
	t.Run("registers vehicle with costs in stock", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		svc := NewVehicleService(repo, nil, true, nil)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*stock.Vehicle")).Return(nil)

		resp, err := svc.Create(context.Background(), CreateVehicleRequest{
			VehicleInput:  VehicleInput{Make: "Renault", Model: "Clio", OriginCountry: "fr"},
			PurchasePrice: "9000",
			SellingPrice:  "12500",
			InStock:       true,
			Costs: []AddCostRequest{
				{Category: "Transport", Amount: "450"},
				{Category: "detailing", Amount: "150,50", IncurredOn: "2026-03-02"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "in_stock", resp.Status)
		assert.Len(t, resp.Costs, 2)
		assert.Equal(t, "2026-03-02", resp.Costs[1].IncurredOn)
		assert.Equal(t, "9600.5", resp.Summary.PRU.String())
		assert.True(t, resp.Summary.Priced)
		repo.AssertExpectations(t)
	})

	t.Run("rejects malformed purchase price before persisting", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		svc := NewVehicleService(repo, nil, true, nil)

		_, err := svc.Create(context.Background(), CreateVehicleRequest{
			VehicleInput:  VehicleInput{Make: "Renault", Model: "Clio"},
			PurchasePrice: "nine thousand",
		})

		assert.True(t, shared.IsValidationError(err))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects negative cost line", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		svc := NewVehicleService(repo, nil, true, nil)

		_, err := svc.Create(context.Background(), CreateVehicleRequest{
			VehicleInput:  VehicleInput{Make: "Renault", Model: "Clio"},
			PurchasePrice: "9000",
			Costs:         []AddCostRequest{{Category: "parts", Amount: "-20"}},
		})

		assert.True(t, shared.IsValidationError(err))
	})
}

func TestVehicleService_List(t *testing.T) {
	repo := new(MockVehicleRepository)
	svc := NewVehicleService(repo, nil, true, nil)
	v := newVehicle(t, 10000)

	matchFilter := mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2 && f.PageSize == 10 && f.Filters["status"] == "in_stock" && f.Search == "3008"
	})
	repo.On("FindAll", mock.Anything, matchFilter).Return([]stock.Vehicle{*v}, nil)
	repo.On("Count", mock.Anything, matchFilter).Return(int64(11), nil)

	items, total, err := svc.List(context.Background(), VehicleListFilter{Search: "3008", Status: "in_stock", Page: 2, PageSize: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, items, 1)
	assert.Equal(t, v.ID, items[0].ID)
}

func TestVehicleService_AddCost(t *testing.T) {
	t.Run("reloads and retries on a version conflict", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		svc := NewVehicleService(repo, nil, true, nil)
		stale := newVehicle(t, 10000, 300)
		fresh := newVehicle(t, 10000, 300, 200)
		fresh.ID = stale.ID

		repo.On("FindByID", mock.Anything, stale.ID).Return(stale, nil).Once()
		repo.On("FindByID", mock.Anything, stale.ID).Return(fresh, nil).Once()
		repo.On("SaveWithLock", mock.Anything, stale).Return(shared.ErrConcurrencyConflict).Once()
		repo.On("SaveWithLock", mock.Anything, fresh).Return(nil).Once()

		resp, err := svc.AddCost(context.Background(), stale.ID, AddCostRequest{Category: "workshop", Amount: "1000"})

		require.NoError(t, err)
		assert.Len(t, resp.Costs, 3, "entry lands on the reloaded ledger")
		assert.Equal(t, "11500", resp.Summary.PRU.String())
		repo.AssertExpectations(t)
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		svc := NewVehicleService(repo, nil, true, nil)
		v := newVehicle(t, 10000)

		repo.On("FindByID", mock.Anything, v.ID).Return(v, nil)
		repo.On("SaveWithLock", mock.Anything, v).Return(shared.ErrConcurrencyConflict)

		_, err := svc.AddCost(context.Background(), v.ID, AddCostRequest{Category: "parts", Amount: "10"})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		repo.AssertNumberOfCalls(t, "SaveWithLock", maxSaveAttempts)
	})

	t.Run("unknown category is a validation error", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		svc := NewVehicleService(repo, nil, true, nil)

		_, err := svc.AddCost(context.Background(), uuid.New(), AddCostRequest{Category: "insurance", Amount: "10"})

		assert.True(t, shared.IsValidationError(err))
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestVehicleService_DeleteCost(t *testing.T) {
	t.Run("blocked once an active document exists", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		docs := new(MockIssuedDocuments)
		svc := NewVehicleService(repo, docs, true, nil)
		v := newVehicle(t, 10000, 500)
		docs.On("HasActiveForVehicle", mock.Anything, v.ID).Return(true, nil)

		_, err := svc.DeleteCost(context.Background(), v.ID, v.Costs[0].ID)

		assert.ErrorIs(t, err, stock.ErrCostLocked)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("removes the entry and lowers the PRU", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		docs := new(MockIssuedDocuments)
		svc := NewVehicleService(repo, docs, true, nil)
		v := newVehicle(t, 10000, 500, 250)
		docs.On("HasActiveForVehicle", mock.Anything, v.ID).Return(false, nil)
		repo.On("FindByID", mock.Anything, v.ID).Return(v, nil)
		repo.On("SaveWithLock", mock.Anything, v).Return(nil)

		resp, err := svc.DeleteCost(context.Background(), v.ID, v.Costs[0].ID)

		require.NoError(t, err)
		assert.Equal(t, "10250", resp.Summary.PRU.String())
	})

	t.Run("lock disabled skips the document check", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		docs := new(MockIssuedDocuments)
		svc := NewVehicleService(repo, docs, false, nil)
		v := newVehicle(t, 10000, 500)
		repo.On("FindByID", mock.Anything, v.ID).Return(v, nil)
		repo.On("SaveWithLock", mock.Anything, v).Return(nil)

		_, err := svc.DeleteCost(context.Background(), v.ID, v.Costs[0].ID)

		require.NoError(t, err)
		docs.AssertNotCalled(t, "HasActiveForVehicle", mock.Anything, mock.Anything)
	})

	t.Run("unknown cost id", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		svc := NewVehicleService(repo, nil, false, nil)
		v := newVehicle(t, 10000)
		repo.On("FindByID", mock.Anything, v.ID).Return(v, nil)

		_, err := svc.DeleteCost(context.Background(), v.ID, uuid.New())

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "COST_NOT_FOUND", de.Code)
	})
}

func TestVehicleService_Update(t *testing.T) {
	repo := new(MockVehicleRepository)
	svc := NewVehicleService(repo, nil, true, nil)
	v := newVehicle(t, 10000)
	repo.On("FindByID", mock.Anything, v.ID).Return(v, nil)
	repo.On("SaveWithLock", mock.Anything, v).Return(nil)

	price := Amount("13990")
	plate := " ab-123-cd "
	sold := "sold"

	resp, err := svc.Update(context.Background(), v.ID, UpdateVehicleRequest{SellingPrice: &price, RegistrationPlate: &plate})
	require.NoError(t, err)
	assert.Equal(t, "AB-123-CD", resp.RegistrationPlate)
	assert.Equal(t, "13990", resp.SellingPrice.String())

	_, err = svc.Update(context.Background(), v.ID, UpdateVehicleRequest{Status: &sold})
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "sourcing cannot jump to sold")
	assert.Equal(t, "INVALID_STATE", de.Code)
}

func TestVehicleService_CostSummaryAndSuggestion(t *testing.T) {
	repo := new(MockVehicleRepository)
	svc := NewVehicleService(repo, nil, true, nil)
	v := newVehicle(t, 10000, 1000)
	require.NoError(t, v.SetSellingPrice(decimal.NewFromInt(13750)))
	repo.On("FindByID", mock.Anything, v.ID).Return(v, nil)

	summary, err := svc.CostSummary(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "11000", summary.PRU.String())
	assert.Equal(t, "2750", summary.Margin.String())
	assert.Equal(t, "20", summary.MarginPercent.String())

	suggestion, err := svc.SuggestBilling(context.Background(), v.ID)
	require.NoError(t, err)
	assert.True(t, suggestion.EUOrigin)
	assert.Equal(t, tax.BillingTypeMargin, suggestion.BillingType)
}
