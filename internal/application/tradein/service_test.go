package tradein

import (
	"context"
	"errors"
	"testing"

	stockapp "github.com/autodealer/backend/internal/application/stock"
	"github.com/autodealer/backend/internal/domain/partner"
	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/domain/tradein"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTradeInRepository struct {
	mock.Mock
}

func (m *MockTradeInRepository) FindByID(ctx context.Context, id uuid.UUID) (*tradein.TradeIn, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradein.TradeIn), args.Error(1)
}

func (m *MockTradeInRepository) FindBySaleVehicle(ctx context.Context, saleVehicleID uuid.UUID) (*tradein.TradeIn, error) {
	args := m.Called(ctx, saleVehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradein.TradeIn), args.Error(1)
}

func (m *MockTradeInRepository) CreateWithVehicle(ctx context.Context, vehicle *stock.Vehicle, t *tradein.TradeIn) error {
	args := m.Called(ctx, vehicle, t)
	return args.Error(0)
}

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
	return args.Get(0).([]stock.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *stock.Vehicle) error {
	return m.Called(ctx, vehicle).Error(0)
}

func (m *MockVehicleRepository) SaveWithLock(ctx context.Context, vehicle *stock.Vehicle) error {
	return m.Called(ctx, vehicle).Error(0)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *MockClientRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Client, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Client), args.Error(1)
}

func (m *MockClientRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, client *partner.Client) error {
	return m.Called(ctx, client).Error(0)
}

type fixture struct {
	tradeIns *MockTradeInRepository
	vehicles *MockVehicleRepository
	clients  *MockClientRepository
	svc      *Service
	sale     *stock.Vehicle
	client   *partner.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sale, err := stock.NewVehicle(stock.VehicleAttributes{Make: "Audi", Model: "A3"}, decimal.NewFromInt(18000))
	require.NoError(t, err)
	client, err := partner.NewClient(partner.ClientDetails{LastName: "Bernard"})
	require.NoError(t, err)

	f := &fixture{
		tradeIns: new(MockTradeInRepository),
		vehicles: new(MockVehicleRepository),
		clients:  new(MockClientRepository),
		sale:     sale,
		client:   client,
	}
	f.svc = NewService(f.tradeIns, f.vehicles, f.clients, nil)
	return f
}

func (f *fixture) request(value string) CreateTradeInRequest {
	return CreateTradeInRequest{
		SaleVehicleID: f.sale.ID,
		ClientID:      f.client.ID,
		Vehicle:       stockapp.VehicleInput{Make: "Citroen", Model: "C3", Year: 2017, Mileage: 98000},
		TradeInValue:  stockapp.Amount(value),
		Notes:         "rear bumper scratched",
	}
}

func TestService_Create(t *testing.T) {
	t.Run("creates in-stock vehicle and link in one call", func(t *testing.T) {
		f := newFixture(t)
		f.vehicles.On("FindByID", mock.Anything, f.sale.ID).Return(f.sale, nil)
		f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
		f.tradeIns.On("FindBySaleVehicle", mock.Anything, f.sale.ID).Return(nil, shared.ErrNotFound)
		f.tradeIns.On("CreateWithVehicle", mock.Anything,
			mock.MatchedBy(func(v *stock.Vehicle) bool {
				return v.Status == stock.VehicleStatusInStock && v.PurchasePrice.Equal(decimal.NewFromInt(5200))
			}),
			mock.AnythingOfType("*tradein.TradeIn"),
		).Return(nil)

		resp, err := f.svc.Create(context.Background(), f.request("5200"))

		require.NoError(t, err)
		assert.Equal(t, "5200", resp.Value.String())
		require.NotNil(t, resp.Vehicle)
		assert.Equal(t, resp.TradeInVehicleID, resp.Vehicle.ID)
		assert.Equal(t, "5200", resp.Vehicle.Summary.PRU.String())
		f.tradeIns.AssertExpectations(t)
	})

	t.Run("second trade-in for the same sale is refused", func(t *testing.T) {
		f := newFixture(t)
		f.vehicles.On("FindByID", mock.Anything, f.sale.ID).Return(f.sale, nil)
		f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
		f.tradeIns.On("FindBySaleVehicle", mock.Anything, f.sale.ID).Return(&tradein.TradeIn{}, nil)

		_, err := f.svc.Create(context.Background(), f.request("5200"))

		assert.ErrorIs(t, err, tradein.ErrAlreadyRecorded)
		f.tradeIns.AssertNotCalled(t, "CreateWithVehicle", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("zero trade-in value is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.vehicles.On("FindByID", mock.Anything, f.sale.ID).Return(f.sale, nil)
		f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
		f.tradeIns.On("FindBySaleVehicle", mock.Anything, f.sale.ID).Return(nil, shared.ErrNotFound)

		_, err := f.svc.Create(context.Background(), f.request("0"))

		assert.True(t, shared.IsValidationError(err))
		f.tradeIns.AssertNotCalled(t, "CreateWithVehicle", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown client is a validation error", func(t *testing.T) {
		f := newFixture(t)
		f.vehicles.On("FindByID", mock.Anything, f.sale.ID).Return(f.sale, nil)
		f.clients.On("FindByID", mock.Anything, f.client.ID).Return(nil, shared.ErrNotFound)

		_, err := f.svc.Create(context.Background(), f.request("5200"))

		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("repository failure leaves nothing behind", func(t *testing.T) {
		f := newFixture(t)
		f.vehicles.On("FindByID", mock.Anything, f.sale.ID).Return(f.sale, nil)
		f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
		f.tradeIns.On("FindBySaleVehicle", mock.Anything, f.sale.ID).Return(nil, shared.ErrNotFound)
		f.tradeIns.On("CreateWithVehicle", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("tx aborted"))

		resp, err := f.svc.Create(context.Background(), f.request("5200"))

		assert.Nil(t, resp)
		assert.EqualError(t, err, "tx aborted")
		f.vehicles.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestService_GetByID(t *testing.T) {
	f := newFixture(t)
	vehicle, err := stock.NewTradeInVehicle(stock.VehicleAttributes{Make: "Citroen", Model: "C3"}, decimal.NewFromInt(4000))
	require.NoError(t, err)
	link, err := tradein.NewTradeIn(f.sale.ID, vehicle, f.client.ID, "")
	require.NoError(t, err)
	f.tradeIns.On("FindByID", mock.Anything, link.ID).Return(link, nil)
	f.vehicles.On("FindByID", mock.Anything, vehicle.ID).Return(vehicle, nil)

	resp, err := f.svc.GetByID(context.Background(), link.ID)

	require.NoError(t, err)
	assert.Equal(t, vehicle.ID, resp.Vehicle.ID)
	assert.Equal(t, "4000", resp.Value.String())
}
