package partner

import (
	"context"
	"errors"
	"testing"

	"github.com/autodealer/backend/internal/domain/partner"
	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClientRepository is a mock implementation of partner.ClientRepository
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Client), args.Error(1)
}

func (m *MockClientRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, client *partner.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func TestClientService_Create(t *testing.T) {
	t.Run("creates client with normalized email", func(t *testing.T) {
		repo := new(MockClientRepository)
		svc := NewClientService(repo)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*partner.Client")).Return(nil)

		resp, err := svc.Create(context.Background(), ClientRequest{FirstName: "Jeanne", LastName: "Martin", Email: "Jeanne@Example.FR"})

		require.NoError(t, err)
		assert.Equal(t, "jeanne@example.fr", resp.Email)
		assert.Equal(t, "Jeanne Martin", resp.FullName)
		repo.AssertExpectations(t)
	})

	t.Run("last name is required", func(t *testing.T) {
		repo := new(MockClientRepository)
		svc := NewClientService(repo)

		_, err := svc.Create(context.Background(), ClientRequest{FirstName: "Jeanne"})

		assert.True(t, shared.IsValidationError(err))
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("propagates repository failure", func(t *testing.T) {
		repo := new(MockClientRepository)
		svc := NewClientService(repo)
		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

		_, err := svc.Create(context.Background(), ClientRequest{LastName: "Martin"})

		assert.EqualError(t, err, "db down")
	})
}

func TestClientService_GetByID_NotFound(t *testing.T) {
	repo := new(MockClientRepository)
	svc := NewClientService(repo)
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := svc.GetByID(context.Background(), id)

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestClientService_List(t *testing.T) {
	repo := new(MockClientRepository)
	svc := NewClientService(repo)
	c, err := partner.NewClient(partner.ClientDetails{LastName: "Durand", City: "Lyon"})
	require.NoError(t, err)

	matchFilter := mock.MatchedBy(func(f shared.Filter) bool {
		return f.OrderBy == "last_name" && f.Filters["city"] == "Lyon" && f.Search == "dur"
	})
	repo.On("FindAll", mock.Anything, matchFilter).Return([]partner.Client{*c}, nil)
	repo.On("Count", mock.Anything, matchFilter).Return(int64(1), nil)

	items, total, err := svc.List(context.Background(), ClientListFilter{Search: "dur", City: "Lyon"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Durand", items[0].LastName)
}

func TestClientService_Update(t *testing.T) {
	repo := new(MockClientRepository)
	svc := NewClientService(repo)
	c, err := partner.NewClient(partner.ClientDetails{LastName: "Durand"})
	require.NoError(t, err)
	repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	repo.On("Save", mock.Anything, c).Return(nil)

	resp, err := svc.Update(context.Background(), c.ID, ClientRequest{LastName: "Durand", City: "Lille"})

	require.NoError(t, err)
	assert.Equal(t, "Lille", resp.City)

	_, err = svc.Update(context.Background(), c.ID, ClientRequest{LastName: "Durand", Email: "not-an-email"})
	assert.True(t, shared.IsValidationError(err))
}
