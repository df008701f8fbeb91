package client

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/factorlink/factoring-backend/internal/domain"
)

type fakeUOW struct {
	repos domain.Repositories
}

func (f fakeUOW) Execute(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	return fn(ctx, f.repos)
}

// MockClientRepository is a mock implementation of ClientRepository for testing
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) Create(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ClientStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockClientRepository) UpdateCreditAvailable(ctx context.Context, id uuid.UUID, available decimal.Decimal) error {
	args := m.Called(ctx, id, available)
	return args.Error(0)
}

func newService(repo *MockClientRepository) *Service {
	return NewService(fakeUOW{repos: domain.Repositories{Clients: repo}}, zap.NewNop())
}

func TestRegister_NormalizesRUT(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockClientRepository)
	service := newService(mockRepo)

	c := &domain.Client{
		RUT:         "12345678-5",
		LegalName:   "Comercial Andes SpA",
		Email:       "finanzas@andes.cl",
		CreditLimit: decimal.RequireFromString("300000.00"),
	}
	mockRepo.On("Create", ctx, c).Return(nil)

	created, err := service.Register(ctx, c)
	require.NoError(t, err)

	assert.Equal(t, "12.345.678-5", created.RUT)
	assert.Equal(t, domain.ClientStatusPending, created.Status)
	// a fresh client starts with the full line available
	assert.True(t, created.CreditAvailable.Equal(created.CreditLimit))
	mockRepo.AssertExpectations(t)
}

func TestRegister_BadRUT(t *testing.T) {
	service := newService(new(MockClientRepository))

	_, err := service.Register(context.Background(), &domain.Client{
		RUT:         "not-a-rut",
		LegalName:   "Comercial Andes SpA",
		CreditLimit: decimal.RequireFromString("300000.00"),
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestRegister_WrongCheckDigit(t *testing.T) {
	service := newService(new(MockClientRepository))

	_, err := service.Register(context.Background(), &domain.Client{
		RUT:         "12.345.678-4",
		LegalName:   "Comercial Andes SpA",
		CreditLimit: decimal.RequireFromString("300000.00"),
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestActivate(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockClientRepository)
	service := newService(mockRepo)

	c := &domain.Client{ID: uuid.New(), Status: domain.ClientStatusPending}
	mockRepo.On("GetForUpdate", ctx, c.ID).Return(c, nil)
	mockRepo.On("UpdateStatus", ctx, c.ID, domain.ClientStatusActive).Return(nil)

	activated, err := service.Activate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClientStatusActive, activated.Status)
	mockRepo.AssertExpectations(t)
}

func TestSuspend_NotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockClientRepository)
	service := newService(mockRepo)

	id := uuid.New()
	mockRepo.On("GetForUpdate", ctx, id).Return(nil, domain.NewNotFoundError("client", id))

	_, err := service.Suspend(ctx, id)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}
