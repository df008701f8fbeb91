package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// fakeUOW hands the mocked repositories to the function under test; there is
// no transaction to roll back here.
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

// MockInvoiceRepository is a mock implementation of InvoiceRepository for testing
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ListForUpdate(ctx context.Context, ids []uuid.UUID) ([]*domain.Invoice, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListByOperationForUpdate(ctx context.Context, operationID uuid.UUID) ([]*domain.Invoice, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status domain.InvoiceStatus) error {
	args := m.Called(ctx, ids, status)
	return args.Error(0)
}

func testInvoice(status domain.InvoiceStatus) *domain.Invoice {
	return &domain.Invoice{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		Number:       "F-1001",
		DebtorRUT:    "07.775.577-2",
		DebtorName:   "Deudora Ltda",
		Principal:    decimal.RequireFromString("100000.00"),
		IssuedAt:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		MaturityDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		Status:       status,
	}
}

func newService(invoices *MockInvoiceRepository, clients *MockClientRepository) *Service {
	uow := fakeUOW{repos: domain.Repositories{Clients: clients, Invoices: invoices}}
	return NewService(uow, zap.NewNop())
}

func TestMarkPaid_Assigned(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockInvoiceRepository)
	service := newService(mockRepo, new(MockClientRepository))

	inv := testInvoice(domain.InvoiceStatusAssigned)
	mockRepo.On("GetForUpdate", ctx, inv.ID).Return(inv, nil)
	mockRepo.On("UpdateStatus", ctx, inv.ID, domain.InvoiceStatusPaid).Return(nil)

	paid, err := service.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)
	mockRepo.AssertExpectations(t)
}

func TestMarkPaid_NotAssigned(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockInvoiceRepository)
	service := newService(mockRepo, new(MockClientRepository))

	inv := testInvoice(domain.InvoiceStatusAvailable)
	mockRepo.On("GetForUpdate", ctx, inv.ID).Return(inv, nil)

	_, err := service.MarkPaid(ctx, inv.ID)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkVoid(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockInvoiceRepository)
	service := newService(mockRepo, new(MockClientRepository))

	inv := testInvoice(domain.InvoiceStatusAvailable)
	mockRepo.On("GetForUpdate", ctx, inv.ID).Return(inv, nil)
	mockRepo.On("UpdateStatus", ctx, inv.ID, domain.InvoiceStatusVoid).Return(nil)

	voided, err := service.MarkVoid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusVoid, voided.Status)
}

func TestMarkVoid_AlreadySettled(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockInvoiceRepository)
	service := newService(mockRepo, new(MockClientRepository))

	for _, status := range []domain.InvoiceStatus{domain.InvoiceStatusPaid, domain.InvoiceStatusVoid} {
		inv := testInvoice(status)
		mockRepo.On("GetForUpdate", ctx, inv.ID).Return(inv, nil)

		_, err := service.MarkVoid(ctx, inv.ID)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	}
}

func TestMarkPaid_NotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockInvoiceRepository)
	service := newService(mockRepo, new(MockClientRepository))

	id := uuid.New()
	mockRepo.On("GetForUpdate", ctx, id).Return(nil, domain.NewNotFoundError("invoice", id))

	_, err := service.MarkPaid(ctx, id)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockInvoiceRepository)
	mockClients := new(MockClientRepository)
	service := newService(mockRepo, mockClients)

	inv := testInvoice("")
	inv.Status = ""
	mockClients.On("GetByID", ctx, inv.ClientID).Return(&domain.Client{ID: inv.ClientID}, nil)
	mockRepo.On("Create", ctx, inv).Return(nil)

	created, err := service.Register(ctx, inv)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusAvailable, created.Status)
	mockRepo.AssertExpectations(t)
}

func TestRegister_NonPositivePrincipal(t *testing.T) {
	service := newService(new(MockInvoiceRepository), new(MockClientRepository))

	inv := testInvoice(domain.InvoiceStatusAvailable)
	inv.Principal = decimal.Zero

	_, err := service.Register(context.Background(), inv)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
