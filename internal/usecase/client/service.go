package client

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// Service handles client master-data actions. The credit line fields are
// written here only at registration; once operations start flowing, the
// available portion belongs to the operation state machine.
type Service struct {
	uow    domain.UnitOfWork
	logger *zap.Logger
}

// NewService creates a new client Service instance
func NewService(uow domain.UnitOfWork, logger *zap.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// Register creates a new client in PENDING state with a full credit line
func (s *Service) Register(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	if client.Status == "" {
		client.Status = domain.ClientStatusPending
	}
	if client.CreditAvailable.IsZero() {
		client.CreditAvailable = client.CreditLimit
	}

	rut, err := domain.NormalizeRUT(client.RUT)
	if err != nil {
		return nil, domain.NewValidationError("rut", "invalid RUT format")
	}
	client.RUT = rut

	if err := client.Validate(); err != nil {
		return nil, err
	}

	err = s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		return repos.Clients.Create(ctx, client)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client registered",
		zap.String("client_id", client.ID.String()),
		zap.String("rut", client.RUT))
	return client, nil
}

// Activate moves a client to ACTIVE, allowing it to create operations
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	return s.setStatus(ctx, id, domain.ClientStatusActive)
}

// Suspend moves a client to SUSPENDED; pending operations are unaffected but
// no new ones can be created
func (s *Service) Suspend(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	return s.setStatus(ctx, id, domain.ClientStatusSuspended)
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, status domain.ClientStatus) (*domain.Client, error) {
	var client *domain.Client
	err := s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		client, err = repos.Clients.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := repos.Clients.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		client.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client status changed",
		zap.String("client_id", id.String()),
		zap.String("status", string(status)))
	return client, nil
}
