package invoice

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// Service covers the invoice actions that live outside the operation state
// machine: registering invoices and settling them (paid / void). The state
// machine only ever reads invoice status and moves AVAILABLE -> ASSIGNED;
// PAID and VOID originate here.
type Service struct {
	uow    domain.UnitOfWork
	logger *zap.Logger
}

// NewService creates a new invoice Service instance
func NewService(uow domain.UnitOfWork, logger *zap.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// Register creates a new invoice in AVAILABLE state for an existing client
func (s *Service) Register(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if invoice.Status == "" {
		invoice.Status = domain.InvoiceStatusAvailable
	}
	if err := invoice.Validate(); err != nil {
		return nil, err
	}

	err := s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if _, err := repos.Clients.GetByID(ctx, invoice.ClientID); err != nil {
			return err
		}
		return repos.Invoices.Create(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice registered",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("client_id", invoice.ClientID.String()))
	return invoice, nil
}

// MarkPaid records that the debtor settled an assigned invoice
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.setStatus(ctx, id, domain.InvoiceStatusPaid, func(inv *domain.Invoice) error {
		if inv.Status != domain.InvoiceStatusAssigned {
			return domain.NewValidationError("estado", "only an assigned invoice can be marked paid")
		}
		return nil
	})
}

// MarkVoid annuls an invoice that has not been settled
func (s *Service) MarkVoid(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.setStatus(ctx, id, domain.InvoiceStatusVoid, func(inv *domain.Invoice) error {
		if inv.Status == domain.InvoiceStatusPaid || inv.Status == domain.InvoiceStatusVoid {
			return domain.NewValidationError("estado", "a settled invoice cannot be voided")
		}
		return nil
	})
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus, guard func(*domain.Invoice) error) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		invoice, err = repos.Invoices.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := guard(invoice); err != nil {
			return err
		}
		if err := repos.Invoices.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		invoice.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice status changed",
		zap.String("invoice_id", id.String()),
		zap.String("status", string(status)))
	return invoice, nil
}
