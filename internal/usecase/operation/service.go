package operation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/factorlink/factoring-backend/internal/domain"
	"github.com/factorlink/factoring-backend/internal/usecase/discount"
)

// CreateInput represents the input for creating a factoring operation.
// Rate is optional; when nil the configured default discount rate applies.
// CorrelationID is supplied by the transport layer (request id) and recorded
// on the audit event; empty is stored as empty.
type CreateInput struct {
	ClientID      uuid.UUID
	InvoiceIDs    []uuid.UUID
	Rate          *decimal.Decimal
	CorrelationID string
}

// Service is the operation lifecycle engine. Every mutating action runs as
// one unit of work: the row locks, the guard checks, the ledger/registry
// mutations and the audit event either all commit or none do.
//
// Lock order is fixed to prevent deadlock between concurrent transitions
// touching overlapping entities: operation row first, then the client row,
// then the pledged invoice rows ascending by id.
type Service struct {
	uow         domain.UnitOfWork
	clock       domain.Clock
	defaultRate decimal.Decimal
	logger      *zap.Logger
}

// NewService creates a new operation Service instance
func NewService(uow domain.UnitOfWork, clock domain.Clock, defaultRate decimal.Decimal, logger *zap.Logger) *Service {
	return &Service{
		uow:         uow,
		clock:       clock,
		defaultRate: defaultRate,
		logger:      logger,
	}
}

// Create runs the creation guards, computes the frozen financial snapshot
// (principal total, day-count to the latest maturity, discount, payout) and
// persists the operation in PENDING state together with its CREATED event.
//
// The day-count and resulting amounts are computed exactly once here and
// never recomputed, even if invoice maturities or the rate configuration
// change later.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Operation, error) {
	if err := guardInvoiceIDs(input.InvoiceIDs); err != nil {
		return nil, err
	}
	rate, err := resolveRate(input.Rate, s.defaultRate)
	if err != nil {
		return nil, err
	}

	var op *domain.Operation
	err = s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		client, err := repos.Clients.GetForUpdate(ctx, input.ClientID)
		if err != nil {
			return err
		}
		if err := guardClientActive(client); err != nil {
			return err
		}

		invoices, err := repos.Invoices.ListForUpdate(ctx, input.InvoiceIDs)
		if err != nil {
			return err
		}
		if err := guardInvoicesExist(invoices, input.InvoiceIDs); err != nil {
			return err
		}
		if err := guardInvoicesOwnedBy(invoices, client.ID); err != nil {
			return err
		}
		if err := guardInvoicesAvailable(invoices); err != nil {
			return err
		}

		today := s.clock.Today()
		if err := guardInvoicesNotExpired(invoices, today); err != nil {
			return err
		}

		total := decimal.Zero
		latestMaturity := invoices[0].MaturityDate
		for _, inv := range invoices {
			total = total.Add(inv.Principal)
			if inv.MaturityDate.After(latestMaturity) {
				latestMaturity = inv.MaturityDate
			}
		}
		if err := guardPrincipalPositive(total); err != nil {
			return err
		}

		days := domain.DaysBetween(today, latestMaturity)
		discountAmount, payoutAmount := discount.Compute(total, rate, days)

		op = &domain.Operation{
			ID:             uuid.New(),
			ClientID:       client.ID,
			InvoiceIDs:     input.InvoiceIDs,
			RequestedAt:    s.clock.Now(),
			PrincipalTotal: total,
			DiscountRate:   rate,
			DiscountAmount: discountAmount,
			PayoutAmount:   payoutAmount,
			Status:         domain.OperationStatusPending,
		}
		if err := repos.Operations.Create(ctx, op); err != nil {
			return err
		}

		return s.appendEvent(ctx, repos, op, domain.EventCreated, "", domain.OperationStatusPending, domain.EventDetail{
			"facturas_ids":         uuidStrings(input.InvoiceIDs),
			"monto_total_facturas": total.StringFixed(2),
			"tasa_descuento":       rate.StringFixed(2),
			"monto_descuento":      discountAmount.StringFixed(2),
			"monto_a_desembolsar":  payoutAmount.StringFixed(2),
			"dias":                 days,
		}, input.CorrelationID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("operation created",
		zap.String("operation_id", op.ID.String()),
		zap.String("client_id", op.ClientID.String()),
		zap.String("principal_total", op.PrincipalTotal.StringFixed(2)))
	return op, nil
}

// Approve re-runs the availability and expiry guards (the pledged invoices
// may have changed since creation), checks credit sufficiency, moves the
// invoices AVAILABLE -> ASSIGNED and debits the client's available credit
// line by the frozen principal total.
func (s *Service) Approve(ctx context.Context, operationID uuid.UUID, correlationID string) (*domain.Operation, error) {
	var op *domain.Operation
	err := s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		op, err = repos.Operations.GetForUpdate(ctx, operationID)
		if err != nil {
			return err
		}
		if err := guardPendingForApprove(op); err != nil {
			return err
		}

		client, err := repos.Clients.GetForUpdate(ctx, op.ClientID)
		if err != nil {
			return err
		}
		invoices, err := repos.Invoices.ListByOperationForUpdate(ctx, op.ID)
		if err != nil {
			return err
		}

		if err := guardInvoicesStillPledgeable(invoices, s.clock.Today()); err != nil {
			return err
		}
		if err := guardCreditSufficient(client, op.PrincipalTotal); err != nil {
			return err
		}

		if err := repos.Invoices.UpdateStatusBulk(ctx, invoiceIDs(invoices), domain.InvoiceStatusAssigned); err != nil {
			return err
		}

		before := client.CreditAvailable
		after := before.Sub(op.PrincipalTotal).Round(2)
		if err := repos.Clients.UpdateCreditAvailable(ctx, client.ID, after); err != nil {
			return err
		}

		prior := op.Status
		now := s.clock.Now()
		op.Status = domain.OperationStatusApproved
		op.ApprovedAt = &now
		op.RejectionReason = ""
		if err := repos.Operations.Update(ctx, op); err != nil {
			return err
		}

		return s.appendEvent(ctx, repos, op, domain.EventApproved, prior, op.Status, domain.EventDetail{
			"linea_disponible_antes":   before.StringFixed(2),
			"linea_disponible_despues": after.StringFixed(2),
			"facturas_ids":             uuidStrings(invoiceIDs(invoices)),
		}, correlationID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("operation approved",
		zap.String("operation_id", op.ID.String()),
		zap.String("client_id", op.ClientID.String()))
	return op, nil
}

// Reject marks a pending operation as rejected with a trimmed, non-empty
// reason. No ledger or invoice mutation takes place.
func (s *Service) Reject(ctx context.Context, operationID uuid.UUID, reason, correlationID string) (*domain.Operation, error) {
	var op *domain.Operation
	err := s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		op, err = repos.Operations.GetForUpdate(ctx, operationID)
		if err != nil {
			return err
		}
		if err := guardPendingForReject(op); err != nil {
			return err
		}
		trimmed, err := guardRejectionReason(reason)
		if err != nil {
			return err
		}

		prior := op.Status
		op.Status = domain.OperationStatusRejected
		op.RejectionReason = trimmed
		op.ApprovedAt = nil
		if err := repos.Operations.Update(ctx, op); err != nil {
			return err
		}

		return s.appendEvent(ctx, repos, op, domain.EventRejected, prior, op.Status, domain.EventDetail{
			"motivo_rechazo": trimmed,
		}, correlationID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("operation rejected", zap.String("operation_id", op.ID.String()))
	return op, nil
}

// Disburse records the payout of an approved operation. The money movement
// itself happens outside this system; no ledger mutation occurs here.
func (s *Service) Disburse(ctx context.Context, operationID uuid.UUID, correlationID string) (*domain.Operation, error) {
	var op *domain.Operation
	err := s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		op, err = repos.Operations.GetForUpdate(ctx, operationID)
		if err != nil {
			return err
		}
		if err := guardApprovedForDisburse(op); err != nil {
			return err
		}

		prior := op.Status
		now := s.clock.Now()
		op.Status = domain.OperationStatusDisbursed
		op.DisbursedAt = &now
		if err := repos.Operations.Update(ctx, op); err != nil {
			return err
		}

		return s.appendEvent(ctx, repos, op, domain.EventDisbursed, prior, op.Status, domain.EventDetail{
			"monto_a_desembolsar": op.PayoutAmount.StringFixed(2),
		}, correlationID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("disbursement recorded", zap.String("operation_id", op.ID.String()))
	return op, nil
}

// Complete finalizes an approved or disbursed operation once every pledged
// invoice is paid, restoring the client's available credit line by exactly
// the frozen principal total.
func (s *Service) Complete(ctx context.Context, operationID uuid.UUID, correlationID string) (*domain.Operation, error) {
	var op *domain.Operation
	err := s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		op, err = repos.Operations.GetForUpdate(ctx, operationID)
		if err != nil {
			return err
		}
		if err := guardCompletable(op); err != nil {
			return err
		}

		client, err := repos.Clients.GetForUpdate(ctx, op.ClientID)
		if err != nil {
			return err
		}
		invoices, err := repos.Invoices.ListByOperationForUpdate(ctx, op.ID)
		if err != nil {
			return err
		}
		if err := guardOperationHasInvoices(invoices); err != nil {
			return err
		}
		if err := guardInvoicesPaid(invoices); err != nil {
			return err
		}

		before := client.CreditAvailable
		after := before.Add(op.PrincipalTotal).Round(2)
		if err := repos.Clients.UpdateCreditAvailable(ctx, client.ID, after); err != nil {
			return err
		}

		prior := op.Status
		now := s.clock.Now()
		op.Status = domain.OperationStatusCompleted
		op.CompletedAt = &now
		if err := repos.Operations.Update(ctx, op); err != nil {
			return err
		}

		return s.appendEvent(ctx, repos, op, domain.EventCompleted, prior, op.Status, domain.EventDetail{
			"linea_disponible_antes":   before.StringFixed(2),
			"linea_disponible_despues": after.StringFixed(2),
		}, correlationID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("operation completed",
		zap.String("operation_id", op.ID.String()),
		zap.String("client_id", op.ClientID.String()))
	return op, nil
}

// Get retrieves a single operation
func (s *Service) Get(ctx context.Context, operationID uuid.UUID) (*domain.Operation, error) {
	var op *domain.Operation
	err := s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		op, err = repos.Operations.GetByID(ctx, operationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// List retrieves operations matching the filter, newest first. Read-only:
// no locks are taken.
func (s *Service) List(ctx context.Context, filter domain.OperationFilter) ([]*domain.Operation, error) {
	var ops []*domain.Operation
	err := s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		ops, err = repos.Operations.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}

// ListEvents returns the audit trail of an operation ordered by timestamp
// ascending.
func (s *Service) ListEvents(ctx context.Context, operationID uuid.UUID) ([]*domain.OperationEvent, error) {
	var events []*domain.OperationEvent
	err := s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if _, err := repos.Operations.GetByID(ctx, operationID); err != nil {
			return err
		}
		var err error
		events, err = repos.Events.ListByOperation(ctx, operationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// appendEvent writes the audit record inside the caller's unit of work, so
// it shares the fate of the transition that produced it.
func (s *Service) appendEvent(
	ctx context.Context,
	repos domain.Repositories,
	op *domain.Operation,
	eventType domain.EventType,
	prior, next domain.OperationStatus,
	detail domain.EventDetail,
	correlationID string,
) error {
	return repos.Events.Append(ctx, &domain.OperationEvent{
		ID:            uuid.New(),
		OperationID:   op.ID,
		Type:          eventType,
		OccurredAt:    s.clock.Now(),
		PriorStatus:   prior,
		NewStatus:     next,
		Detail:        detail,
		CorrelationID: correlationID,
	})
}

func invoiceIDs(invoices []*domain.Invoice) []uuid.UUID {
	ids := make([]uuid.UUID, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}
	return ids
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
