package operation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// Stateless guards checked before every transition. Each one names the
// field it reports on, matching the wire contract of the API.

func guardClientActive(client *domain.Client) error {
	if client.Status != domain.ClientStatusActive {
		return domain.NewValidationError("cliente", "client must be ACTIVE to create operations")
	}
	return nil
}

func guardInvoiceIDs(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return domain.NewValidationError("facturas_ids", "at least one invoice must be selected")
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return domain.NewValidationError("facturas_ids", "duplicate invoices are not allowed")
		}
		seen[id] = struct{}{}
	}
	return nil
}

func guardInvoicesExist(invoices []*domain.Invoice, ids []uuid.UUID) error {
	if len(invoices) != len(ids) {
		return domain.NewValidationError("facturas_ids", "one or more invoices do not exist")
	}
	return nil
}

func guardInvoicesOwnedBy(invoices []*domain.Invoice, clientID uuid.UUID) error {
	for _, inv := range invoices {
		if inv.ClientID != clientID {
			return domain.NewValidationError("facturas_ids", "all invoices must belong to the requesting client")
		}
	}
	return nil
}

func guardInvoicesAvailable(invoices []*domain.Invoice) error {
	var unavailable []uuid.UUID
	for _, inv := range invoices {
		if inv.Status != domain.InvoiceStatusAvailable {
			unavailable = append(unavailable, inv.ID)
		}
	}
	if len(unavailable) > 0 {
		return domain.NewValidationError("facturas_ids", fmt.Sprintf("invoices not available: %v", unavailable))
	}
	return nil
}

func guardInvoicesNotExpired(invoices []*domain.Invoice, today time.Time) error {
	var expired []uuid.UUID
	for _, inv := range invoices {
		if inv.ExpiredAt(today) {
			expired = append(expired, inv.ID)
		}
	}
	if len(expired) > 0 {
		return domain.NewValidationError("facturas_ids", fmt.Sprintf("expired invoices cannot be pledged: %v", expired))
	}
	return nil
}

func guardPrincipalPositive(total decimal.Decimal) error {
	if !total.IsPositive() {
		return domain.NewValidationError("facturas_ids", "the invoice principal total must be greater than 0")
	}
	return nil
}

// resolveRate applies the configured default when no rate is supplied and
// enforces the (0, 100] bound either way.
func resolveRate(rate *decimal.Decimal, defaultRate decimal.Decimal) (decimal.Decimal, error) {
	r := defaultRate
	if rate != nil {
		r = *rate
	}
	if !r.IsPositive() || r.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Decimal{}, domain.NewValidationError("tasa_descuento", "discount rate must lie between 0 and 100")
	}
	return r, nil
}

func guardPendingForApprove(op *domain.Operation) error {
	if op.Status != domain.OperationStatusPending {
		return domain.NewValidationError("estado", "only a pending operation can be approved")
	}
	return nil
}

func guardPendingForReject(op *domain.Operation) error {
	if op.Status != domain.OperationStatusPending {
		return domain.NewValidationError("estado", "only a pending operation can be rejected")
	}
	return nil
}

func guardRejectionReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", domain.NewValidationError("motivo_rechazo", "a rejection reason is required")
	}
	return reason, nil
}

func guardApprovedForDisburse(op *domain.Operation) error {
	if op.Status != domain.OperationStatusApproved {
		return domain.NewValidationError("estado", "only an approved operation can be disbursed")
	}
	return nil
}

// Complete is legal from APPROVED or DISBURSED: disbursement is optional
// before finalization.
func guardCompletable(op *domain.Operation) error {
	if op.Status != domain.OperationStatusApproved && op.Status != domain.OperationStatusDisbursed {
		return domain.NewValidationError("estado", "only an approved or disbursed operation can be completed")
	}
	return nil
}

func guardOperationHasInvoices(invoices []*domain.Invoice) error {
	if len(invoices) == 0 {
		return domain.NewValidationError("facturas", "the operation has no pledged invoices")
	}
	return nil
}

// Re-checked at approval: the pledged invoices may have changed since creation
func guardInvoicesStillPledgeable(invoices []*domain.Invoice, today time.Time) error {
	for _, inv := range invoices {
		if inv.Status != domain.InvoiceStatusAvailable {
			return domain.NewValidationError("facturas", "the operation contains invoices that are no longer available")
		}
	}
	for _, inv := range invoices {
		if inv.ExpiredAt(today) {
			return domain.NewValidationError("facturas", "the operation contains expired invoices")
		}
	}
	return nil
}

func guardInvoicesPaid(invoices []*domain.Invoice) error {
	for _, inv := range invoices {
		if inv.Status != domain.InvoiceStatusPaid {
			return domain.NewValidationError("facturas", "cannot complete: not every pledged invoice is paid")
		}
	}
	return nil
}

func guardCreditSufficient(client *domain.Client, total decimal.Decimal) error {
	if total.GreaterThan(client.CreditAvailable) {
		return domain.NewValidationError("linea_disponible", "the operation total exceeds the client's available credit line")
	}
	return nil
}
