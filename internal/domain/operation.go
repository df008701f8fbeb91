package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationStatus represents the lifecycle status of a factoring operation
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "PENDING"
	OperationStatusApproved  OperationStatus = "APPROVED"
	OperationStatusRejected  OperationStatus = "REJECTED"
	OperationStatusDisbursed OperationStatus = "DISBURSED"
	OperationStatusCompleted OperationStatus = "COMPLETED"
)

// Valid reports whether the status is one of the known operation states
func (s OperationStatus) Valid() bool {
	switch s {
	case OperationStatusPending, OperationStatusApproved, OperationStatusRejected,
		OperationStatusDisbursed, OperationStatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are legal from this status
func (s OperationStatus) Terminal() bool {
	return s == OperationStatusRejected || s == OperationStatusCompleted
}

// Operation represents a pledge of invoices in exchange for an early,
// discounted payout against the client's credit line.
//
// InvoiceIDs is an immutable snapshot captured at creation: invoices are
// never added or removed afterward. PrincipalTotal, DiscountRate,
// DiscountAmount and PayoutAmount are likewise frozen at creation and never
// recomputed, even if invoice maturities or rate configuration change later.
type Operation struct {
	ID              uuid.UUID
	ClientID        uuid.UUID
	InvoiceIDs      []uuid.UUID
	RequestedAt     time.Time
	ApprovedAt      *time.Time
	DisbursedAt     *time.Time
	CompletedAt     *time.Time
	PrincipalTotal  decimal.Decimal
	DiscountRate    decimal.Decimal
	DiscountAmount  decimal.Decimal
	PayoutAmount    decimal.Decimal
	Status          OperationStatus
	RejectionReason string
}

// Validate ensures the operation adheres to domain rules
// CRITICAL: discount_amount + payout_amount must equal principal_total to the cent
func (o *Operation) Validate() error {
	if len(o.InvoiceIDs) == 0 {
		return NewValidationError("facturas_ids", "operation must pledge at least one invoice")
	}
	seen := make(map[uuid.UUID]struct{}, len(o.InvoiceIDs))
	for _, id := range o.InvoiceIDs {
		if _, dup := seen[id]; dup {
			return NewValidationError("facturas_ids", "duplicate invoice in operation")
		}
		seen[id] = struct{}{}
	}
	if !o.Status.Valid() {
		return NewValidationError("estado", "unknown operation status")
	}
	if !o.PrincipalTotal.IsPositive() {
		return NewValidationError("monto_total_facturas", "operation principal must be positive")
	}
	if !o.DiscountRate.IsPositive() || o.DiscountRate.GreaterThan(decimal.NewFromInt(100)) {
		return NewValidationError("tasa_descuento", "discount rate must lie in (0, 100]")
	}
	if !o.DiscountAmount.Add(o.PayoutAmount).Equal(o.PrincipalTotal) {
		return NewValidationError("monto_descuento", "discount plus payout must equal the principal total")
	}
	return nil
}
