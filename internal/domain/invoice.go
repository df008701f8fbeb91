package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusAvailable InvoiceStatus = "AVAILABLE"
	InvoiceStatusInProcess InvoiceStatus = "IN_PROCESS"
	InvoiceStatusAssigned  InvoiceStatus = "ASSIGNED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusExpired   InvoiceStatus = "EXPIRED"
	InvoiceStatusVoid      InvoiceStatus = "VOID"
)

// Valid reports whether the status is one of the known invoice states
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusAvailable, InvoiceStatusInProcess, InvoiceStatusAssigned,
		InvoiceStatusPaid, InvoiceStatusExpired, InvoiceStatusVoid:
		return true
	}
	return false
}

// Invoice represents a receivable that a client can pledge in an operation.
// It belongs to exactly one client, fixed at creation. The operation state
// machine moves it AVAILABLE -> ASSIGNED on Approve; PAID and VOID are set by
// an external action (the invoice service), never by the state machine.
type Invoice struct {
	ID            uuid.UUID
	ClientID      uuid.UUID
	Number        string
	DebtorRUT     string
	DebtorName    string
	Principal     decimal.Decimal
	IssuedAt      time.Time
	MaturityDate  time.Time
	Status        InvoiceStatus
}

// Validate ensures the invoice adheres to domain rules
func (i *Invoice) Validate() error {
	if i.Number == "" {
		return NewValidationError("numero_factura", "invoice number cannot be empty")
	}
	if !i.Principal.IsPositive() {
		return NewValidationError("monto_total", "invoice principal must be positive")
	}
	if !i.Status.Valid() {
		return NewValidationError("estado", "unknown invoice status")
	}
	if i.MaturityDate.Before(i.IssuedAt) {
		return NewValidationError("fecha_vencimiento", "maturity date cannot precede issue date")
	}
	return nil
}

// ExpiredAt reports whether the invoice matured strictly before the given day
func (i *Invoice) ExpiredAt(today time.Time) bool {
	return i.MaturityDate.Before(today)
}
