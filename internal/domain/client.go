package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientStatus represents the lifecycle status of a client
type ClientStatus string

const (
	ClientStatusPending   ClientStatus = "PENDING"
	ClientStatusActive    ClientStatus = "ACTIVE"
	ClientStatusSuspended ClientStatus = "SUSPENDED"
	ClientStatusBlocked   ClientStatus = "BLOCKED"
)

// Valid reports whether the status is one of the known client states
func (s ClientStatus) Valid() bool {
	switch s {
	case ClientStatusPending, ClientStatusActive, ClientStatusSuspended, ClientStatusBlocked:
		return true
	}
	return false
}

// Client represents a client entity in the domain layer.
// CreditLimit is immutable after setup; CreditAvailable is mutated only by
// the operation state machine (debited on Approve, restored on Complete).
type Client struct {
	ID              uuid.UUID
	RUT             string
	LegalName       string
	Email           string
	CreditLimit     decimal.Decimal
	CreditAvailable decimal.Decimal
	Status          ClientStatus
	RegisteredAt    time.Time
}

// Validate ensures the client adheres to domain rules
// Returns a field-tagged ValidationError if validation fails
func (c *Client) Validate() error {
	if c.LegalName == "" {
		return NewValidationError("razon_social", "legal name cannot be empty")
	}
	if !IsValidRUT(c.RUT) {
		return NewValidationError("rut", "invalid RUT")
	}
	if !c.Status.Valid() {
		return NewValidationError("estado", "unknown client status")
	}
	if c.CreditLimit.IsNegative() {
		return NewValidationError("linea_credito", "credit limit cannot be negative")
	}
	// Invariant: 0 <= credit_available <= credit_limit
	if c.CreditAvailable.IsNegative() || c.CreditAvailable.GreaterThan(c.CreditLimit) {
		return NewValidationError("linea_disponible", "credit available must lie between 0 and the credit limit")
	}
	return nil
}
