package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for classification with errors.Is
var (
	// ErrValidation marks caller-correctable failures: malformed input and
	// state-guard violations alike (a "not pending" approve is a validation
	// failure keyed by "estado", not a distinct conflict kind).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced client, invoice or operation that
	// does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError is a field-tagged, caller-correctable failure.
// Field names follow the wire contract (cliente, facturas_ids,
// tasa_descuento, estado, linea_disponible, motivo_rechazo, facturas).
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports an absent entity by kind and id.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func NewNotFoundError(entity string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsValidation returns true if the error is a caller-correctable validation failure
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound returns true if the error indicates a missing entity
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
