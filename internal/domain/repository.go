package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientRepository defines persistence operations for clients
type ClientRepository interface {
	// GetByID retrieves a client by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// GetForUpdate retrieves a client and acquires an exclusive row lock.
	// Only meaningful inside a unit of work.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Client, error)

	// Create creates a new client
	Create(ctx context.Context, client *Client) error

	// UpdateStatus sets the client lifecycle status
	UpdateStatus(ctx context.Context, id uuid.UUID, status ClientStatus) error

	// UpdateCreditAvailable sets the available portion of the credit line
	UpdateCreditAvailable(ctx context.Context, id uuid.UUID, available decimal.Decimal) error
}

// InvoiceRepository defines persistence operations for invoices
type InvoiceRepository interface {
	// GetByID retrieves an invoice by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// GetForUpdate retrieves an invoice and acquires an exclusive row lock
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// Create creates a new invoice
	Create(ctx context.Context, invoice *Invoice) error

	// ListForUpdate retrieves the invoices with the given IDs, locking each
	// row, always ordered ascending by ID so concurrent transitions acquire
	// locks in the same order. IDs with no matching row are silently absent
	// from the result.
	ListForUpdate(ctx context.Context, ids []uuid.UUID) ([]*Invoice, error)

	// ListByOperationForUpdate retrieves and locks the invoices pledged in an
	// operation, ordered ascending by ID.
	ListByOperationForUpdate(ctx context.Context, operationID uuid.UUID) ([]*Invoice, error)

	// UpdateStatus sets the status of a single invoice
	UpdateStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) error

	// UpdateStatusBulk sets the status of every invoice in ids
	UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status InvoiceStatus) error
}

// OperationFilter narrows an operation listing; zero values mean no filter
type OperationFilter struct {
	ClientID *uuid.UUID
	Status   OperationStatus
}

// OperationRepository defines persistence operations for factoring operations
type OperationRepository interface {
	// Create persists a new operation together with its invoice links.
	// The association rows enforce that an invoice appears at most once per
	// operation.
	Create(ctx context.Context, op *Operation) error

	// GetByID retrieves an operation, including its pledged invoice IDs
	GetByID(ctx context.Context, id uuid.UUID) (*Operation, error)

	// GetForUpdate retrieves an operation and acquires an exclusive row lock
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Operation, error)

	// Update persists the mutable fields of an operation (status, timestamps,
	// rejection reason). Financial amounts are frozen at creation and never
	// rewritten.
	Update(ctx context.Context, op *Operation) error

	// List retrieves operations matching the filter, newest first
	List(ctx context.Context, filter OperationFilter) ([]*Operation, error)
}

// EventRepository defines persistence operations for the audit trail
type EventRepository interface {
	// Append adds an event. This is the only write operation: events are
	// never updated or deleted.
	Append(ctx context.Context, event *OperationEvent) error

	// ListByOperation returns the events of an operation ordered by
	// timestamp ascending.
	ListByOperation(ctx context.Context, operationID uuid.UUID) ([]*OperationEvent, error)
}

// Repositories bundles the repository set bound to one storage transaction
type Repositories struct {
	Clients    ClientRepository
	Invoices   InvoiceRepository
	Operations OperationRepository
	Events     EventRepository
}

// UnitOfWork runs a function against a repository set sharing one atomic
// storage transaction: either every write inside fn commits, or none do.
// Row locks taken through the repositories are held until Execute returns.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
