package operation

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// memStore is an in-memory implementation of the repository set and the unit
// of work, used to exercise the state machine without a database. Execute
// snapshots all state before running the function and restores it on error,
// mirroring the all-or-nothing semantics of the SQL transaction.
type memStore struct {
	clients    map[uuid.UUID]*domain.Client
	invoices   map[uuid.UUID]*domain.Invoice
	operations map[uuid.UUID]*domain.Operation
	events     []*domain.OperationEvent

	// failEvents simulates a storage failure on the next event append
	failEvents bool
}

func newMemStore() *memStore {
	return &memStore{
		clients:    make(map[uuid.UUID]*domain.Client),
		invoices:   make(map[uuid.UUID]*domain.Invoice),
		operations: make(map[uuid.UUID]*domain.Operation),
	}
}

func (m *memStore) Execute(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	snapClients := make(map[uuid.UUID]*domain.Client, len(m.clients))
	for id, c := range m.clients {
		cc := *c
		snapClients[id] = &cc
	}
	snapInvoices := make(map[uuid.UUID]*domain.Invoice, len(m.invoices))
	for id, inv := range m.invoices {
		ic := *inv
		snapInvoices[id] = &ic
	}
	snapOps := make(map[uuid.UUID]*domain.Operation, len(m.operations))
	for id, op := range m.operations {
		oc := *op
		oc.InvoiceIDs = append([]uuid.UUID(nil), op.InvoiceIDs...)
		snapOps[id] = &oc
	}
	snapEvents := append([]*domain.OperationEvent(nil), m.events...)

	repos := domain.Repositories{Clients: m, Invoices: memInvoices{m}, Operations: memOperations{m}, Events: m}
	if err := fn(ctx, repos); err != nil {
		m.clients = snapClients
		m.invoices = snapInvoices
		m.operations = snapOps
		m.events = snapEvents
		return err
	}
	return nil
}

// --- ClientRepository ---

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	return m.GetForUpdate(ctx, id)
}

func (m *memStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, domain.NewNotFoundError("client", id)
	}
	return c, nil
}

func (m *memStore) Create(ctx context.Context, client *domain.Client) error {
	m.clients[client.ID] = client
	return nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ClientStatus) error {
	c, ok := m.clients[id]
	if !ok {
		return domain.NewNotFoundError("client", id)
	}
	c.Status = status
	return nil
}

func (m *memStore) UpdateCreditAvailable(ctx context.Context, id uuid.UUID, available decimal.Decimal) error {
	c, ok := m.clients[id]
	if !ok {
		return domain.NewNotFoundError("client", id)
	}
	c.CreditAvailable = available
	return nil
}

// --- InvoiceRepository ---

type memInvoices struct{ *memStore }

func (m memInvoices) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return m.GetForUpdate(ctx, id)
}

func (m memInvoices) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, domain.NewNotFoundError("invoice", id)
	}
	return inv, nil
}

func (m memInvoices) Create(ctx context.Context, invoice *domain.Invoice) error {
	m.invoices[invoice.ID] = invoice
	return nil
}

func (m memInvoices) ListForUpdate(ctx context.Context, ids []uuid.UUID) ([]*domain.Invoice, error) {
	var out []*domain.Invoice
	for _, id := range ids {
		if inv, ok := m.invoices[id]; ok {
			out = append(out, inv)
		}
	}
	sortInvoices(out)
	return out, nil
}

func (m memInvoices) ListByOperationForUpdate(ctx context.Context, operationID uuid.UUID) ([]*domain.Invoice, error) {
	op, ok := m.operations[operationID]
	if !ok {
		return nil, domain.NewNotFoundError("operation", operationID)
	}
	return m.ListForUpdate(ctx, op.InvoiceIDs)
}

func (m memInvoices) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus) error {
	inv, ok := m.invoices[id]
	if !ok {
		return domain.NewNotFoundError("invoice", id)
	}
	inv.Status = status
	return nil
}

func (m memInvoices) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status domain.InvoiceStatus) error {
	for _, id := range ids {
		if err := m.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
	}
	return nil
}

// --- OperationRepository ---

type memOperations struct{ *memStore }

func (m memOperations) Create(ctx context.Context, op *domain.Operation) error {
	m.operations[op.ID] = op
	return nil
}

func (m memOperations) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	return m.GetForUpdate(ctx, id)
}

func (m memOperations) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	op, ok := m.operations[id]
	if !ok {
		return nil, domain.NewNotFoundError("operation", id)
	}
	return op, nil
}

func (m memOperations) Update(ctx context.Context, op *domain.Operation) error {
	if _, ok := m.operations[op.ID]; !ok {
		return domain.NewNotFoundError("operation", op.ID)
	}
	m.operations[op.ID] = op
	return nil
}

func (m memOperations) List(ctx context.Context, filter domain.OperationFilter) ([]*domain.Operation, error) {
	var out []*domain.Operation
	for _, op := range m.operations {
		if filter.ClientID != nil && op.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != "" && op.Status != filter.Status {
			continue
		}
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

// --- EventRepository ---

func (m *memStore) Append(ctx context.Context, event *domain.OperationEvent) error {
	if m.failEvents {
		return errors.New("event store unavailable")
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memStore) ListByOperation(ctx context.Context, operationID uuid.UUID) ([]*domain.OperationEvent, error) {
	var out []*domain.OperationEvent
	for _, e := range m.events {
		if e.OperationID == operationID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func sortInvoices(invoices []*domain.Invoice) {
	sort.Slice(invoices, func(i, j int) bool {
		return bytes.Compare(invoices[i].ID[:], invoices[j].ID[:]) < 0
	})
}

// fixedClock is a deterministic clock whose instant can be advanced by tests
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time   { return c.now }
func (c *fixedClock) Today() time.Time { return domain.Midnight(c.now) }

func (c *fixedClock) advance(d time.Duration) { c.now = c.now.Add(d) }
