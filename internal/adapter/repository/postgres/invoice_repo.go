package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// invoiceRepository implements domain.InvoiceRepository
type invoiceRepository struct {
	q querier
}

// NewInvoiceRepository creates an invoice repository bound to the connection
func NewInvoiceRepository(db *DB) domain.InvoiceRepository {
	return &invoiceRepository{q: db}
}

const invoiceColumns = `id, client_id, number, debtor_rut, debtor_name, principal, issued_at, maturity_date, status`

// GetByID retrieves an invoice by its ID
func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return r.scanOne(ctx, id, query)
}

// GetForUpdate retrieves an invoice and takes an exclusive row lock
func (r *invoiceRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, id, query)
}

func (r *invoiceRepository) scanOne(ctx context.Context, id uuid.UUID, query string) (*domain.Invoice, error) {
	row := r.q.QueryRowContext(ctx, query, id)
	invoice, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("invoice", id)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// Create creates a new invoice
func (r *invoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	query := `
		INSERT INTO invoices (id, client_id, number, debtor_rut, debtor_name, principal, issued_at, maturity_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		invoice.ID,
		invoice.ClientID,
		invoice.Number,
		invoice.DebtorRUT,
		invoice.DebtorName,
		invoice.Principal.StringFixed(2),
		invoice.IssuedAt,
		invoice.MaturityDate,
		string(invoice.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

// ListForUpdate retrieves and locks the invoices with the given IDs.
// ORDER BY id keeps the lock acquisition order stable across concurrent
// transitions touching overlapping invoice sets.
func (r *invoiceRepository) ListForUpdate(ctx context.Context, ids []uuid.UUID) ([]*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// ListByOperationForUpdate retrieves and locks the invoices pledged in an
// operation, ordered ascending by ID.
func (r *invoiceRepository) ListByOperationForUpdate(ctx context.Context, operationID uuid.UUID) ([]*domain.Invoice, error) {
	query := `
		SELECT ` + qualifiedInvoiceColumns + `
		FROM invoices i
		JOIN operation_invoices oi ON oi.invoice_id = i.id
		WHERE oi.operation_id = $1
		ORDER BY i.id
		FOR UPDATE OF i
	`

	rows, err := r.q.QueryContext(ctx, query, operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list operation invoices: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

const qualifiedInvoiceColumns = `i.id, i.client_id, i.number, i.debtor_rut, i.debtor_name, i.principal, i.issued_at, i.maturity_date, i.status`

// UpdateStatus sets the status of a single invoice
func (r *invoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE invoices SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	return requireRow(result, "invoice", id)
}

// UpdateStatusBulk sets the status of every invoice in ids
func (r *invoiceRepository) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status domain.InvoiceStatus) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE invoices SET status = $2 WHERE id = ANY($1)`, pq.Array(uuidStrings(ids)), string(status))
	if err != nil {
		return fmt.Errorf("failed to update invoice statuses: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var (
		invoice      domain.Invoice
		principalStr string
	)

	err := row.Scan(
		&invoice.ID,
		&invoice.ClientID,
		&invoice.Number,
		&invoice.DebtorRUT,
		&invoice.DebtorName,
		&principalStr,
		&invoice.IssuedAt,
		&invoice.MaturityDate,
		&invoice.Status,
	)
	if err != nil {
		return nil, err
	}

	if invoice.Principal, err = decimal.NewFromString(principalStr); err != nil {
		return nil, fmt.Errorf("failed to parse principal: %w", err)
	}
	return &invoice, nil
}

func collectInvoices(rows *sql.Rows) ([]*domain.Invoice, error) {
	var out []*domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		out = append(out, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return out, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
