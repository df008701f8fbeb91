package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// operationRepository implements domain.OperationRepository
type operationRepository struct {
	q querier
}

// NewOperationRepository creates an operation repository bound to the connection
func NewOperationRepository(db *DB) domain.OperationRepository {
	return &operationRepository{q: db}
}

const operationColumns = `id, client_id, requested_at, approved_at, disbursed_at, completed_at,
	principal_total, discount_rate, discount_amount, payout_amount, status, rejection_reason`

// Create persists a new operation together with its invoice links.
// The join rows' primary key rejects the same invoice appearing twice.
func (r *operationRepository) Create(ctx context.Context, op *domain.Operation) error {
	insertOp := `
		INSERT INTO operations (id, client_id, requested_at, approved_at, disbursed_at, completed_at,
			principal_total, discount_rate, discount_amount, payout_amount, status, rejection_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, insertOp,
		op.ID,
		op.ClientID,
		op.RequestedAt,
		op.ApprovedAt,
		op.DisbursedAt,
		op.CompletedAt,
		op.PrincipalTotal.StringFixed(2),
		op.DiscountRate.StringFixed(2),
		op.DiscountAmount.StringFixed(2),
		op.PayoutAmount.StringFixed(2),
		string(op.Status),
		op.RejectionReason,
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation: %w", err)
	}

	insertLink := `INSERT INTO operation_invoices (operation_id, invoice_id, position) VALUES ($1, $2, $3)`
	for i, invoiceID := range op.InvoiceIDs {
		if _, err := r.q.ExecContext(ctx, insertLink, op.ID, invoiceID, i); err != nil {
			return fmt.Errorf("failed to link invoice %s: %w", invoiceID, err)
		}
	}
	return nil
}

// GetByID retrieves an operation with its pledged invoice IDs
func (r *operationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE id = $1`
	return r.getOne(ctx, id, query)
}

// GetForUpdate retrieves an operation and takes an exclusive row lock
func (r *operationRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, id, query)
}

func (r *operationRepository) getOne(ctx context.Context, id uuid.UUID, query string) (*domain.Operation, error) {
	op, err := scanOperation(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("operation", id)
		}
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}

	if op.InvoiceIDs, err = r.invoiceIDs(ctx, id); err != nil {
		return nil, err
	}
	return op, nil
}

func (r *operationRepository) invoiceIDs(ctx context.Context, operationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT invoice_id FROM operation_invoices WHERE operation_id = $1 ORDER BY position`, operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list operation invoice ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan invoice id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoice ids: %w", err)
	}
	return ids, nil
}

// Update persists the mutable fields of an operation. The financial
// snapshot is frozen at creation and deliberately not part of this UPDATE.
func (r *operationRepository) Update(ctx context.Context, op *domain.Operation) error {
	query := `
		UPDATE operations
		SET status = $2, approved_at = $3, disbursed_at = $4, completed_at = $5, rejection_reason = $6
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query,
		op.ID,
		string(op.Status),
		op.ApprovedAt,
		op.DisbursedAt,
		op.CompletedAt,
		op.RejectionReason,
	)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}
	return requireRow(result, "operation", op.ID)
}

// List retrieves operations matching the filter, newest first
func (r *operationRepository) List(ctx context.Context, filter domain.OperationFilter) ([]*domain.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE 1=1`
	var args []any

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY requested_at DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var ops []*domain.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}

	for _, op := range ops {
		if op.InvoiceIDs, err = r.invoiceIDs(ctx, op.ID); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

func scanOperation(row rowScanner) (*domain.Operation, error) {
	var (
		op        domain.Operation
		principal string
		rate      string
		discount  string
		payout    string
		approved  sql.NullTime
		disbursed sql.NullTime
		completed sql.NullTime
	)

	err := row.Scan(
		&op.ID,
		&op.ClientID,
		&op.RequestedAt,
		&approved,
		&disbursed,
		&completed,
		&principal,
		&rate,
		&discount,
		&payout,
		&op.Status,
		&op.RejectionReason,
	)
	if err != nil {
		return nil, err
	}

	if approved.Valid {
		op.ApprovedAt = &approved.Time
	}
	if disbursed.Valid {
		op.DisbursedAt = &disbursed.Time
	}
	if completed.Valid {
		op.CompletedAt = &completed.Time
	}

	if op.PrincipalTotal, err = decimal.NewFromString(principal); err != nil {
		return nil, fmt.Errorf("failed to parse principal_total: %w", err)
	}
	if op.DiscountRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("failed to parse discount_rate: %w", err)
	}
	if op.DiscountAmount, err = decimal.NewFromString(discount); err != nil {
		return nil, fmt.Errorf("failed to parse discount_amount: %w", err)
	}
	if op.PayoutAmount, err = decimal.NewFromString(payout); err != nil {
		return nil, fmt.Errorf("failed to parse payout_amount: %w", err)
	}
	return &op, nil
}
