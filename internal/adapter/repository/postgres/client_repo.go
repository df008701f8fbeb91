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

// clientRepository implements domain.ClientRepository
type clientRepository struct {
	q querier
}

// NewClientRepository creates a client repository bound to the connection
// (outside any transaction; use a UnitOfWork for locking reads).
func NewClientRepository(db *DB) domain.ClientRepository {
	return &clientRepository{q: db}
}

const clientColumns = `id, rut, legal_name, email, credit_limit, credit_available, status, registered_at`

// GetByID retrieves a client by its ID
func (r *clientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return r.scanClient(ctx, id, query)
}

// GetForUpdate retrieves a client and takes an exclusive row lock
func (r *clientRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 FOR UPDATE`
	return r.scanClient(ctx, id, query)
}

func (r *clientRepository) scanClient(ctx context.Context, id uuid.UUID, query string) (*domain.Client, error) {
	var (
		client       domain.Client
		limitStr     string
		availableStr string
	)

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&client.ID,
		&client.RUT,
		&client.LegalName,
		&client.Email,
		&limitStr,
		&availableStr,
		&client.Status,
		&client.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("client", id)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	if client.CreditLimit, err = decimal.NewFromString(limitStr); err != nil {
		return nil, fmt.Errorf("failed to parse credit_limit: %w", err)
	}
	if client.CreditAvailable, err = decimal.NewFromString(availableStr); err != nil {
		return nil, fmt.Errorf("failed to parse credit_available: %w", err)
	}
	return &client, nil
}

// Create creates a new client
func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	query := `
		INSERT INTO clients (id, rut, legal_name, email, credit_limit, credit_available, status, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		client.ID,
		client.RUT,
		client.LegalName,
		client.Email,
		client.CreditLimit.StringFixed(2),
		client.CreditAvailable.StringFixed(2),
		string(client.Status),
		client.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert client: %w", err)
	}
	return nil
}

// UpdateStatus sets the client lifecycle status
func (r *clientRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ClientStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE clients SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update client status: %w", err)
	}
	return requireRow(result, "client", id)
}

// UpdateCreditAvailable sets the available portion of the credit line
func (r *clientRepository) UpdateCreditAvailable(ctx context.Context, id uuid.UUID, available decimal.Decimal) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE clients SET credit_available = $2 WHERE id = $1`, id, available.StringFixed(2))
	if err != nil {
		return fmt.Errorf("failed to update credit_available: %w", err)
	}
	return requireRow(result, "client", id)
}

// requireRow converts a zero-row UPDATE into a NotFoundError
func requireRow(result sql.Result, entity string, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return domain.NewNotFoundError(entity, id)
	}
	return nil
}
