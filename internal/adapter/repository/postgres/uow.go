package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the repositories can run either standalone or inside a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// unitOfWork implements domain.UnitOfWork on a single SQL transaction.
// Row locks taken by the repositories (SELECT ... FOR UPDATE) are held until
// the transaction commits or rolls back, which is what gives the state
// machine its all-or-nothing semantics.
type unitOfWork struct {
	db *DB
}

// NewUnitOfWork creates a unit of work backed by the given connection
func NewUnitOfWork(db *DB) domain.UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repos := domain.Repositories{
		Clients:    &clientRepository{q: tx},
		Invoices:   &invoiceRepository{q: tx},
		Operations: &operationRepository{q: tx},
		Events:     &eventRepository{q: tx},
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
