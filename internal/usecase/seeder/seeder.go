package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// Fixed UUIDs so the demo data set is stable across restarts
var (
	DemoClientAndes   = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	DemoClientPatagon = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

// Seeder loads a small demo data set: two active clients with credit lines
// and a handful of available invoices. Existing rows are left untouched, so
// seeding is idempotent.
type Seeder struct {
	uow   domain.UnitOfWork
	clock domain.Clock
}

// NewSeeder creates a new Seeder instance
func NewSeeder(uow domain.UnitOfWork, clock domain.Clock) *Seeder {
	return &Seeder{uow: uow, clock: clock}
}

// Seed ensures the demo clients and invoices exist
func (s *Seeder) Seed(ctx context.Context) error {
	today := s.clock.Today()

	clients := []*domain.Client{
		{
			ID:              DemoClientAndes,
			RUT:             "12.345.678-5",
			LegalName:       "Comercial Andes SpA",
			Email:           "finanzas@andes.cl",
			CreditLimit:     decimal.RequireFromString("300000.00"),
			CreditAvailable: decimal.RequireFromString("300000.00"),
			Status:          domain.ClientStatusActive,
			RegisteredAt:    s.clock.Now(),
		},
		{
			ID:              DemoClientPatagon,
			RUT:             "07.775.577-2",
			LegalName:       "Patagon Trading Ltda",
			Email:           "pagos@patagon.cl",
			CreditLimit:     decimal.RequireFromString("150000.00"),
			CreditAvailable: decimal.RequireFromString("150000.00"),
			Status:          domain.ClientStatusActive,
			RegisteredAt:    s.clock.Now(),
		},
	}

	invoices := []*domain.Invoice{
		demoInvoice(DemoClientAndes, "F-1001", "100000.00", today, 10),
		demoInvoice(DemoClientAndes, "F-1002", "200000.00", today, 40),
		demoInvoice(DemoClientPatagon, "F-2001", "50000.00", today, 25),
		demoInvoice(DemoClientPatagon, "F-2002", "75000.00", today, 60),
	}

	return s.uow.Execute(ctx, func(ctx context.Context, repos domain.Repositories) error {
		for _, c := range clients {
			_, err := repos.Clients.GetByID(ctx, c.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if err := repos.Clients.Create(ctx, c); err != nil {
				return err
			}
		}
		for _, inv := range invoices {
			_, err := repos.Invoices.GetByID(ctx, inv.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if err := repos.Invoices.Create(ctx, inv); err != nil {
				return err
			}
		}
		return nil
	})
}

func demoInvoice(clientID uuid.UUID, number, principal string, today time.Time, maturesInDays int) *domain.Invoice {
	// derive a stable id from the invoice number so reseeding never duplicates
	return &domain.Invoice{
		ID:           uuid.NewSHA1(clientID, []byte(number)),
		ClientID:     clientID,
		Number:       number,
		DebtorRUT:    "01.300.000-K",
		DebtorName:   "Deudora Nacional SA",
		Principal:    decimal.RequireFromString(principal),
		IssuedAt:     today.AddDate(0, 0, -15),
		MaturityDate: today.AddDate(0, 0, maturesInDays),
		Status:       domain.InvoiceStatusAvailable,
	}
}
