package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/factorlink/factoring-backend/internal/adapter/api"
	"github.com/factorlink/factoring-backend/internal/adapter/repository/postgres"
	"github.com/factorlink/factoring-backend/internal/domain"
	"github.com/factorlink/factoring-backend/internal/usecase/client"
	"github.com/factorlink/factoring-backend/internal/usecase/invoice"
	"github.com/factorlink/factoring-backend/internal/usecase/operation"
	"github.com/factorlink/factoring-backend/internal/usecase/seeder"
)

const defaultHTTPAddr = ":8080"

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 1. Setup Database
	dbConnStr := os.Getenv("DB_CONN_STR")
	if dbConnStr == "" {
		// If explicit string is missing, build it from individual vars (Docker friendly)
		host := envOr("DB_HOST", "localhost")
		port := envOr("DB_PORT", "5432")
		user := envOr("DB_USER", "postgres")
		password := envOr("DB_PASSWORD", "postgres")
		dbname := envOr("DB_NAME", "factoring")

		dbConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}

	// Add 2-second delay to ensure Postgres is up (Simple retry)
	time.Sleep(2 * time.Second)

	db, err := postgres.NewDB(dbConnStr)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}

	// 2. Initialize Unit of Work and Services (Use Cases)
	uow := postgres.NewUnitOfWork(db)
	clock := domain.SystemClock()

	defaultRate, err := decimal.NewFromString(envOr("DEFAULT_DISCOUNT_RATE", "2.00"))
	if err != nil {
		logger.Fatal("invalid DEFAULT_DISCOUNT_RATE", zap.Error(err))
	}

	operationService := operation.NewService(uow, clock, defaultRate, logger)
	invoiceService := invoice.NewService(uow, logger)
	clientService := client.NewService(uow, logger)

	// Seed demo clients and invoices so the API is usable out of the box
	if err := seeder.NewSeeder(uow, clock).Seed(ctx); err != nil {
		logger.Fatal("failed to seed demo data", zap.Error(err))
	}
	logger.Info("demo data seeded")

	// 3. Start HTTP Server
	apiToken := os.Getenv("API_TOKEN")
	handler := api.NewHandler(operationService, invoiceService, clientService)
	router := api.NewRouter(handler, apiToken)

	addr := envOr("HTTP_ADDR", defaultHTTPAddr)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	waitForShutdown(server, logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server, logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("http server stopped")
}
