/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance engine HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Open the store selected by DB_DRIVER (SQLite or PostgreSQL)
  3. Hydrate the policy registry from the policies table,
     importing POLICIES_FILE and seeding presets when empty
  4. Build the leave ledger, attendance service and API handler
  5. Start the daily report scheduler when REPORT_DIR is set
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -addr    HTTP listen address (overrides APP_ADDR)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database
  -env     Path to a .env file (default: .env)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (SHUTDOWN_TIMEOUT)
  3. Stop the scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/attendance.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -addr=":3000"

ENVIRONMENT:
  See config/config.go for the full list.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - storage.go: driver selection
  - store/sqlite/sqlite.go, store/postgres/postgres.go: Database implementations
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/report"
)

func main() {
	// Flags
	envFile := flag.String("env", ".env", "Path to a .env file")
	addr := flag.String("addr", "", "HTTP listen address (overrides APP_ADDR)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	flag.Parse()

	cfg := config.Load(*envFile)
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	// Initialize store
	store, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.close()

	employees := store.employees

	policies, err := loadPolicies(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	ledger, err := leave.NewLedger(ctx, store.leaves, employees,
		leave.WithAudit(store.audit),
		leave.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to open leave ledger: %w", err)
	}

	svc := &attendance.Service{
		Policies:      policies,
		Ledger:        attendance.NewLedger(store.outcomes),
		Employees:     employees,
		Audit:         store.audit,
		RolePolicies:  cfg.RolePolicies,
		DefaultPolicy: cfg.DefaultPolicy,
		Logger:        logger,
	}
	if cfg.LeaveOverrides {
		svc.Leave = ledger
	}

	handler := api.NewHandler(policies, svc, ledger, employees)
	handler.MaxBodyBytes = cfg.MaxBodyBytes
	handler.Logger = logger

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.CORSOrigins,
		Health:         store.health,
	})

	var scheduler *api.ReportScheduler
	if cfg.ReportDir != "" {
		scheduler = api.NewReportScheduler(report.NewAggregator(svc.Ledger), cfg.ReportDir, logger)
		scheduler.CheckInterval = cfg.ReportInterval
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "driver", cfg.DBDriver, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// loadPolicies hydrates the registry from the database. On an empty
// database it imports POLICIES_FILE, or the built-in presets without one.
// Either way the default policy must exist afterwards.
func loadPolicies(ctx context.Context, cfg config.Config, store *backend, logger *slog.Logger) (*attendance.PolicyRegistry, error) {
	registry := attendance.NewPolicyRegistry(store.audit, logger)

	stored, err := store.policies.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	if err := registry.Load(stored...); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	registry.SetPersister(store.policies)

	if len(stored) == 0 {
		switch {
		case cfg.PoliciesFile != "":
			data, err := os.ReadFile(cfg.PoliciesFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read policies file: %w", err)
			}
			n, err := factory.ImportPolicies(ctx, registry, data)
			if err != nil {
				return nil, fmt.Errorf("failed to import %s: %w", cfg.PoliciesFile, err)
			}
			logger.Info("policies imported", "file", cfg.PoliciesFile, "count", n)
		default:
			for _, p := range attendance.Presets() {
				if err := registry.Add(ctx, p); err != nil {
					return nil, fmt.Errorf("failed to seed policy %s: %w", p.Name, err)
				}
			}
			logger.Info("seeded preset policies")
		}
	} else {
		logger.Info("policies loaded", "count", len(stored))
	}

	if _, err := registry.Get(ctx, cfg.DefaultPolicy); err != nil {
		return nil, fmt.Errorf("default policy %q: %w", cfg.DefaultPolicy, err)
	}
	return registry, nil
}
