package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/bookkeeper/internal/config"
	"github.com/mmynk/bookkeeper/internal/middleware"
	"github.com/mmynk/bookkeeper/internal/models"
	"github.com/mmynk/bookkeeper/internal/repl"
	"github.com/mmynk/bookkeeper/internal/service"
	"github.com/mmynk/bookkeeper/internal/storage"
	"github.com/mmynk/bookkeeper/internal/storage/memory"
	"github.com/mmynk/bookkeeper/internal/storage/sqlite"
	"github.com/mmynk/bookkeeper/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.Setup(cfg.LogLevel).With("session_id", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.Backend == config.BackendSQLite {
		var err error
		db, err = sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("Storage initialized", "database", cfg.DBPath)
	}

	var (
		reg     *prometheus.Registry
		metrics *middleware.Metrics
	)
	if cfg.Metrics {
		reg = prometheus.NewRegistry()
		metrics = middleware.NewMetrics(reg)
	}

	stack := stackConfig{ctx: ctx, db: db, logger: logger, metrics: metrics}
	categories, err := open(stack, models.CategorySchema())
	if err != nil {
		return err
	}
	expenses, err := open(stack, models.ExpenseSchema())
	if err != nil {
		return err
	}
	budgets, err := open(stack, models.BudgetSchema())
	if err != nil {
		return err
	}

	presenter := service.New(categories, expenses, budgets, service.WithLogger(logger))

	var opts []repl.Option
	if reg != nil {
		opts = append(opts, repl.WithGatherer(reg))
	}
	view := repl.New(os.Stdin, os.Stdout, presenter.Handlers(), opts...)
	if err := presenter.Start(ctx, view); err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	logger.Info("Session started", "backend", cfg.Backend)
	err = view.Run(ctx)
	logger.Info("Session ended")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type stackConfig struct {
	ctx     context.Context
	db      *sql.DB
	logger  *slog.Logger
	metrics *middleware.Metrics
}

// open builds the repository for schema on the configured backend and wraps
// it with logging and, when enabled, metrics.
func open[T any](s stackConfig, schema storage.Schema[T]) (storage.Repository[T], error) {
	var repo storage.Repository[T]
	if s.db != nil {
		r, err := sqlite.New(s.ctx, s.db, schema)
		if err != nil {
			return nil, err
		}
		repo = r
	} else {
		r, err := memory.New(schema)
		if err != nil {
			return nil, err
		}
		repo = r
	}

	repo = middleware.WithLogging(repo, schema.Table, s.logger)
	if s.metrics != nil {
		repo = middleware.WithMetrics(repo, schema.Table, s.metrics)
	}
	return repo, nil
}
