// Package cli provides the initialization shared by the fintrack commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/store/memory"
)

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	logger := log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		JSON:   cfg.LogFormat == "json",
		Output: os.Stderr,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App holds the wired services of one process.
type App struct {
	Store    *memory.Store
	Ledger   *services.LedgerService
	Transfer *services.TransferService
	// KV is nil with the memory backend.
	KV *storage.SQLiteKV

	closers []func() error
}

// Options selects the optional integrations Open should connect.
type Options struct {
	Publisher bool
	Sheets    bool
}

// Open builds the store and services described by cfg.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger, opts Options) (*App, error) {
	app := &App{}

	switch cfg.DataBackend {
	case config.BackendSQLite:
		kv, err := storage.NewSQLiteKV(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		app.KV = kv
		app.closers = append(app.closers, kv.Close)

		st, err := memory.Open(ctx, kv)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("load ledger: %w", err)
		}
		app.Store = st
		logger.WithComponent(log.ComponentStorage).Info("SQLite storage ready",
			"path", cfg.SQLiteDBPath,
			"schema_version", kv.SchemaVersion())
	default:
		app.Store = memory.New(nil)
	}

	transferOpts := []services.TransferOption{
		services.WithStrictJSON(cfg.StrictJSON),
		services.WithMaxImportBytes(cfg.MaxImportBytes),
	}

	if opts.Publisher && cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Import events are optional; the ledger works without a broker.
			logger.WithComponent(log.ComponentAMQP).Warn("AMQP unavailable, import events disabled", log.FieldError, err)
		} else {
			app.closers = append(app.closers, client.Close)
			transferOpts = append(transferOpts, services.WithPublisher(client))
		}
	}

	if opts.Sheets && cfg.SheetsEnabled() {
		exporter, err := google.New(ctx, google.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("google sheets: %w", err)
		}
		transferOpts = append(transferOpts, services.WithSheetsExporter(exporter))
	}

	app.Ledger = services.NewLedgerService(app.Store, services.NewID)
	app.Transfer = services.NewTransferService(app.Store, transferOpts...)
	return app, nil
}

// Close releases the connections opened by Open, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		if parent.Err() == nil {
			logger.Info("Shutdown signal received")
		}
	}()
	return ctx, cancel
}
