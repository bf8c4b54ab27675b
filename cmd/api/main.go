// Command api runs the marketplace HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadmarket_backend/internal/auth"
	"leadmarket_backend/internal/cases"
	"leadmarket_backend/internal/cases/valuation"
	"leadmarket_backend/internal/email"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/exports"
	exportsvc "leadmarket_backend/internal/exports/service"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/http/router"
	"leadmarket_backend/internal/marketplace"
	marketsvc "leadmarket_backend/internal/marketplace/service"
	"leadmarket_backend/internal/notification"
	"leadmarket_backend/internal/professionals"
	"leadmarket_backend/internal/scheduler"
	"leadmarket_backend/internal/whatsapp"
	"leadmarket_backend/migrations"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/db"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/storage"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Env)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(ctx, cfg, migrations.FS); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pool, err := connectPool(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	fees, err := valuation.LoadTable(cfg.GetFeeTablePath())
	if err != nil {
		return fmt.Errorf("load fee table: %w", err)
	}

	val := validator.New()
	bus := events.NewInMemoryBus(log)

	// Optional infrastructure: task queue and object storage degrade to nil
	// when unconfigured, the sweep and the 503 response cover the gaps.
	var expiryScheduler marketsvc.ExpiryScheduler
	if cfg.GetRedisURL() != "" {
		client, err := scheduler.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("connect task queue: %w", err)
		}
		defer client.Close()
		expiryScheduler = client
	} else {
		log.Warn("REDIS_URL not set, offer expiry relies on the sweep only")
	}

	var uploader *storage.Client
	if cfg.IsStorageEnabled() {
		uploader, err = storage.NewClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect object storage: %w", err)
		}
	}

	professionalsModule := professionals.NewModule(pool, val)
	casesModule := cases.NewModule(pool, fees, bus, val)
	marketplaceModule := marketplace.NewModule(
		pool, casesModule.Repository(), professionalsModule.Repository(),
		expiryScheduler, bus, cfg, log, val,
	)
	authModule := auth.NewModule(professionalsModule.Repository(), cfg, log, val)

	// Typed nil must not leak into the interface, the export service checks
	// for nil to report storage as unavailable.
	var exportUploader exportsvc.Uploader
	if uploader != nil {
		exportUploader = uploader
	}
	exportsModule := exports.NewModule(marketplaceModule.Repository(), exportUploader, log)

	notification.New(bus, email.NewSender(cfg), whatsapp.NewClient(cfg), log)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: bus,
		Modules: []apphttp.Module{
			authModule,
			professionalsModule,
			casesModule,
			marketplaceModule,
			exportsModule,
		},
	}

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.GetHTTPAddr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// connectPool retries the initial connection so the API survives the database
// coming up a few seconds later in compose environments.
func connectPool(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pgxpool.Pool, error) {
	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err := db.NewPool(ctx, cfg)
		if err == nil {
			return pool, nil
		}
		lastErr = err
		log.Warn("database connection failed",
			"attempt", attempt, "error", err.Error())
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, lastErr
}
