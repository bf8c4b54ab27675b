// Command sweeper runs the offer expiry worker: asynq tasks scheduled at
// each offer's window close, plus the periodic safety sweep.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	casesrepo "leadmarket_backend/internal/cases/repository"
	"leadmarket_backend/internal/email"
	"leadmarket_backend/internal/events"
	marketrepo "leadmarket_backend/internal/marketplace/repository"
	marketsvc "leadmarket_backend/internal/marketplace/service"
	"leadmarket_backend/internal/notification"
	prorepo "leadmarket_backend/internal/professionals/repository"
	"leadmarket_backend/internal/scheduler"
	"leadmarket_backend/internal/whatsapp"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/db"
	"leadmarket_backend/platform/logger"
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
	if cfg.GetRedisURL() == "" {
		return fmt.Errorf("REDIS_URL is required for the sweeper")
	}

	log := logger.New(cfg.Env)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("connect task queue: %w", err)
	}
	defer client.Close()

	bus := events.NewInMemoryBus(log)
	notification.New(bus, email.NewSender(cfg), whatsapp.NewClient(cfg), log)

	// Expired offers re-enter the rotation through the same service the API
	// uses, so re-offers here schedule their own expiry tasks and notify.
	svc := marketsvc.New(
		marketrepo.New(pool),
		casesrepo.New(pool),
		prorepo.New(pool),
		client,
		bus,
		cfg,
		log,
	)

	worker, err := scheduler.NewWorker(cfg, cfg, svc, log)
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}

	log.Info("sweeper running",
		"queue", cfg.GetAsynqQueueName(),
		"sweep_interval", cfg.GetSweepInterval().String(),
	)
	return worker.Run(ctx)
}
