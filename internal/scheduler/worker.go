package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Marketplace is the slice of the marketplace service the worker drives.
type Marketplace interface {
	ExpireOffer(ctx context.Context, assignmentID uuid.UUID) error
	ExpireDue(ctx context.Context) (int, error)
}

// Worker consumes expiry tasks and runs the periodic safety sweep.
type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	marketplace Marketplace
	sweepEvery  time.Duration
	log         *logger.Logger
}

// NewWorker creates the expiry worker.
func NewWorker(schedCfg config.SchedulerConfig, assignCfg config.AssignmentConfig, marketplace Marketplace, log *logger.Logger) (*Worker, error) {
	opt, err := RedisOpt(schedCfg)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: schedCfg.GetAsynqConcurrency(),
		Queues:      map[string]int{schedCfg.GetAsynqQueueName(): 1},
	})

	w := &Worker{
		server:      server,
		mux:         asynq.NewServeMux(),
		marketplace: marketplace,
		sweepEvery:  assignCfg.GetSweepInterval(),
		log:         log,
	}
	w.mux.HandleFunc(TypeOfferExpiry, w.handleOfferExpiry)
	w.mux.HandleFunc(TypeExpirySweep, w.handleExpirySweep)
	return w, nil
}

// Run starts the task server and the sweep ticker, blocking until ctx is
// cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start task server: %w", err)
	}

	ticker := time.NewTicker(w.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.server.Shutdown()
			return nil
		case <-ticker.C:
			n, err := w.marketplace.ExpireDue(ctx)
			if err != nil {
				w.log.Error("expiry sweep failed", "error", err.Error())
				continue
			}
			if n > 0 {
				w.log.Info("expiry sweep", "expired", n)
			}
		}
	}
}

func (w *Worker) handleOfferExpiry(ctx context.Context, task *asynq.Task) error {
	var payload OfferExpiryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal offer expiry payload: %w", err)
	}
	return w.marketplace.ExpireOffer(ctx, payload.AssignmentID)
}

func (w *Worker) handleExpirySweep(ctx context.Context, _ *asynq.Task) error {
	_, err := w.marketplace.ExpireDue(ctx)
	return err
}
