package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadmarket_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues marketplace tasks on the redis-backed queue.
type Client struct {
	client *asynq.Client
	queue  string
}

// RedisOpt translates the configured redis URL into asynq's connection
// options.
func RedisOpt(cfg config.SchedulerConfig) (asynq.RedisClientOpt, error) {
	parsed, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}
	return asynq.RedisClientOpt{
		Addr:     parsed.Addr,
		Username: parsed.Username,
		Password: parsed.Password,
		DB:       parsed.DB,
	}, nil
}

// NewClient creates a task queue client.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := RedisOpt(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
	}, nil
}

// ScheduleOfferExpiry enqueues an expiry task to run when the offer window
// closes. Duplicate schedules for the same assignment are harmless because
// expiry itself is idempotent.
func (c *Client) ScheduleOfferExpiry(ctx context.Context, assignmentID uuid.UUID, at time.Time) error {
	task, err := NewOfferExpiryTask(assignmentID)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(at),
		asynq.Queue(c.queue),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return fmt.Errorf("enqueue offer expiry: %w", err)
	}
	return nil
}

// Close releases the underlying redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
