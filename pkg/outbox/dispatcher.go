package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Publisher is the broker half the dispatcher drains into.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// Dispatcher polls for pending events and publishes them. A publish
// failure backs the event off; the event row is only marked sent after
// the broker accepted it.
type Dispatcher struct {
	repo       *Repository
	publisher  Publisher
	logger     *zap.Logger
	maxRetries int
	interval   time.Duration
	batchSize  int
}

func NewDispatcher(repo *Repository, publisher Publisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		repo:       repo,
		publisher:  publisher,
		logger:     logger,
		maxRetries: 5,
		interval:   time.Second,
		batchSize:  100,
	}
}

func (d *Dispatcher) WithInterval(interval time.Duration) *Dispatcher {
	d.interval = interval
	return d
}

// Start blocks until the context ends; run it in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Outbox dispatcher started",
		zap.Duration("interval", d.interval),
		zap.Int("max_retries", d.maxRetries),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	events, err := d.repo.ListPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to list pending outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		// Payload is already JSON; Publish re-marshals the raw message
		// byte for byte.
		if err := d.publisher.Publish(event.RoutingKey, event.Payload); err != nil {
			d.logger.Error("Failed to publish outbox event",
				zap.Int64("event_id", event.ID),
				zap.String("routing_key", event.RoutingKey),
				zap.Error(err),
			)
			if err := d.repo.MarkFailed(ctx, event.ID, d.maxRetries); err != nil {
				d.logger.Error("Failed to back off outbox event",
					zap.Int64("event_id", event.ID),
					zap.Error(err),
				)
			}
			continue
		}

		if err := d.repo.MarkSent(ctx, event.ID); err != nil {
			d.logger.Error("Failed to mark outbox event sent",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
		}
	}
}
