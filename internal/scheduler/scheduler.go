// Package scheduler drives periodic mail syncs for every active user.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dailyfix/internal/model"
	"dailyfix/pkg/metrics"
)

type Ingester interface {
	Ingest(ctx context.Context, userEmail string) (int, error)
}

type UserLister interface {
	ListActive(ctx context.Context) ([]model.User, error)
}

type Scheduler struct {
	ingester    Ingester
	users       UserLister
	interval    time.Duration
	parallelism int
	logger      *zap.Logger
}

func New(ingester Ingester, users UserLister, interval time.Duration, parallelism int, logger *zap.Logger) *Scheduler {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Scheduler{
		ingester:    ingester,
		users:       users,
		interval:    interval,
		parallelism: parallelism,
		logger:      logger,
	}
}

// Run syncs immediately, then on every tick until the context ends.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sync scheduler started",
		zap.Duration("interval", s.interval),
		zap.Int("parallelism", s.parallelism),
	)

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce fans one sync pass out over all active users. Per-user failures
// are logged; one bad mailbox does not stop the rest.
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.RecordSyncRunDuration("periodic", time.Since(start))
	}()

	users, err := s.users.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active users for sync", zap.Error(err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, user := range users {
		email := user.Email
		g.Go(func() error {
			n, err := s.ingester.Ingest(gctx, email)
			if err != nil {
				s.logger.Error("Scheduled sync failed",
					zap.String("user", email),
					zap.Error(err),
				)
				// Swallow so sibling users still run.
				return nil
			}
			if n > 0 {
				s.logger.Info("Scheduled sync stored messages",
					zap.String("user", email),
					zap.Int("stored", n),
				)
			}
			return nil
		})
	}
	g.Wait()
}
