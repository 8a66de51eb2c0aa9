package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"dailyfix/config"
	"dailyfix/pkg/db"
	"dailyfix/pkg/mq"
)

// env lazily wires the pieces a subcommand needs. Commands that only
// publish an event never open a database connection, and vice versa.
type env struct {
	cfg    *config.Config
	logger *zap.Logger

	pool      *pgxpool.Pool
	publisher *mq.Publisher
}

func newEnv() *env {
	return &env{
		cfg:    config.Load(),
		logger: zap.NewNop(), // CLI output goes to stdout, not the log
	}
}

func (e *env) db() (*pgxpool.Pool, error) {
	if e.pool != nil {
		return e.pool, nil
	}
	pool, err := db.NewConnection(e.cfg.DB, e.logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	e.pool = pool
	return pool, nil
}

func (e *env) mq() (*mq.Publisher, error) {
	if e.publisher != nil {
		return e.publisher, nil
	}
	pub, err := mq.NewPublisher(e.cfg.MQ.URL)
	if err != nil {
		return nil, fmt.Errorf("connect broker: %w", err)
	}
	e.publisher = pub
	return pub, nil
}

func (e *env) close() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.publisher != nil {
		e.publisher.Close()
	}
}

func (e *env) run(fn func(ctx context.Context) error) error {
	defer e.close()
	return fn(context.Background())
}
