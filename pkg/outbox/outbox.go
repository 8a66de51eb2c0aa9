// Package outbox implements the transactional outbox pattern: events are
// inserted in the same transaction as the state change that produces
// them, and a dispatcher publishes them to the broker afterwards. This
// gives at-least-once delivery without dual-write races.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

type Event struct {
	ID          int64
	RoutingKey  string
	Payload     json.RawMessage
	Status      string
	RetryCount  int
	NextRetryAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// InsertTx stores an event inside the caller's transaction so it commits
// or rolls back together with the state change it announces.
func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	query := `
        INSERT INTO outbox_events (routing_key, payload, status)
        VALUES ($1, $2, $3)
    `
	if _, err := tx.Exec(ctx, query, routingKey, body, StatusPending); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

const selectEvent = `
        SELECT id, routing_key, payload, status, retry_count, next_retry_at, created_at, updated_at
        FROM outbox_events
    `

// ListPending returns events due for publishing, oldest first.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]*Event, error) {
	query := selectEvent + `
        WHERE status = 'pending'
          AND (next_retry_at IS NULL OR next_retry_at <= NOW())
        ORDER BY created_at
        LIMIT $1
    `
	return r.list(ctx, query, limit)
}

// ListFailed returns events that exhausted their retries.
func (r *Repository) ListFailed(ctx context.Context, limit int) ([]*Event, error) {
	query := selectEvent + `
        WHERE status = 'failed'
        ORDER BY created_at DESC
        LIMIT $1
    `
	return r.list(ctx, query, limit)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.RoutingKey, &e.Payload, &e.Status,
			&e.RetryCount, &e.NextRetryAt, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *Repository) MarkSent(ctx context.Context, eventID int64) error {
	_, err := r.db.Exec(ctx, `
        UPDATE outbox_events
        SET status = 'sent', updated_at = NOW()
        WHERE id = $1
    `, eventID)
	return err
}

// MarkFailed bumps the retry counter with linear backoff; once the
// counter reaches maxRetries the event parks as failed until replayed.
func (r *Repository) MarkFailed(ctx context.Context, eventID int64, maxRetries int) error {
	var retryCount int
	err := r.db.QueryRow(ctx,
		`SELECT retry_count FROM outbox_events WHERE id = $1`, eventID,
	).Scan(&retryCount)
	if err != nil {
		return fmt.Errorf("read retry count: %w", err)
	}

	retryCount++
	status := StatusPending
	var nextRetryAt *time.Time
	if retryCount >= maxRetries {
		status = StatusFailed
	} else {
		next := time.Now().Add(time.Duration(retryCount) * 5 * time.Second)
		nextRetryAt = &next
	}

	_, err = r.db.Exec(ctx, `
        UPDATE outbox_events
        SET status = $1, retry_count = $2, next_retry_at = $3, updated_at = NOW()
        WHERE id = $4
    `, status, retryCount, nextRetryAt, eventID)
	return err
}

// Replay resets a failed event so the dispatcher picks it up again.
func (r *Repository) Replay(ctx context.Context, eventID int64) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE outbox_events
        SET status = 'pending', retry_count = 0, next_retry_at = NULL, updated_at = NOW()
        WHERE id = $1
    `, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("outbox event %d not found", eventID)
	}
	return nil
}
