package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyfix/internal/fault"
	"dailyfix/internal/model"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Insert(ctx context.Context, m *model.Message) (int64, error) {
	query := `
        INSERT INTO messages
            (user_email, sender_email, sender_domain, source_type, subject,
             body, received_at, intent, priority, processed, source_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, query,
		m.UserEmail,
		m.SenderEmail,
		m.SenderDomain,
		m.SourceType,
		m.Subject,
		m.Body,
		m.ReceivedAt,
		nullIfEmpty(string(m.Intent)),
		nullIfEmpty(string(m.Priority)),
		m.Processed,
		m.SourceID,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	m.ID = id
	return id, nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*model.Message, error) {
	query := selectMessage + ` WHERE id = $1`
	m, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("message %d", id)
	}
	return m, err
}

// ExistsBySourceID reports whether a message with the connector-provided
// identifier is already stored.
func (r *MessageRepository) ExistsBySourceID(ctx context.Context, sourceID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM messages WHERE source_id = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, sourceID).Scan(&exists)
	return exists, err
}

// UpdateClassification records the scoring outcome for a message.
func (r *MessageRepository) UpdateClassification(ctx context.Context, id int64, intent model.Intent, priority model.Priority, processed bool) error {
	query := `
        UPDATE messages
        SET intent = $1, priority = $2, processed = $3
        WHERE id = $4
    `
	tag, err := r.db.Exec(ctx, query, nullIfEmpty(string(intent)), nullIfEmpty(string(priority)), processed, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("message %d", id)
	}
	return nil
}

func (r *MessageRepository) SetProcessed(ctx context.Context, id int64, processed bool) error {
	query := `UPDATE messages SET processed = $1 WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, processed, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("message %d", id)
	}
	return nil
}

func (r *MessageRepository) ListByUser(ctx context.Context, userEmail string) ([]model.Message, error) {
	query := selectMessage + ` WHERE user_email = $1 ORDER BY received_at DESC`
	return r.list(ctx, query, userEmail)
}

func (r *MessageRepository) ListByUserAndPriority(ctx context.Context, userEmail string, priority model.Priority) ([]model.Message, error) {
	query := selectMessage + ` WHERE user_email = $1 AND priority = $2 ORDER BY received_at DESC`
	return r.list(ctx, query, userEmail, string(priority))
}

func (r *MessageRepository) ListUnprocessed(ctx context.Context) ([]model.Message, error) {
	query := selectMessage + ` WHERE processed = FALSE ORDER BY received_at`
	return r.list(ctx, query)
}

const selectMessage = `
        SELECT id, user_email, sender_email, sender_domain, source_type,
               subject, body, received_at, intent, priority, processed, source_id
        FROM messages`

func (r *MessageRepository) list(ctx context.Context, query string, args ...any) ([]model.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var m model.Message
	var intent, priority *string
	err := row.Scan(
		&m.ID,
		&m.UserEmail,
		&m.SenderEmail,
		&m.SenderDomain,
		&m.SourceType,
		&m.Subject,
		&m.Body,
		&m.ReceivedAt,
		&intent,
		&priority,
		&m.Processed,
		&m.SourceID,
	)
	if err != nil {
		return nil, err
	}
	if intent != nil {
		m.Intent = model.Intent(*intent)
	}
	if priority != nil {
		m.Priority = model.Priority(*priority)
	}
	return &m, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
