package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyfix/internal/model"
)

// ActivityLogRepository is append-only: entries are never updated or
// deleted. The Tx variants run inside a caller-owned transaction so audit
// entries commit together with the state change they record.
type ActivityLogRepository struct {
	db *pgxpool.Pool
}

func NewActivityLogRepository(db *pgxpool.Pool) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

const insertActivitySQL = `
        INSERT INTO activity_log (task_id, action, performed_by, performed_at, remarks)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `

func (r *ActivityLogRepository) Insert(ctx context.Context, e *model.ActivityLog) error {
	return r.db.QueryRow(ctx, insertActivitySQL,
		e.TaskID, e.Action, e.PerformedBy, e.PerformedAt, e.Remarks,
	).Scan(&e.ID)
}

func (r *ActivityLogRepository) InsertTx(ctx context.Context, tx pgx.Tx, e *model.ActivityLog) error {
	return tx.QueryRow(ctx, insertActivitySQL,
		e.TaskID, e.Action, e.PerformedBy, e.PerformedAt, e.Remarks,
	).Scan(&e.ID)
}

func (r *ActivityLogRepository) ListByTask(ctx context.Context, taskID int64) ([]model.ActivityLog, error) {
	query := `
        SELECT id, task_id, action, performed_by, performed_at, remarks
        FROM activity_log
        WHERE task_id = $1
        ORDER BY performed_at
    `
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.ActivityLog{}
	for rows.Next() {
		var e model.ActivityLog
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Action, &e.PerformedBy, &e.PerformedAt, &e.Remarks); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type InteractionRepository struct {
	db *pgxpool.Pool
}

func NewInteractionRepository(db *pgxpool.Pool) *InteractionRepository {
	return &InteractionRepository{db: db}
}

const insertInteractionSQL = `
        INSERT INTO message_interactions (message_id, user_email, action, interacted_at, feedback_notes)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `

func (r *InteractionRepository) Insert(ctx context.Context, i *model.MessageInteraction) error {
	return r.db.QueryRow(ctx, insertInteractionSQL,
		i.MessageID, i.UserEmail, i.Action, i.InteractedAt, i.FeedbackNotes,
	).Scan(&i.ID)
}

func (r *InteractionRepository) InsertTx(ctx context.Context, tx pgx.Tx, i *model.MessageInteraction) error {
	return tx.QueryRow(ctx, insertInteractionSQL,
		i.MessageID, i.UserEmail, i.Action, i.InteractedAt, i.FeedbackNotes,
	).Scan(&i.ID)
}

// CountsByDomain aggregates interactions across all messages from one
// sender domain. This is the behavioral signal the priority engine
// consumes; total spans every interaction type.
func (r *InteractionRepository) CountsByDomain(ctx context.Context, domain string) (opened, ignored, total int64, err error) {
	query := `
        SELECT
            COUNT(*) FILTER (WHERE i.action = 'OPENED'),
            COUNT(*) FILTER (WHERE i.action = 'IGNORED'),
            COUNT(*)
        FROM message_interactions i
        JOIN messages m ON m.id = i.message_id
        WHERE m.sender_domain = $1
    `
	err = r.db.QueryRow(ctx, query, domain).Scan(&opened, &ignored, &total)
	return opened, ignored, total, err
}
