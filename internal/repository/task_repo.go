package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	contracts "dailyfix/contracts/mq"
	"dailyfix/internal/fault"
	"dailyfix/internal/model"
	"dailyfix/pkg/outbox"
)

type TaskRepository struct {
	db           *pgxpool.Pool
	activityRepo *ActivityLogRepository
	interactRepo *InteractionRepository
	outbox       *outbox.Repository
	logger       *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, activityRepo *ActivityLogRepository, interactRepo *InteractionRepository, outboxRepo *outbox.Repository, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{
		db:           db,
		activityRepo: activityRepo,
		interactRepo: interactRepo,
		outbox:       outboxRepo,
		logger:       logger,
	}
}

// CreateWithLog inserts the task, its CREATED audit entry and the
// task.created outbox event in one transaction: all persist or none do.
func (r *TaskRepository) CreateWithLog(ctx context.Context, t *model.Task, entry *model.ActivityLog) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO tasks
            (title, description, priority, status, assignee, source_message_id,
             created_at, due_at, completed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	err = tx.QueryRow(ctx, query,
		t.Title,
		t.Description,
		t.Priority,
		t.Status,
		t.Assignee,
		t.SourceMessageID,
		t.CreatedAt,
		t.DueAt,
		t.CompletedAt,
	).Scan(&t.ID)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	entry.TaskID = t.ID
	if err := r.activityRepo.InsertTx(ctx, tx, entry); err != nil {
		return 0, fmt.Errorf("insert activity log: %w", err)
	}

	event := contracts.TaskCreatedPayload{
		TaskID:    t.ID,
		MessageID: t.SourceMessageID,
		Assignee:  t.Assignee,
		Title:     t.Title,
		Priority:  string(t.Priority),
		DueAt:     t.DueAt,
	}
	if err := r.outbox.InsertTx(ctx, tx, "task.created", event); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("Task inserted",
		zap.Int64("task_id", t.ID),
		zap.Int64("source_message_id", t.SourceMessageID),
		zap.String("priority", string(t.Priority)),
		zap.String("assignee", t.Assignee),
	)
	return t.ID, nil
}

// Mutate runs a read-modify-write on one task row under FOR UPDATE. The
// mutate callback validates the transition against the current row; when
// it errors the transaction rolls back untouched. The audit entry and the
// optional interaction commit atomically with the row update.
func (r *TaskRepository) Mutate(
	ctx context.Context,
	taskID int64,
	mutate func(t *model.Task) error,
	entry *model.ActivityLog,
	interaction *model.MessageInteraction,
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	t, err := scanTask(tx.QueryRow(ctx, selectTask+` WHERE id = $1 FOR UPDATE`, taskID))
	if errors.Is(err, pgx.ErrNoRows) {
		return fault.NotFoundf("task %d", taskID)
	}
	if err != nil {
		return fmt.Errorf("lock task: %w", err)
	}

	if err := mutate(t); err != nil {
		return err
	}

	update := `
        UPDATE tasks
        SET status = $1, assignee = $2, completed_at = $3
        WHERE id = $4
    `
	if _, err := tx.Exec(ctx, update, t.Status, t.Assignee, t.CompletedAt, t.ID); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	entry.TaskID = t.ID
	if err := r.activityRepo.InsertTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}

	if interaction != nil {
		interaction.MessageID = t.SourceMessageID
		if err := r.interactRepo.InsertTx(ctx, tx, interaction); err != nil {
			return fmt.Errorf("insert interaction: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("Task mutated",
		zap.Int64("task_id", t.ID),
		zap.String("status", string(t.Status)),
		zap.String("action", string(entry.Action)),
	)
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, selectTask+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("task %d", id)
	}
	return t, err
}

// ExistsForMessage reports whether a task already references the message.
func (r *TaskRepository) ExistsForMessage(ctx context.Context, messageID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tasks WHERE source_message_id = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, messageID).Scan(&exists)
	return exists, err
}

func (r *TaskRepository) ListByAssignee(ctx context.Context, assignee string) ([]model.Task, error) {
	return r.list(ctx, selectTask+` WHERE assignee = $1 ORDER BY created_at DESC`, assignee)
}

func (r *TaskRepository) ListByStatus(ctx context.Context, status model.TaskStatus) ([]model.Task, error) {
	return r.list(ctx, selectTask+` WHERE status = $1 ORDER BY created_at DESC`, string(status))
}

func (r *TaskRepository) FindBySourceMessageAndAssignee(ctx context.Context, messageID int64, assignee string) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx,
		selectTask+` WHERE source_message_id = $1 AND assignee = $2`, messageID, assignee))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("task for message %d assigned to %s", messageID, assignee)
	}
	return t, err
}

const selectTask = `
        SELECT id, title, description, priority, status, assignee,
               source_message_id, created_at, due_at, completed_at
        FROM tasks`

func (r *TaskRepository) list(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.Assignee,
		&t.SourceMessageID,
		&t.CreatedAt,
		&t.DueAt,
		&t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
