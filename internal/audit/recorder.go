// Package audit is the feedback half of the pipeline: append-only task
// activity and message interactions, and the aggregate read the priority
// engine uses as its behavioral factor.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dailyfix/internal/model"
)

type InteractionStore interface {
	Insert(ctx context.Context, i *model.MessageInteraction) error
	CountsByDomain(ctx context.Context, domain string) (opened, ignored, total int64, err error)
}

type ActivityStore interface {
	Insert(ctx context.Context, e *model.ActivityLog) error
	ListByTask(ctx context.Context, taskID int64) ([]model.ActivityLog, error)
}

type Recorder struct {
	activities   ActivityStore
	interactions InteractionStore
	logger       *zap.Logger
}

func NewRecorder(activities ActivityStore, interactions InteractionStore, logger *zap.Logger) *Recorder {
	return &Recorder{
		activities:   activities,
		interactions: interactions,
		logger:       logger,
	}
}

// LogActivity appends a task audit entry outside any transaction. The
// transactional paths in the task service write their entries through the
// repository Tx variants instead.
func (r *Recorder) LogActivity(ctx context.Context, taskID int64, actor string, action model.ActionType, remarks string) error {
	entry := &model.ActivityLog{
		TaskID:      taskID,
		Action:      action,
		PerformedBy: actor,
		PerformedAt: time.Now(),
		Remarks:     remarks,
	}
	if err := r.activities.Insert(ctx, entry); err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	r.logger.Debug("Activity logged",
		zap.Int64("task_id", taskID),
		zap.String("action", string(action)),
	)
	return nil
}

// RecordInteraction appends a feedback entry for a message. OPENED and
// IGNORED marks arrive here from user actions and feed the behavioral
// score on later runs.
func (r *Recorder) RecordInteraction(ctx context.Context, messageID int64, actor string, action model.InteractionType, notes string) error {
	entry := &model.MessageInteraction{
		MessageID:     messageID,
		UserEmail:     actor,
		Action:        action,
		InteractedAt:  time.Now(),
		FeedbackNotes: notes,
	}
	if err := r.interactions.Insert(ctx, entry); err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	r.logger.Debug("Interaction recorded",
		zap.Int64("message_id", messageID),
		zap.String("action", string(action)),
	)
	return nil
}

// History returns the audit trail of one task in order.
func (r *Recorder) History(ctx context.Context, taskID int64) ([]model.ActivityLog, error) {
	return r.activities.ListByTask(ctx, taskID)
}

// InteractionCountsByDomain exposes the interaction aggregate for the
// priority engine.
func (r *Recorder) InteractionCountsByDomain(ctx context.Context, domain string) (opened, ignored, total int64, err error) {
	return r.interactions.CountsByDomain(ctx, domain)
}
