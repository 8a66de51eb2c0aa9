// Package task owns the task lifecycle: creation from qualifying
// messages, the open -> completed/cancelled state machine, reassignment
// and the audit/feedback writes that ride in the same transaction.
package task

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dailyfix/internal/fault"
	"dailyfix/internal/model"
	"dailyfix/pkg/metrics"
)

// Due-date policy, applied once at creation and never recomputed.
const (
	dueHigh    = 4 * time.Hour
	dueMedium  = 24 * time.Hour
	dueDefault = 72 * time.Hour
)

type Store interface {
	CreateWithLog(ctx context.Context, t *model.Task, entry *model.ActivityLog) (int64, error)
	Mutate(ctx context.Context, taskID int64, mutate func(t *model.Task) error, entry *model.ActivityLog, interaction *model.MessageInteraction) error
	FindByID(ctx context.Context, id int64) (*model.Task, error)
	ExistsForMessage(ctx context.Context, messageID int64) (bool, error)
	ListByAssignee(ctx context.Context, assignee string) ([]model.Task, error)
	ListByStatus(ctx context.Context, status model.TaskStatus) ([]model.Task, error)
	FindBySourceMessageAndAssignee(ctx context.Context, messageID int64, assignee string) (*model.Task, error)
}

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// Notifier is the high-priority side channel. Implementations must not
// return errors into the creation path; delivery is fire and forget.
// task.created events take the outbox path instead, inside the creation
// transaction.
type Notifier interface {
	HighPriorityAlert(ctx context.Context, msg *model.Message)
}

// AssignPolicy picks the assignee for a task generated from a message.
type AssignPolicy func(msg *model.Message) string

// AssignToOwner assigns every generated task to the user who owns the
// message. This is the default policy.
func AssignToOwner() AssignPolicy {
	return func(msg *model.Message) string {
		return msg.UserEmail
	}
}

// AssignToAdmin routes every generated task to a designated role holder.
func AssignToAdmin(adminEmail string) AssignPolicy {
	return func(*model.Message) string {
		return adminEmail
	}
}

type Service struct {
	store    Store
	users    UserStore
	notifier Notifier
	assign   AssignPolicy
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, users UserStore, notifier Notifier, assign AssignPolicy, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		users:    users,
		notifier: notifier,
		assign:   assign,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateFromMessage builds and persists a task for a qualifying message.
// The message must not already be processed and must not already have a
// task; both violations are validation errors, distinct from not-found.
func (s *Service) CreateFromMessage(ctx context.Context, msg *model.Message) (*model.Task, error) {
	if msg == nil {
		return nil, fault.Validationf("message is nil")
	}
	if msg.Processed {
		return nil, fault.Validationf("message %d already processed", msg.ID)
	}

	exists, err := s.store.ExistsForMessage(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing task: %w", err)
	}
	if exists {
		return nil, fault.Validationf("task already exists for message %d", msg.ID)
	}

	if msg.Priority == model.PriorityHigh {
		s.notifier.HighPriorityAlert(ctx, msg)
	}

	now := s.now()
	t := &model.Task{
		Title:           msg.Subject,
		Description:     msg.Body,
		Priority:        msg.Priority,
		Status:          model.TaskOpen,
		Assignee:        s.assign(msg),
		SourceMessageID: msg.ID,
		CreatedAt:       now,
		DueAt:           now.Add(dueFor(msg.Priority)),
	}
	entry := &model.ActivityLog{
		Action:      model.ActionCreated,
		PerformedBy: t.Assignee,
		PerformedAt: now,
		Remarks:     "Task created from message automatically",
	}

	if _, err := s.store.CreateWithLog(ctx, t, entry); err != nil {
		return nil, fmt.Errorf("create task for message %d: %w", msg.ID, err)
	}

	metrics.IncrementTaskCreated(string(t.Priority))
	s.logger.Info("Task created from message",
		zap.Int64("task_id", t.ID),
		zap.Int64("message_id", msg.ID),
		zap.String("priority", string(t.Priority)),
		zap.Time("due_at", t.DueAt),
	)
	return t, nil
}

func dueFor(p model.Priority) time.Duration {
	switch p {
	case model.PriorityHigh:
		return dueHigh
	case model.PriorityMedium:
		return dueMedium
	default:
		return dueDefault
	}
}

// Transition moves an open task to a terminal state. The status update,
// the audit entry and the feedback interaction persist atomically; a task
// already out of open fails validation and nothing is written.
func (s *Service) Transition(ctx context.Context, taskID int64, actorEmail string, newStatus model.TaskStatus, remark string) error {
	if !newStatus.Terminal() {
		return fault.Validationf("cannot transition task %d to %s", taskID, newStatus)
	}

	actor, err := s.users.FindByEmail(ctx, actorEmail)
	if err != nil {
		return err
	}

	now := s.now()
	var action model.ActionType
	var interactionKind model.InteractionType
	if newStatus == model.TaskCompleted {
		action = model.ActionCompleted
		interactionKind = model.InteractionCompleted
	} else {
		action = model.ActionCancelled
		interactionKind = model.InteractionDismissed
	}

	entry := &model.ActivityLog{
		Action:      action,
		PerformedBy: actor.Email,
		PerformedAt: now,
		Remarks:     remark,
	}
	interaction := &model.MessageInteraction{
		UserEmail:     actor.Email,
		Action:        interactionKind,
		InteractedAt:  now,
		FeedbackNotes: remark,
	}

	err = s.store.Mutate(ctx, taskID, func(t *model.Task) error {
		if t.Status != model.TaskOpen {
			return fault.Validationf("task %d is %s, not open", t.ID, t.Status)
		}
		t.Status = newStatus
		if newStatus == model.TaskCompleted {
			t.CompletedAt = &now
		}
		return nil
	}, entry, interaction)
	if err != nil {
		return err
	}

	s.logger.Info("Task transitioned",
		zap.Int64("task_id", taskID),
		zap.String("status", string(newStatus)),
		zap.String("actor", actor.Email),
	)
	return nil
}

// Reassign changes the assignee regardless of status and records it.
func (s *Service) Reassign(ctx context.Context, taskID int64, newAssigneeEmail string) error {
	assignee, err := s.users.FindByEmail(ctx, newAssigneeEmail)
	if err != nil {
		return err
	}

	entry := &model.ActivityLog{
		Action:      model.ActionReassigned,
		PerformedBy: assignee.Email,
		PerformedAt: s.now(),
		Remarks:     "Task reassigned to new user",
	}

	err = s.store.Mutate(ctx, taskID, func(t *model.Task) error {
		t.Assignee = assignee.Email
		return nil
	}, entry, nil)
	if err != nil {
		return err
	}

	s.logger.Info("Task reassigned",
		zap.Int64("task_id", taskID),
		zap.String("assignee", assignee.Email),
	)
	return nil
}

// HasTaskFor reports whether a task was already generated for the message.
func (s *Service) HasTaskFor(ctx context.Context, messageID int64) (bool, error) {
	return s.store.ExistsForMessage(ctx, messageID)
}

func (s *Service) ByID(ctx context.Context, id int64) (*model.Task, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) ByAssignee(ctx context.Context, assignee string) ([]model.Task, error) {
	return s.store.ListByAssignee(ctx, assignee)
}

func (s *Service) ByStatus(ctx context.Context, status model.TaskStatus) ([]model.Task, error) {
	return s.store.ListByStatus(ctx, status)
}

func (s *Service) BySourceMessageAndAssignee(ctx context.Context, messageID int64, assignee string) (*model.Task, error) {
	return s.store.FindBySourceMessageAndAssignee(ctx, messageID, assignee)
}
