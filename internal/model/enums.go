package model

import "fmt"

// Priority is the final urgency tier of a message. It drives task creation
// and the due-date policy.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
	PrioritySilent Priority = "SILENT"
)

func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow, PrioritySilent:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Intent is the coarse purpose classification of a message.
type Intent string

const (
	IntentActionRequired Intent = "ACTION_REQUIRED"
	IntentInformational  Intent = "INFORMATIONAL"
	IntentPromotional    Intent = "PROMOTIONAL"
)

func ParseIntent(s string) (Intent, error) {
	switch Intent(s) {
	case IntentActionRequired, IntentInformational, IntentPromotional:
		return Intent(s), nil
	}
	return "", fmt.Errorf("unknown intent %q", s)
}

// SourceType says where a message came from.
type SourceType string

const (
	SourceSystem   SourceType = "SYSTEM"
	SourceInternal SourceType = "INTERNAL"
	SourceEmail    SourceType = "EMAIL"
)

// TrustLevel is the coarse reputation bucket of a sending domain.
type TrustLevel string

const (
	TrustHigh   TrustLevel = "HIGH"
	TrustMedium TrustLevel = "MEDIUM"
	TrustLow    TrustLevel = "LOW"
)

func ParseTrustLevel(s string) (TrustLevel, error) {
	switch TrustLevel(s) {
	case TrustHigh, TrustMedium, TrustLow:
		return TrustLevel(s), nil
	}
	return "", fmt.Errorf("unknown trust level %q", s)
}

type TaskStatus string

const (
	TaskOpen      TaskStatus = "OPEN"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskCancelled TaskStatus = "CANCELLED"
)

// Terminal reports whether no further status transition is allowed.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskCancelled
}

func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskOpen, TaskCompleted, TaskCancelled:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// ActionType is the kind of an activity-log entry.
type ActionType string

const (
	ActionCreated    ActionType = "CREATED"
	ActionCompleted  ActionType = "COMPLETED"
	ActionCancelled  ActionType = "CANCELLED"
	ActionReassigned ActionType = "REASSIGNED"
)

// InteractionType is the kind of a message-interaction entry.
type InteractionType string

const (
	InteractionOpened    InteractionType = "OPENED"
	InteractionIgnored   InteractionType = "IGNORED"
	InteractionCompleted InteractionType = "COMPLETED"
	InteractionDismissed InteractionType = "DISMISSED"
)

func ParseInteractionType(s string) (InteractionType, error) {
	switch InteractionType(s) {
	case InteractionOpened, InteractionIgnored, InteractionCompleted, InteractionDismissed:
		return InteractionType(s), nil
	}
	return "", fmt.Errorf("unknown interaction type %q", s)
}
