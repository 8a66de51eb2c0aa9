package model

import "time"

// ActivityLog is an append-only audit entry for a task event. Entries are
// never updated or deleted once written.
type ActivityLog struct {
	ID          int64
	TaskID      int64
	Action      ActionType
	PerformedBy string
	PerformedAt time.Time
	Remarks     string
}

// MessageInteraction is an append-only feedback entry recording how a user
// responded to a message. The priority engine reads these back in
// aggregate as a behavioral signal.
type MessageInteraction struct {
	ID            int64
	MessageID     int64
	UserEmail     string
	Action        InteractionType
	InteractedAt  time.Time
	FeedbackNotes string
}
