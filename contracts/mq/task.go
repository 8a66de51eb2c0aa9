package mq

import "time"

type TaskCreatedPayload struct {
	TaskID    int64     `json:"task_id"`
	MessageID int64     `json:"message_id"`
	Assignee  string    `json:"assignee"`
	Title     string    `json:"title"`
	Priority  string    `json:"priority"`
	DueAt     time.Time `json:"due_at"`
}

// AlertRaisedPayload is the high-priority side-channel notification
// emitted when a HIGH task is created. Delivery is fire and forget.
type AlertRaisedPayload struct {
	MessageID   int64     `json:"message_id"`
	SenderEmail string    `json:"sender_email"`
	Subject     string    `json:"subject"`
	RaisedAt    time.Time `json:"raised_at"`
}
