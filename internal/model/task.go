package model

import "time"

type Task struct {
	ID              int64
	Title           string
	Description     string
	Priority        Priority
	Status          TaskStatus
	Assignee        string
	SourceMessageID int64
	CreatedAt       time.Time
	DueAt           time.Time
	CompletedAt     *time.Time
}
