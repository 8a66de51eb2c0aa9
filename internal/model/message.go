package model

import "time"

// UnknownDomain is the sentinel sender domain used when the sender address
// is missing or malformed.
const UnknownDomain = "unknown"

type Message struct {
	ID           int64
	UserEmail    string
	SenderEmail  string
	SenderDomain string
	SourceType   SourceType
	Subject      string
	Body         string
	ReceivedAt   time.Time
	Intent       Intent
	Priority     Priority
	Processed    bool
	// SourceID is the connector-provided unique identifier, nil for
	// messages that were injected directly (no dedup possible).
	SourceID *string
}

type User struct {
	ID        int64
	Name      string
	Email     string
	Role      string
	Active    bool
	CreatedAt time.Time
}
