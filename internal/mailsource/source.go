// Package mailsource abstracts where raw messages come from. The ingest
// coordinator only sees Source; the IMAP and mbox implementations handle
// transport details.
package mailsource

import (
	"context"
	"time"
)

// RawMessage is a fetched message before any normalization. Headers keeps
// the original field names as found on the wire; callers must not assume
// canonical casing.
type RawMessage struct {
	SourceID   string
	Headers    map[string]string
	Body       string
	ReceivedAt time.Time
}

type Source interface {
	// ListUnseen returns the source ids of unconsumed messages received
	// within the window.
	ListUnseen(ctx context.Context, window time.Duration) ([]string, error)
	Fetch(ctx context.Context, id string) (*RawMessage, error)
	// MarkConsumed acknowledges a message on the source so it is not
	// listed again. It runs after local handling, never before.
	MarkConsumed(ctx context.Context, id string) error
	Close() error
}
