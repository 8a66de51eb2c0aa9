package mailsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"time"

	mboxlib "github.com/emersion/go-mbox"

	"dailyfix/internal/fault"
)

// MboxSource reads messages from a local mbox file, keyed by Message-Id.
// It is used by the import command for backfilling history; MarkConsumed
// tracks consumption in memory only since the file is never rewritten.
type MboxSource struct {
	path     string
	loaded   bool
	order    []string
	messages map[string]*RawMessage
	consumed map[string]bool
}

func NewMboxSource(path string) *MboxSource {
	return &MboxSource{
		path:     path,
		messages: map[string]*RawMessage{},
		consumed: map[string]bool{},
	}
}

func (s *MboxSource) ListUnseen(ctx context.Context, window time.Duration) ([]string, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-window)
	ids := []string{}
	for _, id := range s.order {
		if s.consumed[id] {
			continue
		}
		// Messages without a parsable Date get a zero ReceivedAt and are
		// always included so the import does not silently drop them.
		m := s.messages[id]
		if !m.ReceivedAt.IsZero() && m.ReceivedAt.Before(cutoff) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MboxSource) Fetch(ctx context.Context, id string) (*RawMessage, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	m, ok := s.messages[id]
	if !ok {
		return nil, fault.NotFoundf("mbox message %s", id)
	}
	return m, nil
}

func (s *MboxSource) MarkConsumed(_ context.Context, id string) error {
	s.consumed[id] = true
	return nil
}

func (s *MboxSource) Close() error {
	return nil
}

func (s *MboxSource) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		return fault.Validationf("open mbox %s: %v", s.path, err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)
	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fault.Validationf("mbox message %d: %v", idx, err)
		}

		msg, err := mail.ReadMessage(msgReader)
		if err != nil {
			// Skip unparsable messages, the rest of the file is still usable.
			continue
		}
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			continue
		}

		id := msg.Header.Get("Message-Id")
		if id == "" {
			id = msg.Header.Get("Message-ID")
		}
		if id == "" {
			id = fmt.Sprintf("mbox-%s-%d", s.path, idx)
		}

		var receivedAt time.Time
		if date := msg.Header.Get("Date"); date != "" {
			if t, err := mail.ParseDate(date); err == nil {
				receivedAt = t
			}
		}

		headers := map[string]string{}
		for key, values := range msg.Header {
			if len(values) > 0 {
				headers[key] = values[0]
			}
		}

		if _, dup := s.messages[id]; dup {
			continue
		}
		s.order = append(s.order, id)
		s.messages[id] = &RawMessage{
			SourceID:   id,
			Headers:    headers,
			Body:       string(body),
			ReceivedAt: receivedAt,
		}
	}

	s.loaded = true
	return nil
}
