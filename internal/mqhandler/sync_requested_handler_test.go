package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"dailyfix/internal/fault"
)

type stubIngester struct {
	calls []string
	err   error
}

func (s *stubIngester) Ingest(_ context.Context, userEmail string) (int, error) {
	s.calls = append(s.calls, userEmail)
	return 2, s.err
}

func TestHandleSyncRequested(t *testing.T) {
	ingester := &stubIngester{}
	h := NewSyncRequestedHandler(ingester, zap.NewNop())

	raw := json.RawMessage(`{"user_email":"owner@corp.test"}`)
	if err := h.HandleSyncRequested(context.Background(), raw); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(ingester.calls) != 1 || ingester.calls[0] != "owner@corp.test" {
		t.Errorf("calls = %v", ingester.calls)
	}
}

func TestHandleSyncRequestedBadPayload(t *testing.T) {
	h := NewSyncRequestedHandler(&stubIngester{}, zap.NewNop())

	for name, raw := range map[string]json.RawMessage{
		"malformed json": json.RawMessage(`{nope`),
		"missing email":  json.RawMessage(`{}`),
	} {
		if err := h.HandleSyncRequested(context.Background(), raw); !fault.IsValidation(err) {
			t.Errorf("%s: err = %v, want validation", name, err)
		}
	}
}

func TestHandleSyncRequestedPropagatesIngestError(t *testing.T) {
	wantErr := errors.New("imap down")
	h := NewSyncRequestedHandler(&stubIngester{err: wantErr}, zap.NewNop())

	raw := json.RawMessage(`{"user_email":"owner@corp.test"}`)
	if err := h.HandleSyncRequested(context.Background(), raw); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want the ingest error", err)
	}
}
