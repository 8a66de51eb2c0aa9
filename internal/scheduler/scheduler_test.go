package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"dailyfix/internal/model"
)

type recordingIngester struct {
	mu     sync.Mutex
	synced []string
	errFor map[string]error
}

func (r *recordingIngester) Ingest(_ context.Context, userEmail string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errFor[userEmail]; err != nil {
		return 0, err
	}
	r.synced = append(r.synced, userEmail)
	return 1, nil
}

type stubUsers struct {
	users []model.User
	err   error
}

func (s *stubUsers) ListActive(context.Context) ([]model.User, error) {
	return s.users, s.err
}

func TestRunOnceSyncsEveryActiveUser(t *testing.T) {
	ingester := &recordingIngester{}
	users := &stubUsers{users: []model.User{
		{Email: "a@corp.test"},
		{Email: "b@corp.test"},
		{Email: "c@corp.test"},
	}}
	s := New(ingester, users, time.Minute, 2, zap.NewNop())

	s.RunOnce(context.Background())

	if len(ingester.synced) != 3 {
		t.Errorf("synced %v, want all three users", ingester.synced)
	}
}

func TestRunOnceIsolatesUserFailures(t *testing.T) {
	ingester := &recordingIngester{errFor: map[string]error{"b@corp.test": errors.New("mailbox gone")}}
	users := &stubUsers{users: []model.User{
		{Email: "a@corp.test"},
		{Email: "b@corp.test"},
		{Email: "c@corp.test"},
	}}
	s := New(ingester, users, time.Minute, 1, zap.NewNop())

	s.RunOnce(context.Background())

	if len(ingester.synced) != 2 {
		t.Errorf("synced %v, want the two healthy users", ingester.synced)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ingester := &recordingIngester{}
	users := &stubUsers{users: []model.User{{Email: "a@corp.test"}}}
	s := New(ingester, users, 10*time.Millisecond, 1, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	ingester.mu.Lock()
	defer ingester.mu.Unlock()
	if len(ingester.synced) < 2 {
		t.Errorf("synced %d times, want the initial pass plus ticks", len(ingester.synced))
	}
}
