package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(Config{
		FailureThreshold:    3,
		SuccessThreshold:    1,
		Timeout:             time.Minute,
		HalfOpenMaxRequests: 1,
	})

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: got %v, want %v", i, err, errBoom)
		}
	}

	if got := cb.GetState(); got != StateOpen {
		t.Fatalf("state = %v, want StateOpen", got)
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("open breaker returned %v, want ErrOpen", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{
		FailureThreshold:    2,
		SuccessThreshold:    1,
		Timeout:             time.Minute,
		HalfOpenMaxRequests: 1,
	})

	_ = cb.Execute(func() error { return errBoom })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errBoom })

	if got := cb.GetState(); got != StateClosed {
		t.Errorf("state = %v, want StateClosed after interleaved success", got)
	}
}

func TestHalfOpenProbeAndRecovery(t *testing.T) {
	cb := New(Config{
		FailureThreshold:    1,
		SuccessThreshold:    1,
		Timeout:             10 * time.Millisecond,
		HalfOpenMaxRequests: 1,
	})

	_ = cb.Execute(func() error { return errBoom })
	if got := cb.GetState(); got != StateOpen {
		t.Fatalf("state = %v, want StateOpen", got)
	}

	time.Sleep(20 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if got := cb.GetState(); got != StateClosed {
		t.Errorf("state = %v, want StateClosed after successful probe", got)
	}
}
