package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindPredicates(t *testing.T) {
	nf := NotFoundf("user %s", "a@b.com")
	if !IsNotFound(nf) {
		t.Errorf("IsNotFound(%v) = false, want true", nf)
	}
	if IsValidation(nf) {
		t.Errorf("IsValidation(%v) = true, want false", nf)
	}

	v := Validationf("message already processed")
	if !IsValidation(v) {
		t.Errorf("IsValidation(%v) = false, want true", v)
	}

	// Kind survives fmt.Errorf wrapping.
	wrapped := fmt.Errorf("ingest user: %w", nf)
	if !IsNotFound(wrapped) {
		t.Errorf("IsNotFound(wrapped) = false, want true")
	}
}

func TestExternalUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	e := Externalf(cause, "agent call")
	if !IsExternal(e) {
		t.Fatalf("IsExternal = false, want true")
	}
	if !errors.Is(e, cause) {
		t.Errorf("errors.Is(e, cause) = false, want true")
	}

	// Causeless externals (e.g. a missing body section) are still external.
	bare := Externalf(nil, "message has no body section")
	if !IsExternal(bare) {
		t.Errorf("IsExternal(bare) = false, want true")
	}
	if got := errors.Unwrap(bare); got != nil {
		t.Errorf("Unwrap(bare) = %v, want nil", got)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		label     string
	}{
		{"nil", nil, false, ""},
		{"not found", NotFoundf("task 7"), false, "not_found"},
		{"validation", Validationf("terminal state"), false, "validation"},
		{"wrapped validation", fmt.Errorf("transition: %w", Validationf("x")), false, "validation"},
		{"deadline", context.DeadlineExceeded, true, "timeout"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"duplicate key", errors.New(`ERROR: duplicate key value violates unique constraint "messages_source_id_key"`), false, "duplicate_key"},
		{"external", Externalf(errors.New("503"), "agent"), true, "external_service"},
		{"unknown", errors.New("something odd"), false, "unknown_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, label := Retryable(tt.err)
			if got != tt.retryable || label != tt.label {
				t.Errorf("Retryable(%v) = (%v, %q), want (%v, %q)", tt.err, got, label, tt.retryable, tt.label)
			}
		})
	}
}
