package priority

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"

	"dailyfix/internal/model"
)

type fakeAgent struct {
	resp *classifyResponse
	err  error
}

func (f fakeAgent) Classify(context.Context, string, string, string) (*classifyResponse, error) {
	return f.resp, f.err
}

func TestAgentClassifySuccess(t *testing.T) {
	c := NewAgentClassifier(fakeAgent{
		resp: &classifyResponse{Priority: "HIGH", Intent: "ACTION_REQUIRED"},
	}, zap.NewNop())

	got, err := c.Classify(context.Background(), &model.Message{ID: 1}, model.TrustHigh)
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if got.Priority != model.PriorityHigh || got.Intent != model.IntentActionRequired {
		t.Errorf("got (%s, %s), want (HIGH, ACTION_REQUIRED)", got.Priority, got.Intent)
	}
	if got.Degraded {
		t.Errorf("successful classification marked degraded")
	}
}

func TestAgentClassifyDegradesOnError(t *testing.T) {
	c := NewAgentClassifier(fakeAgent{err: errors.New("503")}, zap.NewNop())

	got, err := c.Classify(context.Background(), &model.Message{ID: 1}, model.TrustLow)
	if err != nil {
		t.Fatalf("agent failure must not surface as an error, got %v", err)
	}
	if !got.Degraded {
		t.Errorf("Degraded = false, want true")
	}
	if got.Priority != model.PrioritySilent {
		t.Errorf("priority = %s, want SILENT", got.Priority)
	}
}

func TestAgentClassifyDegradesOnMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		resp classifyResponse
	}{
		{"unknown priority", classifyResponse{Priority: "EXTREME", Intent: "INFORMATIONAL"}},
		{"unknown intent", classifyResponse{Priority: "HIGH", Intent: "SPAM"}},
		{"empty", classifyResponse{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewAgentClassifier(fakeAgent{resp: &tt.resp}, zap.NewNop())

			got, err := c.Classify(context.Background(), &model.Message{ID: 1}, model.TrustHigh)
			if err != nil {
				t.Fatalf("malformed response must not surface as an error, got %v", err)
			}
			if !got.Degraded || got.Priority != model.PrioritySilent {
				t.Errorf("got (degraded=%v, priority=%s), want (true, SILENT)", got.Degraded, got.Priority)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	in := "hello\x00world\nnext\tline"
	got := sanitize(in)
	if got != "helloworld\nnext\tline" {
		t.Errorf("sanitize(%q) = %q", in, got)
	}

	long := make([]byte, maxPromptChars+100)
	for i := range long {
		long[i] = 'a'
	}
	if got := sanitize(string(long)); len(got) != maxPromptChars {
		t.Errorf("len(sanitize(long)) = %d, want %d", len(got), maxPromptChars)
	}

	// A multi-byte rune straddling the cutoff must be dropped whole.
	multi := strings.Repeat("a", maxPromptChars-1) + "é"
	got = sanitize(multi)
	if !utf8.ValidString(got) {
		t.Errorf("sanitize split a rune: %q tail", got[len(got)-4:])
	}
	if len(got) != maxPromptChars-1 {
		t.Errorf("len = %d, want %d", len(got), maxPromptChars-1)
	}
}
