package priority

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"dailyfix/internal/model"
)

type fakeCounts struct {
	opened  int64
	ignored int64
	others  int64 // completed/dismissed interactions
	err     error
}

func (f fakeCounts) InteractionCountsByDomain(context.Context, string) (int64, int64, int64, error) {
	return f.opened, f.ignored, f.opened + f.ignored + f.others, f.err
}

func msgFor(subject, body string, source model.SourceType, sender string) *model.Message {
	domain := model.UnknownDomain
	if i := len(sender); i > 0 {
		domain = "acme.com"
	}
	return &model.Message{
		UserEmail:    "user@corp.test",
		SenderEmail:  sender,
		SenderDomain: domain,
		SourceType:   source,
		Subject:      subject,
		Body:         body,
	}
}

func TestClassifyScoring(t *testing.T) {
	tests := []struct {
		name         string
		subject      string
		body         string
		source       model.SourceType
		sender       string
		trust        model.TrustLevel
		counts       fakeCounts
		wantScore    int
		wantPriority model.Priority
		wantIntent   model.Intent
	}{
		{
			// Reference scenario: trust +40, intent +40, source +0,
			// keyword "failed" +25 = 105.
			name:         "high trust action required",
			subject:      "Action Required: Payment Failed",
			body:         "your payment failed",
			source:       model.SourceEmail,
			sender:       "billing@acme.com",
			trust:        model.TrustHigh,
			wantScore:    105,
			wantPriority: model.PriorityHigh,
			wantIntent:   model.IntentActionRequired,
		},
		{
			// trust +20, intent +10, source +0, no keywords = 30.
			name:         "medium trust invoice",
			subject:      "Invoice for March",
			body:         "please find attached",
			source:       model.SourceEmail,
			sender:       "billing@acme.com",
			trust:        model.TrustMedium,
			wantScore:    30,
			wantPriority: model.PriorityMedium,
			wantIntent:   model.IntentInformational,
		},
		{
			// trust -30, intent -50, source +0 = -80.
			name:         "low trust promotion",
			subject:      "50% off everything",
			body:         "buy now",
			source:       model.SourceEmail,
			sender:       "deals@acme.com",
			trust:        model.TrustLow,
			wantScore:    -80,
			wantPriority: model.PrioritySilent,
			wantIntent:   model.IntentPromotional,
		},
		{
			// Missing sender scores -10 instead of a trust tier:
			// -10 - 50 + 30 = -30.
			name:         "missing sender system notice",
			subject:      "nightly digest",
			body:         "all quiet",
			source:       model.SourceSystem,
			sender:       "",
			trust:        model.TrustHigh,
			wantScore:    -30,
			wantPriority: model.PrioritySilent,
			wantIntent:   model.IntentPromotional,
		},
		{
			// Intent markers match subject or body ("urgent" in body):
			// +20 + 40 + 20 = 80.
			name:         "internal urgent",
			subject:      "ping",
			body:         "this is urgent, please respond",
			source:       model.SourceInternal,
			sender:       "ops@acme.com",
			trust:        model.TrustMedium,
			wantScore:    80,
			wantPriority: model.PriorityHigh,
			wantIntent:   model.IntentActionRequired,
		},
		{
			// Both keyword groups fire once each:
			// 40 + 40 + 0 + 25 + 20 = 125.
			name:         "stacked keywords",
			subject:      "urgent",
			body:         "critical error, fix immediately before the deadline",
			source:       model.SourceEmail,
			sender:       "alerts@acme.com",
			trust:        model.TrustHigh,
			wantScore:    125,
			wantPriority: model.PriorityHigh,
			wantIntent:   model.IntentActionRequired,
		},
		{
			// Keyword markers in the subject alone do not count:
			// 40 + 40 + 0 = 80 (no +25 for "failed" in subject).
			name:         "keywords are body only",
			subject:      "payment failed",
			body:         "see attached",
			source:       model.SourceEmail,
			sender:       "billing@acme.com",
			trust:        model.TrustHigh,
			wantScore:    80,
			wantPriority: model.PriorityHigh,
			wantIntent:   model.IntentActionRequired,
		},
		{
			// Historical ignores pull the total down:
			// 40 + 10 + 0 - 40 = 10.
			name:         "mostly ignored domain",
			subject:      "Meeting notes",
			body:         "minutes attached",
			source:       model.SourceEmail,
			sender:       "noreply@acme.com",
			trust:        model.TrustHigh,
			counts:       fakeCounts{opened: 1, ignored: 5},
			wantScore:    10,
			wantPriority: model.PriorityLow,
			wantIntent:   model.IntentInformational,
		},
		{
			// Engaged history adds +10: 20 + 10 + 0 + 10 = 40.
			name:         "engaged domain",
			subject:      "Weekly update",
			body:         "summary below",
			source:       model.SourceEmail,
			sender:       "team@acme.com",
			trust:        model.TrustMedium,
			counts:       fakeCounts{opened: 4, ignored: 2},
			wantScore:    40,
			wantPriority: model.PriorityMedium,
			wantIntent:   model.IntentInformational,
		},
		{
			// History made only of completed/dismissed interactions still
			// counts as engagement: 20 + 10 + 0 + 10 = 40.
			name:         "history without opens or ignores",
			subject:      "Weekly update",
			body:         "summary below",
			source:       model.SourceEmail,
			sender:       "team@acme.com",
			trust:        model.TrustMedium,
			counts:       fakeCounts{others: 2},
			wantScore:    40,
			wantPriority: model.PriorityMedium,
			wantIntent:   model.IntentInformational,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewRuleClassifier(tt.counts, zap.NewNop())
			msg := msgFor(tt.subject, tt.body, tt.source, tt.sender)

			got, err := c.Classify(context.Background(), msg, tt.trust)
			if err != nil {
				t.Fatalf("Classify error: %v", err)
			}
			if got.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.Priority != tt.wantPriority {
				t.Errorf("priority = %s, want %s", got.Priority, tt.wantPriority)
			}
			if got.Intent != tt.wantIntent {
				t.Errorf("intent = %s, want %s", got.Intent, tt.wantIntent)
			}
			if got.Degraded {
				t.Errorf("rule classification marked degraded")
			}
		})
	}
}

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  model.Priority
	}{
		{60, model.PriorityHigh},
		{59, model.PriorityMedium},
		{30, model.PriorityMedium},
		{29, model.PriorityLow},
		{10, model.PriorityLow},
		{9, model.PrioritySilent},
		{-100, model.PrioritySilent},
	}
	for _, tt := range tests {
		if got := tierOf(tt.score); got != tt.want {
			t.Errorf("tierOf(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestClassifySurfacesBehaviorErrors(t *testing.T) {
	storeErr := errors.New("db down")
	c := NewRuleClassifier(fakeCounts{err: storeErr}, zap.NewNop())

	_, err := c.Classify(context.Background(), msgFor("s", "b", model.SourceEmail, "a@acme.com"), model.TrustHigh)
	if !errors.Is(err, storeErr) {
		t.Errorf("Classify error = %v, want %v", err, storeErr)
	}
}

func TestClassifyDoesNotMutateMessage(t *testing.T) {
	c := NewRuleClassifier(fakeCounts{}, zap.NewNop())
	msg := msgFor("urgent", "failed", model.SourceEmail, "a@acme.com")

	if _, err := c.Classify(context.Background(), msg, model.TrustHigh); err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if msg.Intent != "" || msg.Priority != "" || msg.Processed {
		t.Errorf("classifier mutated message: intent=%q priority=%q processed=%v",
			msg.Intent, msg.Priority, msg.Processed)
	}
}
