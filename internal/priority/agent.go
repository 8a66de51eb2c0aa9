package priority

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"dailyfix/internal/model"
	"dailyfix/pkg/metrics"
)

// maxPromptChars bounds the text handed to the agent per field.
const maxPromptChars = 2000

// AgentCaller is the one call the delegated strategy needs. Satisfied by
// *AgentClient.
type AgentCaller interface {
	Classify(ctx context.Context, trust, subject, body string) (*classifyResponse, error)
}

// AgentClassifier delegates scoring to the agent service. Agent
// availability is never allowed to block or fail message processing: any
// failure degrades to the silent tier with a logged reason.
type AgentClassifier struct {
	client AgentCaller
	logger *zap.Logger
}

func NewAgentClassifier(client AgentCaller, logger *zap.Logger) *AgentClassifier {
	return &AgentClassifier{
		client: client,
		logger: logger,
	}
}

func (c *AgentClassifier) Classify(ctx context.Context, msg *model.Message, trust model.TrustLevel) (Result, error) {
	resp, err := c.client.Classify(ctx,
		string(trust),
		sanitize(msg.Subject),
		sanitize(msg.Body),
	)
	if err != nil {
		return c.degrade(msg, "agent call failed", err), nil
	}

	priority, perr := model.ParsePriority(resp.Priority)
	intent, ierr := model.ParseIntent(resp.Intent)
	if perr != nil || ierr != nil {
		err := perr
		if err == nil {
			err = ierr
		}
		return c.degrade(msg, "agent response malformed", err), nil
	}

	return Result{Priority: priority, Intent: intent}, nil
}

func (c *AgentClassifier) degrade(msg *model.Message, reason string, err error) Result {
	c.logger.Warn("Classification degraded to silent",
		zap.Int64("message_id", msg.ID),
		zap.String("reason", reason),
		zap.Error(err),
	)
	metrics.ClassificationsDegraded.Inc()
	return Result{
		Priority: model.PrioritySilent,
		Intent:   model.IntentPromotional,
		Degraded: true,
	}
}

// sanitize strips control characters and truncates before the text leaves
// the service boundary.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	if len(s) > maxPromptChars {
		// Cut on a rune boundary so a multi-byte character never leaves
		// split in half.
		cut := maxPromptChars
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
