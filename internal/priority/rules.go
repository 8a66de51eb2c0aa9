package priority

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dailyfix/internal/model"
)

// Score thresholds for the priority tiers.
const (
	highThreshold   = 60
	mediumThreshold = 30
	lowThreshold    = 10
)

// InteractionCounter supplies the historical interaction counts for a
// sender domain. Total covers every interaction type, not just the
// opened/ignored pair the score compares.
type InteractionCounter interface {
	InteractionCountsByDomain(ctx context.Context, domain string) (opened, ignored, total int64, err error)
}

// RuleClassifier is the deterministic strategy: five independent integer
// factors summed and mapped to a tier.
type RuleClassifier struct {
	interactions InteractionCounter
	logger       *zap.Logger
}

func NewRuleClassifier(interactions InteractionCounter, logger *zap.Logger) *RuleClassifier {
	return &RuleClassifier{
		interactions: interactions,
		logger:       logger,
	}
}

func (c *RuleClassifier) Classify(ctx context.Context, msg *model.Message, trust model.TrustLevel) (Result, error) {
	total := 0

	total += trustScore(msg.SenderEmail, trust)

	intent, intentScore := intentOf(msg.Subject, msg.Body)
	total += intentScore

	total += sourceScore(msg.SourceType)
	total += keywordScore(msg.Body)

	behavior, err := c.behaviorScore(ctx, msg.SenderDomain)
	if err != nil {
		return Result{}, fmt.Errorf("behavior score for %s: %w", msg.SenderDomain, err)
	}
	total += behavior

	result := Result{
		Priority: tierOf(total),
		Intent:   intent,
		Score:    total,
	}

	c.logger.Debug("Rule classification",
		zap.Int64("message_id", msg.ID),
		zap.String("domain", msg.SenderDomain),
		zap.Int("score", total),
		zap.String("priority", string(result.Priority)),
		zap.String("intent", string(result.Intent)),
	)
	return result, nil
}

func trustScore(senderEmail string, trust model.TrustLevel) int {
	if senderEmail == "" {
		return -10
	}
	switch trust {
	case model.TrustHigh:
		return 40
	case model.TrustMedium:
		return 20
	default:
		return -30
	}
}

var (
	actionMarkers        = []string{"failed", "action required", "urgent"}
	informationalMarkers = []string{"invoice", "update", "meeting"}
)

func intentOf(subject, body string) (model.Intent, int) {
	text := strings.ToLower(subject + " " + body)
	for _, marker := range actionMarkers {
		if strings.Contains(text, marker) {
			return model.IntentActionRequired, 40
		}
	}
	for _, marker := range informationalMarkers {
		if strings.Contains(text, marker) {
			return model.IntentInformational, 10
		}
	}
	return model.IntentPromotional, -50
}

func sourceScore(source model.SourceType) int {
	switch source {
	case model.SourceSystem:
		return 30
	case model.SourceInternal:
		return 20
	default:
		return 0
	}
}

var keywordGroups = []struct {
	markers []string
	score   int
}{
	{[]string{"error", "failed", "critical"}, 25},
	{[]string{"deadline", "asap", "immediately"}, 20},
}

// keywordScore inspects the body only; each marker group contributes at
// most once.
func keywordScore(body string) int {
	text := strings.ToLower(body)
	score := 0
	for _, group := range keywordGroups {
		for _, marker := range group.markers {
			if strings.Contains(text, marker) {
				score += group.score
				break
			}
		}
	}
	return score
}

func (c *RuleClassifier) behaviorScore(ctx context.Context, domain string) (int, error) {
	opened, ignored, total, err := c.interactions.InteractionCountsByDomain(ctx, domain)
	if err != nil {
		return 0, err
	}
	// Any history at all counts as engagement: a domain whose messages
	// were only ever completed or dismissed still scores +10.
	switch {
	case total == 0:
		return 0, nil
	case ignored > opened:
		return -40, nil
	case opened >= ignored:
		return 10, nil
	default:
		return -10, nil
	}
}

func tierOf(score int) model.Priority {
	switch {
	case score >= highThreshold:
		return model.PriorityHigh
	case score >= mediumThreshold:
		return model.PriorityMedium
	case score >= lowThreshold:
		return model.PriorityLow
	default:
		return model.PrioritySilent
	}
}
