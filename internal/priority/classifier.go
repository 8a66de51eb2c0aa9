// Package priority turns a message plus its sender trust tier into a
// priority and intent classification. Two interchangeable strategies
// exist: deterministic rule scoring and delegation to the agent service.
package priority

import (
	"context"

	"dailyfix/internal/model"
)

// Result is the outcome of one classification. Classifiers never mutate
// the message; the caller assigns Intent and Priority to it.
type Result struct {
	Priority model.Priority
	Intent   model.Intent
	// Score is the raw rule total. Zero for the agent strategy.
	Score int
	// Degraded marks a fallback classification after an unusable agent
	// response. Not an error: the message still completes the pipeline.
	Degraded bool
}

type Classifier interface {
	Classify(ctx context.Context, msg *model.Message, trust model.TrustLevel) (Result, error)
}

// Paced reports whether a classifier calls out to a rate-limited external
// service and therefore needs pacing between batch items.
func Paced(c Classifier) bool {
	_, ok := c.(*AgentClassifier)
	return ok
}
