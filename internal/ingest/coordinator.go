// Package ingest pulls raw messages from a mail source, normalizes and
// stores them, runs the priority pipeline and routes qualifying messages
// into tasks. One sync run per user executes at a time.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"dailyfix/internal/fault"
	"dailyfix/internal/mailsource"
	"dailyfix/internal/model"
	"dailyfix/internal/priority"
	"dailyfix/pkg/metrics"
)

type MessageStore interface {
	Insert(ctx context.Context, m *model.Message) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.Message, error)
	ExistsBySourceID(ctx context.Context, sourceID string) (bool, error)
	UpdateClassification(ctx context.Context, id int64, intent model.Intent, priority model.Priority, processed bool) error
	SetProcessed(ctx context.Context, id int64, processed bool) error
}

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// TrustResolver answers the two sender questions the pipeline asks: may
// this domain raise anything at all, and how much do we trust it.
type TrustResolver interface {
	AlertEnabled(ctx context.Context, domain string) (bool, error)
	TrustLevel(ctx context.Context, domain string) (model.TrustLevel, error)
}

type TaskRouter interface {
	CreateFromMessage(ctx context.Context, msg *model.Message) (*model.Task, error)
	HasTaskFor(ctx context.Context, messageID int64) (bool, error)
}

// Dedup is the best-effort duplicate filter in front of the database
// unique constraint.
type Dedup interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
	Release(ctx context.Context, scope, key string)
}

type Coordinator struct {
	source     mailsource.Source
	messages   MessageStore
	users      UserStore
	trust      TrustResolver
	tasks      TaskRouter
	classifier priority.Classifier
	dedup      Dedup
	window     time.Duration
	limiter    *rate.Limiter
	locks      *userLocks
	logger     *zap.Logger
}

func NewCoordinator(
	source mailsource.Source,
	messages MessageStore,
	users UserStore,
	trust TrustResolver,
	tasks TaskRouter,
	classifier priority.Classifier,
	dedup Dedup,
	window time.Duration,
	paceInterval time.Duration,
	logger *zap.Logger,
) *Coordinator {
	c := &Coordinator{
		source:     source,
		messages:   messages,
		users:      users,
		trust:      trust,
		tasks:      tasks,
		classifier: classifier,
		dedup:      dedup,
		window:     window,
		locks:      newUserLocks(),
		logger:     logger,
	}
	// Pacing only matters for strategies that call an external service.
	if priority.Paced(classifier) && paceInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(paceInterval), 1)
	}
	return c
}

// Ingest runs one sync pass for the user and returns how many new
// messages were stored. A failure on one message is logged and skipped;
// the rest of the batch still goes through.
func (c *Coordinator) Ingest(ctx context.Context, userEmail string) (int, error) {
	user, err := c.users.FindByEmail(ctx, userEmail)
	if err != nil {
		return 0, err
	}

	unlock := c.locks.acquire(user.Email)
	defer unlock()

	ids, err := c.source.ListUnseen(ctx, c.window)
	if err != nil {
		return 0, fmt.Errorf("list unseen for %s: %w", user.Email, err)
	}

	stored := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		ok, err := c.handleOne(ctx, user.Email, id)
		if err != nil {
			metrics.IncrementMessageIngested("failed")
			c.logger.Error("Message ingestion failed, continuing batch",
				zap.String("user", user.Email),
				zap.String("source_id", id),
				zap.Error(err),
			)
			continue
		}
		if ok {
			stored++
			metrics.IncrementMessageIngested("stored")
		} else {
			metrics.IncrementMessageIngested("duplicate")
		}
	}

	c.logger.Info("Sync run finished",
		zap.String("user", user.Email),
		zap.Int("listed", len(ids)),
		zap.Int("stored", stored),
	)
	return stored, nil
}

// handleOne ingests a single source message end to end. The second
// return is false for duplicates that were skipped without error.
func (c *Coordinator) handleOne(ctx context.Context, userEmail, id string) (bool, error) {
	dedupKey := userEmail + ":" + id
	if !c.dedup.AcquireOnce(ctx, "ingest", dedupKey) {
		c.consume(ctx, id)
		return false, nil
	}

	// Until the message is persisted locally, any failure must release
	// the dedup key: the next run has to reach the fetch again instead
	// of short-circuiting into a consume.
	exists, err := c.messages.ExistsBySourceID(ctx, id)
	if err != nil {
		c.dedup.Release(ctx, "ingest", dedupKey)
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	if exists {
		c.consume(ctx, id)
		return false, nil
	}

	raw, err := c.source.Fetch(ctx, id)
	if err != nil {
		c.dedup.Release(ctx, "ingest", dedupKey)
		return false, fmt.Errorf("fetch: %w", err)
	}

	msg := MapRaw(raw, userEmail)
	msg.ID, err = c.messages.Insert(ctx, msg)
	if err != nil {
		c.dedup.Release(ctx, "ingest", dedupKey)
		return false, fmt.Errorf("store message: %w", err)
	}

	if err := c.classifyAndRoute(ctx, msg); err != nil {
		// The message is persisted. Degrade it to silent and acknowledge
		// the source so later runs never re-fetch it; Reprocess re-runs
		// classification once the cause clears.
		if derr := c.messages.UpdateClassification(ctx, msg.ID, "", model.PrioritySilent, false); derr != nil {
			c.logger.Warn("Failed to degrade message after classification failure",
				zap.Int64("message_id", msg.ID),
				zap.Error(derr),
			)
		}
		c.consume(ctx, id)
		return false, err
	}

	// Acknowledge on the source only after local handling; a crash before
	// this point re-lists the message and the source id dedup absorbs it.
	c.consume(ctx, id)
	return true, nil
}

func (c *Coordinator) consume(ctx context.Context, id string) {
	if err := c.source.MarkConsumed(ctx, id); err != nil {
		c.logger.Warn("Failed to mark message consumed on source",
			zap.String("source_id", id),
			zap.Error(err),
		)
	}
}

// classifyAndRoute runs the whitelist gate, classification and task
// routing for a stored message, then marks it processed.
func (c *Coordinator) classifyAndRoute(ctx context.Context, msg *model.Message) error {
	enabled, err := c.trust.AlertEnabled(ctx, msg.SenderDomain)
	if err != nil {
		return fmt.Errorf("whitelist gate for %s: %w", msg.SenderDomain, err)
	}
	if !enabled {
		msg.Priority = model.PrioritySilent
		msg.Processed = true
		if err := c.messages.UpdateClassification(ctx, msg.ID, msg.Intent, msg.Priority, true); err != nil {
			return fmt.Errorf("silence gated message %d: %w", msg.ID, err)
		}
		c.logger.Debug("Message silenced by whitelist gate",
			zap.Int64("message_id", msg.ID),
			zap.String("domain", msg.SenderDomain),
		)
		return nil
	}

	tier, err := c.trust.TrustLevel(ctx, msg.SenderDomain)
	if err != nil {
		return fmt.Errorf("trust lookup for %s: %w", msg.SenderDomain, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	res, err := c.classifier.Classify(ctx, msg, tier)
	if err != nil {
		return fmt.Errorf("classify message %d: %w", msg.ID, err)
	}
	msg.Intent = res.Intent
	msg.Priority = res.Priority

	if err := c.messages.UpdateClassification(ctx, msg.ID, msg.Intent, msg.Priority, false); err != nil {
		return fmt.Errorf("persist classification for message %d: %w", msg.ID, err)
	}

	if msg.Priority == model.PriorityHigh || msg.Priority == model.PriorityMedium {
		if _, err := c.tasks.CreateFromMessage(ctx, msg); err != nil {
			return fmt.Errorf("create task for message %d: %w", msg.ID, err)
		}
	}

	if err := c.messages.SetProcessed(ctx, msg.ID, true); err != nil {
		return fmt.Errorf("mark message %d processed: %w", msg.ID, err)
	}
	msg.Processed = true
	return nil
}

// Reprocess reruns the pipeline for a stored message. It refuses when a
// task already exists, since rerunning could change the classification
// under an accepted task.
func (c *Coordinator) Reprocess(ctx context.Context, messageID int64) error {
	msg, err := c.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}

	has, err := c.tasks.HasTaskFor(ctx, messageID)
	if err != nil {
		return fmt.Errorf("check task for message %d: %w", messageID, err)
	}
	if has {
		return fault.Validationf("message %d already has a task, refusing to reprocess", messageID)
	}

	unlock := c.locks.acquire(msg.UserEmail)
	defer unlock()

	msg.Processed = false
	if err := c.classifyAndRoute(ctx, msg); err != nil {
		return err
	}

	c.logger.Info("Message reprocessed",
		zap.Int64("message_id", messageID),
		zap.String("priority", string(msg.Priority)),
	)
	return nil
}
