// Package mqhandler contains the broker-facing handlers. Each handler
// unmarshals one payload type and delegates to a domain service.
package mqhandler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	contracts "dailyfix/contracts/mq"
	"dailyfix/internal/fault"
	"dailyfix/pkg/metrics"
)

type Ingester interface {
	Ingest(ctx context.Context, userEmail string) (int, error)
}

// SyncRequestedHandler runs an immediate mail sync when a sync.requested
// event arrives, outside the periodic schedule.
type SyncRequestedHandler struct {
	ingester Ingester
	logger   *zap.Logger
}

func NewSyncRequestedHandler(ingester Ingester, logger *zap.Logger) *SyncRequestedHandler {
	return &SyncRequestedHandler{ingester: ingester, logger: logger}
}

// HandleSyncRequested is idempotent: the coordinator skips messages it
// has already stored, so a redelivered event only costs a source listing.
func (h *SyncRequestedHandler) HandleSyncRequested(ctx context.Context, raw json.RawMessage) error {
	var p contracts.SyncRequestedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal sync requested payload", zap.Error(err))
		return fault.Validationf("bad sync.requested payload: %v", err)
	}
	if p.UserEmail == "" {
		return fault.Validationf("sync.requested payload missing user_email")
	}

	start := time.Now()
	stored, err := h.ingester.Ingest(ctx, p.UserEmail)
	metrics.RecordSyncRunDuration("manual", time.Since(start))
	if err != nil {
		h.logger.Error("Requested sync failed",
			zap.String("user", p.UserEmail),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("Requested sync finished",
		zap.String("user", p.UserEmail),
		zap.Int("stored", stored),
	)
	return nil
}
