// Package notify carries high-priority alerts out of the pipeline over
// the event exchange. Delivery is best effort: a broker hiccup is logged
// and dropped, never propagated into task creation.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	mqcontracts "dailyfix/contracts/mq"
	"dailyfix/internal/model"
)

type Publisher interface {
	Publish(routingKey string, payload any) error
}

type AlertNotifier struct {
	publisher Publisher
	logger    *zap.Logger
}

func NewAlertNotifier(publisher Publisher, logger *zap.Logger) *AlertNotifier {
	return &AlertNotifier{
		publisher: publisher,
		logger:    logger,
	}
}

func (n *AlertNotifier) HighPriorityAlert(ctx context.Context, msg *model.Message) {
	payload := mqcontracts.AlertRaisedPayload{
		MessageID:   msg.ID,
		SenderEmail: msg.SenderEmail,
		Subject:     msg.Subject,
		RaisedAt:    time.Now(),
	}
	if err := n.publisher.Publish("alert.highpriority", payload); err != nil {
		n.logger.Error("Failed to publish high-priority alert",
			zap.Int64("message_id", msg.ID),
			zap.Error(err),
		)
		return
	}
	n.logger.Info("High-priority alert raised",
		zap.Int64("message_id", msg.ID),
		zap.String("sender", msg.SenderEmail),
	)
}

