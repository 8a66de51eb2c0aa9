package notify

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	mqcontracts "dailyfix/contracts/mq"
	"dailyfix/internal/model"
)

type capturePublisher struct {
	keys     []string
	payloads []any
	err      error
}

func (p *capturePublisher) Publish(routingKey string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, routingKey)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestHighPriorityAlert(t *testing.T) {
	pub := &capturePublisher{}
	n := NewAlertNotifier(pub, zap.NewNop())

	n.HighPriorityAlert(context.Background(), &model.Message{
		ID:          5,
		SenderEmail: "billing@acme.com",
		Subject:     "Payment failed",
	})

	if len(pub.keys) != 1 || pub.keys[0] != "alert.highpriority" {
		t.Fatalf("published keys = %v", pub.keys)
	}
	payload := pub.payloads[0].(mqcontracts.AlertRaisedPayload)
	if payload.MessageID != 5 || payload.SenderEmail != "billing@acme.com" {
		t.Errorf("payload = %+v", payload)
	}
}


func TestPublishFailureIsSwallowed(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	n := NewAlertNotifier(pub, zap.NewNop())

	// Must not panic or propagate; creation goes on without the alert.
	n.HighPriorityAlert(context.Background(), &model.Message{ID: 1})
}
