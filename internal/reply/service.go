// Package reply prepares outbound replies to stored messages. Actual
// delivery happens in the mail transport, reached over the broker.
package reply

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	contracts "dailyfix/contracts/mq"
	"dailyfix/internal/fault"
	"dailyfix/internal/model"
)

type MessageStore interface {
	FindByID(ctx context.Context, id int64) (*model.Message, error)
}

// Sender hands a composed reply to the transport.
type Sender interface {
	Send(ctx context.Context, payload contracts.ReplyRequestedPayload) error
}

type Service struct {
	messages MessageStore
	sender   Sender
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(messages MessageStore, sender Sender, logger *zap.Logger) *Service {
	return &Service{
		messages: messages,
		sender:   sender,
		logger:   logger,
		now:      time.Now,
	}
}

// SendReply composes a reply to the message's sender and hands it to the
// transport. Messages from the unknown domain have no usable recipient
// and are rejected.
func (s *Service) SendReply(ctx context.Context, messageID int64, body string) error {
	if strings.TrimSpace(body) == "" {
		return fault.Validationf("reply body is empty")
	}

	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderDomain == model.UnknownDomain {
		return fault.Validationf("message %d has no deliverable sender address", messageID)
	}

	subject := msg.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	payload := contracts.ReplyRequestedPayload{
		MessageID:   msg.ID,
		Recipient:   msg.SenderEmail,
		Subject:     subject,
		Body:        body,
		RequestedAt: s.now(),
	}
	if err := s.sender.Send(ctx, payload); err != nil {
		return fault.Externalf(err, "hand reply for message %d to transport", messageID)
	}

	s.logger.Info("Reply requested",
		zap.Int64("message_id", msg.ID),
		zap.String("recipient", msg.SenderEmail),
	)
	return nil
}

// MQSender publishes reply requests on the events exchange.
type MQSender struct {
	publisher Publisher
}

type Publisher interface {
	Publish(routingKey string, payload any) error
}

func NewMQSender(publisher Publisher) *MQSender {
	return &MQSender{publisher: publisher}
}

func (s *MQSender) Send(_ context.Context, payload contracts.ReplyRequestedPayload) error {
	if err := s.publisher.Publish("mail.reply.requested", payload); err != nil {
		return fmt.Errorf("publish reply request: %w", err)
	}
	return nil
}
