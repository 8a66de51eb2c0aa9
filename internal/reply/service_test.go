package reply

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	contracts "dailyfix/contracts/mq"
	"dailyfix/internal/fault"
	"dailyfix/internal/model"
)

type stubMessages map[int64]*model.Message

func (s stubMessages) FindByID(_ context.Context, id int64) (*model.Message, error) {
	m, ok := s[id]
	if !ok {
		return nil, fault.NotFoundf("message %d", id)
	}
	return m, nil
}

type captureSender struct {
	sent []contracts.ReplyRequestedPayload
	err  error
}

func (c *captureSender) Send(_ context.Context, p contracts.ReplyRequestedPayload) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, p)
	return nil
}

func testMessage() *model.Message {
	return &model.Message{
		ID:           9,
		UserEmail:    "owner@corp.test",
		SenderEmail:  "billing@acme.com",
		SenderDomain: "acme.com",
		Subject:      "Payment failed",
	}
}

func TestSendReply(t *testing.T) {
	sender := &captureSender{}
	svc := NewService(stubMessages{9: testMessage()}, sender, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }

	if err := svc.SendReply(context.Background(), 9, "paid this morning"); err != nil {
		t.Fatalf("SendReply error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d payloads, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.Recipient != "billing@acme.com" {
		t.Errorf("recipient = %q", got.Recipient)
	}
	if got.Subject != "Re: Payment failed" {
		t.Errorf("subject = %q", got.Subject)
	}
	if got.Body != "paid this morning" {
		t.Errorf("body = %q", got.Body)
	}
}

func TestSendReplyKeepsExistingRePrefix(t *testing.T) {
	msg := testMessage()
	msg.Subject = "RE: Payment failed"
	sender := &captureSender{}
	svc := NewService(stubMessages{9: msg}, sender, zap.NewNop())

	if err := svc.SendReply(context.Background(), 9, "ok"); err != nil {
		t.Fatal(err)
	}
	if got := sender.sent[0].Subject; got != "RE: Payment failed" {
		t.Errorf("subject = %q, want the original prefix kept", got)
	}
}

func TestSendReplyErrors(t *testing.T) {
	unknown := testMessage()
	unknown.SenderDomain = model.UnknownDomain

	svc := NewService(stubMessages{9: testMessage(), 10: unknown}, &captureSender{}, zap.NewNop())

	if err := svc.SendReply(context.Background(), 9, "   "); !fault.IsValidation(err) {
		t.Errorf("empty body: err = %v, want validation", err)
	}
	if err := svc.SendReply(context.Background(), 404, "hi"); !fault.IsNotFound(err) {
		t.Errorf("unknown message: err = %v, want not found", err)
	}
	if err := svc.SendReply(context.Background(), 10, "hi"); !fault.IsValidation(err) {
		t.Errorf("unknown sender domain: err = %v, want validation", err)
	}

	cause := errors.New("broker down")
	failing := NewService(stubMessages{9: testMessage()}, &captureSender{err: cause}, zap.NewNop())
	err := failing.SendReply(context.Background(), 9, "hi")
	if !fault.IsExternal(err) {
		t.Errorf("transport failure: err = %v, want external", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("transport failure: cause %v not on the chain of %v", cause, err)
	}
}
