package mq

import "time"

// ReplyRequestedPayload hands an outbound reply to the mail transport,
// which lives outside this service.
type ReplyRequestedPayload struct {
	MessageID   int64     `json:"message_id"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	RequestedAt time.Time `json:"requested_at"`
}
