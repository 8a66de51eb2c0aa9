package ingest

import (
	"net/mail"
	"strings"
	"time"

	"dailyfix/internal/mailsource"
	"dailyfix/internal/model"
)

// Defaults applied when a raw message misses the corresponding header.
const (
	defaultSubject = "No Subject"
	defaultSender  = "Unknown"
)

// headerValue does a case-insensitive lookup, since sources deliver
// header field names in whatever casing the origin used.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// MapRaw normalizes a fetched raw message into the stored message shape.
// Missing or malformed sender addresses map to the unknown domain
// sentinel so classification still has a domain to resolve.
func MapRaw(raw *mailsource.RawMessage, userEmail string) *model.Message {
	subject := strings.TrimSpace(headerValue(raw.Headers, "Subject"))
	if subject == "" {
		subject = defaultSubject
	}

	sender := strings.TrimSpace(headerValue(raw.Headers, "From"))
	if sender == "" {
		sender = defaultSender
	}

	receivedAt := raw.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	senderEmail, domain := splitSender(sender)

	m := &model.Message{
		UserEmail:    userEmail,
		SenderEmail:  senderEmail,
		SenderDomain: domain,
		SourceType:   model.SourceEmail,
		Subject:      subject,
		Body:         raw.Body,
		ReceivedAt:   receivedAt,
	}
	if raw.SourceID != "" {
		id := raw.SourceID
		m.SourceID = &id
	}
	return m
}

// splitSender extracts the address from a From header value, which may
// carry a display name, and derives the domain from it.
func splitSender(from string) (email, domain string) {
	addr, err := mail.ParseAddress(from)
	if err == nil {
		from = addr.Address
	}

	at := strings.LastIndex(from, "@")
	if at < 0 || at == len(from)-1 {
		return from, model.UnknownDomain
	}
	return from, strings.ToLower(from[at+1:])
}
