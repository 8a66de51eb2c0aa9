package model

import "time"

// SenderProfile is the trust assessment for a sending domain, maintained
// by an administrative process outside the triage pipeline.
type SenderProfile struct {
	ID           int64
	SenderDomain string
	TrustLevel   TrustLevel
	Promotional  bool
	CreatedAt    time.Time
}

// AlertWhitelist is the per-domain gate: messages from domains without an
// enabled row are silenced before any scoring happens.
type AlertWhitelist struct {
	ID           int64
	SenderDomain string
	AlertEnabled bool
	AddedAt      time.Time
}
