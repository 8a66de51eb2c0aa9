// Package mq defines the event payloads exchanged over the broker.
package mq

// SyncRequestedPayload asks the service to run an immediate mail sync for
// one user, concurrently with the periodic schedule.
type SyncRequestedPayload struct {
	UserEmail string `json:"user_email"`
}
