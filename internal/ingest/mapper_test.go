package ingest

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dailyfix/internal/mailsource"
	"dailyfix/internal/model"
)

func TestMapRaw(t *testing.T) {
	received := time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  mailsource.RawMessage
		want model.Message
	}{
		{
			name: "full headers",
			raw: mailsource.RawMessage{
				SourceID: "42",
				Headers: map[string]string{
					"From":    "Acme Billing <billing@acme.com>",
					"Subject": "Payment failed",
				},
				Body:       "your card was declined",
				ReceivedAt: received,
			},
			want: model.Message{
				UserEmail:    "owner@corp.test",
				SenderEmail:  "billing@acme.com",
				SenderDomain: "acme.com",
				SourceType:   model.SourceEmail,
				Subject:      "Payment failed",
				Body:         "your card was declined",
				ReceivedAt:   received,
			},
		},
		{
			name: "lowercase header field names",
			raw: mailsource.RawMessage{
				Headers: map[string]string{
					"from":    "ops@tools.example",
					"subject": "Nightly report",
				},
				ReceivedAt: received,
			},
			want: model.Message{
				UserEmail:    "owner@corp.test",
				SenderEmail:  "ops@tools.example",
				SenderDomain: "tools.example",
				SourceType:   model.SourceEmail,
				Subject:      "Nightly report",
				ReceivedAt:   received,
			},
		},
		{
			name: "missing subject and sender",
			raw: mailsource.RawMessage{
				Headers:    map[string]string{},
				Body:       "orphan body",
				ReceivedAt: received,
			},
			want: model.Message{
				UserEmail:    "owner@corp.test",
				SenderEmail:  "Unknown",
				SenderDomain: model.UnknownDomain,
				SourceType:   model.SourceEmail,
				Subject:      "No Subject",
				Body:         "orphan body",
				ReceivedAt:   received,
			},
		},
		{
			name: "malformed sender address",
			raw: mailsource.RawMessage{
				Headers: map[string]string{
					"From":    "not-an-address",
					"Subject": "hello",
				},
				ReceivedAt: received,
			},
			want: model.Message{
				UserEmail:    "owner@corp.test",
				SenderEmail:  "not-an-address",
				SenderDomain: model.UnknownDomain,
				SourceType:   model.SourceEmail,
				Subject:      "hello",
				ReceivedAt:   received,
			},
		},
		{
			name: "uppercase domain is normalized",
			raw: mailsource.RawMessage{
				Headers: map[string]string{
					"From":    "Billing@ACME.COM",
					"Subject": "invoice",
				},
				ReceivedAt: received,
			},
			want: model.Message{
				UserEmail:    "owner@corp.test",
				SenderEmail:  "Billing@ACME.COM",
				SenderDomain: "acme.com",
				SourceType:   model.SourceEmail,
				Subject:      "invoice",
				ReceivedAt:   received,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapRaw(&tt.raw, "owner@corp.test")

			want := tt.want
			if tt.raw.SourceID != "" {
				id := tt.raw.SourceID
				want.SourceID = &id
			}
			if diff := cmp.Diff(&want, got); diff != "" {
				t.Errorf("MapRaw mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMapRawZeroReceivedAtDefaultsToNow(t *testing.T) {
	before := time.Now()
	got := MapRaw(&mailsource.RawMessage{Headers: map[string]string{}}, "owner@corp.test")
	if got.ReceivedAt.Before(before) {
		t.Errorf("ReceivedAt = %v, want >= %v", got.ReceivedAt, before)
	}
}
