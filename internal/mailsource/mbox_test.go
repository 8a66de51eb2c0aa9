package mailsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dailyfix/internal/fault"
)

const sampleMbox = `From billing@acme.com Thu Aug 27 10:00:00 2026
From: billing@acme.com
To: owner@corp.test
Subject: Payment failed
Message-Id: <msg-1@acme.com>
Date: Thu, 27 Aug 2026 10:00:00 +0000

Your payment failed, action required.

From news@letters.example Thu Aug 27 11:00:00 2026
From: news@letters.example
To: owner@corp.test
Subject: Weekly deals
Message-Id: <msg-2@letters.example>
Date: Thu, 27 Aug 2026 11:00:00 +0000

Huge discounts this week only.
`

func writeSampleMbox(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.mbox")
	if err := os.WriteFile(path, []byte(sampleMbox), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMboxSourceListAndFetch(t *testing.T) {
	src := NewMboxSource(writeSampleMbox(t))
	ctx := context.Background()

	ids, err := src.ListUnseen(ctx, 365*24*time.Hour)
	if err != nil {
		t.Fatalf("ListUnseen error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2: %v", len(ids), ids)
	}

	raw, err := src.Fetch(ctx, ids[0])
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if raw.Headers["From"] != "billing@acme.com" {
		t.Errorf("From = %q", raw.Headers["From"])
	}
	if raw.Headers["Subject"] != "Payment failed" {
		t.Errorf("Subject = %q", raw.Headers["Subject"])
	}
	if raw.ReceivedAt.IsZero() {
		t.Error("ReceivedAt not parsed from Date header")
	}
}

func TestMboxSourceMarkConsumed(t *testing.T) {
	src := NewMboxSource(writeSampleMbox(t))
	ctx := context.Background()

	ids, err := src.ListUnseen(ctx, 365*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.MarkConsumed(ctx, ids[0]); err != nil {
		t.Fatal(err)
	}

	remaining, err := src.ListUnseen(ctx, 365*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != len(ids)-1 {
		t.Errorf("got %d remaining, want %d", len(remaining), len(ids)-1)
	}
}

func TestMboxSourceWindowFiltersOldMessages(t *testing.T) {
	src := NewMboxSource(writeSampleMbox(t))

	ids, err := src.ListUnseen(context.Background(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("got %d ids inside a one minute window, want 0", len(ids))
	}
}

func TestMboxSourceMissingFile(t *testing.T) {
	src := NewMboxSource("/does/not/exist.mbox")
	_, err := src.ListUnseen(context.Background(), time.Hour)
	if !fault.IsValidation(err) {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestMboxSourceFetchUnknownID(t *testing.T) {
	src := NewMboxSource(writeSampleMbox(t))
	_, err := src.Fetch(context.Background(), "<nope@nowhere>")
	if !fault.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}
