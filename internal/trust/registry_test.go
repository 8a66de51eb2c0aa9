package trust

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"dailyfix/internal/fault"
	"dailyfix/internal/model"
)

type fakeWhitelist map[string]bool

func (f fakeWhitelist) FindByDomain(_ context.Context, domain string) (*model.AlertWhitelist, error) {
	enabled, ok := f[domain]
	if !ok {
		return nil, fault.NotFoundf("whitelist entry %s", domain)
	}
	return &model.AlertWhitelist{SenderDomain: domain, AlertEnabled: enabled}, nil
}

type fakeProfiles map[string]model.TrustLevel

func (f fakeProfiles) FindByDomain(_ context.Context, domain string) (*model.SenderProfile, error) {
	level, ok := f[domain]
	if !ok {
		return nil, fault.NotFoundf("sender profile %s", domain)
	}
	return &model.SenderProfile{SenderDomain: domain, TrustLevel: level}, nil
}

type failingStore struct{ err error }

func (f failingStore) FindByDomain(context.Context, string) (*model.AlertWhitelist, error) {
	return nil, f.err
}

func TestAlertEnabled(t *testing.T) {
	reg := NewRegistry(
		fakeWhitelist{"acme.com": true, "spam.example": false},
		fakeProfiles{},
		zap.NewNop(),
	)

	tests := []struct {
		domain string
		want   bool
	}{
		{"acme.com", true},
		{"spam.example", false},
		// No whitelist row: fail closed.
		{"nobody.example", false},
	}
	for _, tt := range tests {
		got, err := reg.AlertEnabled(context.Background(), tt.domain)
		if err != nil {
			t.Fatalf("AlertEnabled(%q) error: %v", tt.domain, err)
		}
		if got != tt.want {
			t.Errorf("AlertEnabled(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}

func TestAlertEnabledSurfacesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection refused")
	reg := NewRegistry(failingStore{err: storeErr}, fakeProfiles{}, zap.NewNop())

	_, err := reg.AlertEnabled(context.Background(), "acme.com")
	if !errors.Is(err, storeErr) {
		t.Errorf("AlertEnabled error = %v, want %v", err, storeErr)
	}
}

func TestTrustLevel(t *testing.T) {
	reg := NewRegistry(
		fakeWhitelist{},
		fakeProfiles{"acme.com": model.TrustHigh, "vendor.example": model.TrustMedium},
		zap.NewNop(),
	)

	tests := []struct {
		domain string
		want   model.TrustLevel
	}{
		{"acme.com", model.TrustHigh},
		{"vendor.example", model.TrustMedium},
		// Unknown domains are conservatively low trust.
		{"nobody.example", model.TrustLow},
	}
	for _, tt := range tests {
		got, err := reg.TrustLevel(context.Background(), tt.domain)
		if err != nil {
			t.Fatalf("TrustLevel(%q) error: %v", tt.domain, err)
		}
		if got != tt.want {
			t.Errorf("TrustLevel(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}
