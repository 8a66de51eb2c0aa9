// Package trust resolves a sender domain to its alert gate and trust tier.
package trust

import (
	"context"

	"go.uber.org/zap"

	"dailyfix/internal/fault"
	"dailyfix/internal/model"
)

type WhitelistStore interface {
	FindByDomain(ctx context.Context, domain string) (*model.AlertWhitelist, error)
}

type ProfileStore interface {
	FindByDomain(ctx context.Context, domain string) (*model.SenderProfile, error)
}

type Registry struct {
	whitelist WhitelistStore
	profiles  ProfileStore
	logger    *zap.Logger
}

func NewRegistry(whitelist WhitelistStore, profiles ProfileStore, logger *zap.Logger) *Registry {
	return &Registry{
		whitelist: whitelist,
		profiles:  profiles,
		logger:    logger,
	}
}

// AlertEnabled reports whether the domain may enter scoring at all.
// A domain without a whitelist row is closed.
func (r *Registry) AlertEnabled(ctx context.Context, domain string) (bool, error) {
	w, err := r.whitelist.FindByDomain(ctx, domain)
	if fault.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return w.AlertEnabled, nil
}

// TrustLevel returns the domain's trust tier. A domain without a sender
// profile is treated as low trust.
func (r *Registry) TrustLevel(ctx context.Context, domain string) (model.TrustLevel, error) {
	p, err := r.profiles.FindByDomain(ctx, domain)
	if fault.IsNotFound(err) {
		return model.TrustLow, nil
	}
	if err != nil {
		return model.TrustLow, err
	}
	return p.TrustLevel, nil
}
