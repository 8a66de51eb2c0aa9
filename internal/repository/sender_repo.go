package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyfix/internal/fault"
	"dailyfix/internal/model"
)

type SenderProfileRepository struct {
	db *pgxpool.Pool
}

func NewSenderProfileRepository(db *pgxpool.Pool) *SenderProfileRepository {
	return &SenderProfileRepository{db: db}
}

func (r *SenderProfileRepository) FindByDomain(ctx context.Context, domain string) (*model.SenderProfile, error) {
	query := `
        SELECT id, sender_domain, trust_level, promotional, created_at
        FROM sender_profiles
        WHERE sender_domain = $1
    `
	var p model.SenderProfile
	err := r.db.QueryRow(ctx, query, domain).Scan(
		&p.ID,
		&p.SenderDomain,
		&p.TrustLevel,
		&p.Promotional,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("sender profile %s", domain)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert inserts or replaces the trust assessment for a domain. Used by
// the operator CLI; the pipeline itself only reads profiles.
func (r *SenderProfileRepository) Upsert(ctx context.Context, p *model.SenderProfile) error {
	query := `
        INSERT INTO sender_profiles (sender_domain, trust_level, promotional, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (sender_domain)
        DO UPDATE SET trust_level = EXCLUDED.trust_level, promotional = EXCLUDED.promotional
    `
	_, err := r.db.Exec(ctx, query, p.SenderDomain, p.TrustLevel, p.Promotional)
	return err
}

type WhitelistRepository struct {
	db *pgxpool.Pool
}

func NewWhitelistRepository(db *pgxpool.Pool) *WhitelistRepository {
	return &WhitelistRepository{db: db}
}

func (r *WhitelistRepository) FindByDomain(ctx context.Context, domain string) (*model.AlertWhitelist, error) {
	query := `
        SELECT id, sender_domain, alert_enabled, added_at
        FROM alert_whitelist
        WHERE sender_domain = $1
    `
	var w model.AlertWhitelist
	err := r.db.QueryRow(ctx, query, domain).Scan(
		&w.ID,
		&w.SenderDomain,
		&w.AlertEnabled,
		&w.AddedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("whitelist entry %s", domain)
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WhitelistRepository) Upsert(ctx context.Context, w *model.AlertWhitelist) error {
	query := `
        INSERT INTO alert_whitelist (sender_domain, alert_enabled, added_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (sender_domain)
        DO UPDATE SET alert_enabled = EXCLUDED.alert_enabled
    `
	_, err := r.db.Exec(ctx, query, w.SenderDomain, w.AlertEnabled)
	return err
}
