package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anniversary_notifier/internal/domain/settings"

	"github.com/lib/pq"
)

// ErrSettingsNotFound is returned when the singleton row is missing after the
// defaults insert, which only happens if the row was deleted concurrently.
var ErrSettingsNotFound = errors.New("notifier settings not found")

const settingsRowID = 1

// PostgresSettingsRepository stores the singleton configuration row.
type PostgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

// Get returns the stored configuration, creating the defaults on first access.
func (r *PostgresSettingsRepository) Get(ctx context.Context) (*settings.Configuration, error) {
	def := settings.Defaults()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifier_settings (id, window_days, email_enabled, feed_enabled, template_ref, recipients)
         VALUES ($1, $2, $3, $4, $5, $6)
         ON CONFLICT (id) DO NOTHING`,
		settingsRowID, def.WindowDays, def.EmailEnabled, def.FeedEnabled, def.TemplateRef, pq.Array(def.Recipients))
	if err != nil {
		return nil, fmt.Errorf("error creating default settings: %w", err)
	}

	cfg := &settings.Configuration{}
	err = r.db.QueryRowContext(ctx,
		`SELECT window_days, email_enabled, feed_enabled, template_ref, recipients
         FROM notifier_settings WHERE id = $1`, settingsRowID).
		Scan(&cfg.WindowDays, &cfg.EmailEnabled, &cfg.FeedEnabled, &cfg.TemplateRef, pq.Array(&cfg.Recipients))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("error getting settings: %w", err)
	}
	if cfg.Recipients == nil {
		cfg.Recipients = []string{}
	}
	return cfg, nil
}

// Save upserts the singleton row and returns the stored value.
func (r *PostgresSettingsRepository) Save(ctx context.Context, cfg *settings.Configuration) (*settings.Configuration, error) {
	recipients := cfg.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifier_settings (id, window_days, email_enabled, feed_enabled, template_ref, recipients, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, NOW())
         ON CONFLICT (id) DO UPDATE SET
             window_days = EXCLUDED.window_days,
             email_enabled = EXCLUDED.email_enabled,
             feed_enabled = EXCLUDED.feed_enabled,
             template_ref = EXCLUDED.template_ref,
             recipients = EXCLUDED.recipients,
             updated_at = NOW()`,
		settingsRowID, cfg.WindowDays, cfg.EmailEnabled, cfg.FeedEnabled, cfg.TemplateRef, pq.Array(recipients))
	if err != nil {
		return nil, fmt.Errorf("error saving settings: %w", err)
	}
	saved := cfg.Clone()
	saved.Recipients = recipients
	return saved, nil
}
