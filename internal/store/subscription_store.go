package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bdo-watch/patchwatch/internal/database"
	"bdo-watch/patchwatch/internal/models"
)

// SubscriptionStore manages the per-guild delivery targets. Read by the
// notification loop, written by the subscribe command and CSV import.
type SubscriptionStore interface {
	SetWebhook(ctx context.Context, guildID int64, webhookURL string) error
	SetLanguage(ctx context.Context, guildID int64, language string) error
	Get(ctx context.Context, guildID int64) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
}

type sqlxSubscriptionStore struct {
	db  *database.DB
	now func() time.Time
}

// NewSubscriptionStore creates a new subscription store instance.
func NewSubscriptionStore(db *database.DB) SubscriptionStore {
	return &sqlxSubscriptionStore{db: db, now: time.Now}
}

// SetWebhook registers or updates the delivery webhook for a guild.
func (s *sqlxSubscriptionStore) SetWebhook(ctx context.Context, guildID int64, webhookURL string) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (guild_id, webhook_url, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			webhook_url = excluded.webhook_url,
			updated_at = excluded.updated_at`,
		guildID, webhookURL, now, now)
	if err != nil {
		return fmt.Errorf("failed to set webhook for guild %d: %w", guildID, err)
	}
	return nil
}

// SetLanguage sets the preferred report language for a guild.
func (s *sqlxSubscriptionStore) SetLanguage(ctx context.Context, guildID int64, language string) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (guild_id, language, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			language = excluded.language,
			updated_at = excluded.updated_at`,
		guildID, language, now, now)
	if err != nil {
		return fmt.Errorf("failed to set language for guild %d: %w", guildID, err)
	}
	return nil
}

// Get returns the subscription for a guild, or nil when none exists.
func (s *sqlxSubscriptionStore) Get(ctx context.Context, guildID int64) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.GetContext(ctx, &sub,
		`SELECT guild_id, webhook_url, language, created_at, updated_at
		 FROM subscriptions WHERE guild_id = ?`, guildID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription for guild %d: %w", guildID, err)
	}
	return &sub, nil
}

// ListSubscriptions returns every guild with a webhook configured.
func (s *sqlxSubscriptionStore) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	subs := []models.Subscription{}
	err := s.db.SelectContext(ctx, &subs,
		`SELECT guild_id, webhook_url, language, created_at, updated_at
		 FROM subscriptions WHERE webhook_url != '' ORDER BY guild_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}
