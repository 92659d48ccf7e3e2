package models

import "time"

// Subscription represents a row in the 'subscriptions' table: one
// delivery target per guild. Targets without a webhook configured are
// never delivered to.
type Subscription struct {
	GuildID    int64     `db:"guild_id" json:"guild_id"`
	WebhookURL string    `db:"webhook_url" json:"webhook_url"`
	Language   string    `db:"language" json:"language"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
