package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSubscriptionStore_SetWebhook verifies webhook registration and
// replacement by guild
func TestSubscriptionStore_SetWebhook(t *testing.T) {
	s := NewSubscriptionStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.SetWebhook(ctx, 100, "https://hooks.example.com/one"))
	require.NoError(t, s.SetWebhook(ctx, 100, "https://hooks.example.com/two"))

	sub, err := s.Get(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "https://hooks.example.com/two", sub.WebhookURL)
}

// TestSubscriptionStore_SetLanguage verifies the language preference is
// kept independently of the webhook
func TestSubscriptionStore_SetLanguage(t *testing.T) {
	s := NewSubscriptionStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.SetWebhook(ctx, 100, "https://hooks.example.com/one"))
	require.NoError(t, s.SetLanguage(ctx, 100, "korean"))

	sub, err := s.Get(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "https://hooks.example.com/one", sub.WebhookURL)
	assert.Equal(t, "korean", sub.Language)
}

// TestSubscriptionStore_GetMissing verifies an unknown guild yields nil
func TestSubscriptionStore_GetMissing(t *testing.T) {
	s := NewSubscriptionStore(newTestDB(t))

	sub, err := s.Get(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

// TestSubscriptionStore_ListSubscriptions verifies only guilds with a
// configured webhook are delivery targets
func TestSubscriptionStore_ListSubscriptions(t *testing.T) {
	s := NewSubscriptionStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.SetWebhook(ctx, 2, "https://hooks.example.com/b"))
	require.NoError(t, s.SetWebhook(ctx, 1, "https://hooks.example.com/a"))
	// Language-only row; no webhook, so not a target.
	require.NoError(t, s.SetLanguage(ctx, 3, "english"))

	subs, err := s.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(1), subs[0].GuildID)
	assert.Equal(t, int64(2), subs[1].GuildID)
}
