package importsubs

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdo-watch/patchwatch/internal/models"
)

type fakeSubStore struct {
	webhooks  map[int64]string
	languages map[int64]string
}

func newFakeSubStore() *fakeSubStore {
	return &fakeSubStore{webhooks: map[int64]string{}, languages: map[int64]string{}}
}

func (f *fakeSubStore) SetWebhook(_ context.Context, guildID int64, webhookURL string) error {
	f.webhooks[guildID] = webhookURL
	return nil
}

func (f *fakeSubStore) SetLanguage(_ context.Context, guildID int64, language string) error {
	f.languages[guildID] = language
	return nil
}

func (f *fakeSubStore) Get(context.Context, int64) (*models.Subscription, error) {
	return nil, nil
}

func (f *fakeSubStore) ListSubscriptions(context.Context) ([]models.Subscription, error) {
	return nil, nil
}

// TestParseAndImport verifies valid rows import and bad rows are skipped
// without aborting the run
func TestParseAndImport(t *testing.T) {
	csv := strings.Join([]string{
		"guild_id,webhook_url,language",
		"100,https://hooks.example.com/a,korean",
		"200,https://hooks.example.com/b,",
		"not-a-number,https://hooks.example.com/c,english",
		"300,,english",
		"",
	}, "\n")

	subs := newFakeSubStore()
	err := NewImporter(subs).parseAndImport(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, map[int64]string{
		100: "https://hooks.example.com/a",
		200: "https://hooks.example.com/b",
	}, subs.webhooks)
	assert.Equal(t, map[int64]string{100: "korean"}, subs.languages)
}

// TestParseAndImport_HeaderOrder verifies columns are located by name,
// not position
func TestParseAndImport_HeaderOrder(t *testing.T) {
	csv := strings.Join([]string{
		"language,webhook_url,guild_id",
		"english,https://hooks.example.com/a,42",
	}, "\n")

	subs := newFakeSubStore()
	err := NewImporter(subs).parseAndImport(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/a", subs.webhooks[42])
	assert.Equal(t, "english", subs.languages[42])
}

// TestParseAndImport_MissingColumns verifies a CSV without the required
// columns is rejected outright
func TestParseAndImport_MissingColumns(t *testing.T) {
	subs := newFakeSubStore()
	err := NewImporter(subs).parseAndImport(context.Background(), strings.NewReader("id,url\n1,x\n"))
	assert.Error(t, err)
}
