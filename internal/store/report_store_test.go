package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdo-watch/patchwatch/internal/database"
	"bdo-watch/patchwatch/internal/models"
)

// Test helper: open a migrated database in a temp directory
func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	cfg := database.NewConfig(filepath.Join(t.TempDir(), "test.db"))
	db, err := database.NewDB(cfg)
	require.NoError(t, err, "should open test database")
	t.Cleanup(func() { db.Close() })
	return db
}

// Test helper: a report store whose clock ticks one second per Upsert,
// so generated_at is distinct and ordered by insertion
func newTestReportStore(t *testing.T) *sqlxReportStore {
	t.Helper()
	base := time.Date(2025, 8, 6, 12, 0, 0, 0, time.UTC)
	tick := 0
	return &sqlxReportStore{
		db: newTestDB(t),
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}
}

func sampleReport(source, patchID, parsedDate string) *models.Report {
	r := &models.Report{
		Source:         source,
		PatchID:        patchID,
		Title:          "Patch notes " + patchID,
		RawDate:        parsedDate,
		URL:            "https://example.com/Detail?boardNo=" + patchID,
		ReportFilename: "korean_" + patchID + "_20250806_1200.txt",
		Payload:        []byte(`{"id":"` + patchID + `"}`),
	}
	if parsedDate != "" {
		r.ParsedDate = models.NewNullString(parsedDate)
	}
	return r
}

// TestReportStore_UpsertAndExists verifies the seen/new decision
func TestReportStore_UpsertAndExists(t *testing.T) {
	s := newTestReportStore(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "Korean Notice", "korean_1")
	require.NoError(t, err)
	assert.False(t, exists, "fresh store should know nothing")

	require.NoError(t, s.Upsert(ctx, sampleReport("Korean Notice", "korean_1", "2025-08-06")))

	exists, err = s.Exists(ctx, "Korean Notice", "korean_1")
	require.NoError(t, err)
	assert.True(t, exists)

	// Same patch ID under another source is a different report.
	exists, err = s.Exists(ctx, "Global Labs", "korean_1")
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestReportStore_UpsertReplace verifies a regenerated report replaces
// the stored row and becomes pending again
func TestReportStore_UpsertReplace(t *testing.T) {
	s := newTestReportStore(t)
	ctx := context.Background()

	first := sampleReport("Korean Notice", "korean_1", "2025-08-06")
	require.NoError(t, s.Upsert(ctx, first))
	require.NoError(t, s.MarkNotified(ctx, "Korean Notice", "korean_1"))

	second := sampleReport("Korean Notice", "korean_1", "2025-08-06")
	second.Title = "Patch notes korean_1 (revised)"
	require.NoError(t, s.Upsert(ctx, second))

	count, err := s.Count(ctx, "Korean Notice")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "replace must not create a second row")

	latest, err := s.Latest(ctx, "Korean Notice")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "Patch notes korean_1 (revised)", latest.Title)
	assert.False(t, latest.Notified, "replace must reset the notified flag")
	assert.True(t, second.GeneratedAt.After(first.GeneratedAt), "replace must refresh generated_at")

	pending, err := s.PendingNotification(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "korean_1", pending[0].PatchID)
}

// TestReportStore_Ordering verifies listings rank by patch date, with
// undated reports last and ties broken by generation recency
func TestReportStore_Ordering(t *testing.T) {
	s := newTestReportStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, sampleReport("Korean Notice", "korean_old", "2025-08-01")))
	require.NoError(t, s.Upsert(ctx, sampleReport("Korean Notice", "korean_nodate", "")))
	require.NoError(t, s.Upsert(ctx, sampleReport("Korean Notice", "korean_new", "2025-08-12")))
	require.NoError(t, s.Upsert(ctx, sampleReport("Korean Notice", "korean_tie_a", "2025-08-10")))
	require.NoError(t, s.Upsert(ctx, sampleReport("Korean Notice", "korean_tie_b", "2025-08-10")))

	got, err := s.ListOrdered(ctx, "Korean Notice", 10)
	require.NoError(t, err)
	require.Len(t, got, 5)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.PatchID
	}
	// tie_b was generated after tie_a, so it ranks first among equals.
	assert.Equal(t, []string{"korean_new", "korean_tie_b", "korean_tie_a", "korean_old", "korean_nodate"}, ids)
}

// TestReportStore_ByOffset verifies offset walking agrees with the
// listing order and runs off the end cleanly
func TestReportStore_ByOffset(t *testing.T) {
	s := newTestReportStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, sampleReport("Korean Notice", "korean_1", "2025-08-01")))
	require.NoError(t, s.Upsert(ctx, sampleReport("Korean Notice", "korean_2", "2025-08-12")))
	require.NoError(t, s.Upsert(ctx, sampleReport("Korean Notice", "korean_3", "")))

	ordered, err := s.ListOrdered(ctx, "Korean Notice", 10)
	require.NoError(t, err)
	require.Len(t, ordered, 3)

	for i, want := range ordered {
		got, err := s.ByOffset(ctx, "Korean Notice", i+1)
		require.NoError(t, err)
		require.NotNil(t, got, "offset %d", i+1)
		assert.Equal(t, want.PatchID, got.PatchID, "offset %d", i+1)
	}

	past, err := s.ByOffset(ctx, "Korean Notice", 4)
	require.NoError(t, err)
	assert.Nil(t, past, "offset past the end returns nothing")

	_, err = s.ByOffset(ctx, "Korean Notice", 0)
	assert.Error(t, err, "offsets are 1-based")
}

// TestReportStore_LatestEmpty verifies an unknown source yields no
// report and no error
func TestReportStore_LatestEmpty(t *testing.T) {
	s := newTestReportStore(t)

	latest, err := s.Latest(context.Background(), "Korean Notice")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

// TestReportStore_PendingNotification verifies the delivery queue is
// oldest-first and draining it via MarkNotified is idempotent
func TestReportStore_PendingNotification(t *testing.T) {
	s := newTestReportStore(t)
	ctx := context.Background()

	// Newest patch date first by rank, but delivery goes by generation
	// order, so korean_b (generated first) must be delivered first.
	require.NoError(t, s.Upsert(ctx, sampleReport("Korean Notice", "korean_b", "2025-08-12")))
	require.NoError(t, s.Upsert(ctx, sampleReport("Korean Notice", "korean_a", "2025-08-01")))

	pending, err := s.PendingNotification(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "korean_b", pending[0].PatchID)
	assert.Equal(t, "korean_a", pending[1].PatchID)

	require.NoError(t, s.MarkNotified(ctx, "Korean Notice", "korean_b"))

	pending, err = s.PendingNotification(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "korean_a", pending[0].PatchID)

	// Re-marking and marking the unknown are both no-op successes.
	assert.NoError(t, s.MarkNotified(ctx, "Korean Notice", "korean_b"))
	assert.NoError(t, s.MarkNotified(ctx, "Korean Notice", "korean_missing"))
}
