package analyze

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bdo-watch/patchwatch/internal/models"
)

// TestIsMaintenance verifies maintenance titles are recognized in both
// languages
func TestIsMaintenance(t *testing.T) {
	maintenance := []string{
		"Scheduled Maintenance - August 6",
		"[안내] 정기점검 안내",
		"임시점검 완료 안내",
		"서버점검 연장 안내",
		"Hotfix deployed to all servers",
	}
	for _, title := range maintenance {
		assert.True(t, isMaintenance(title), "title %q", title)
	}

	regular := []string{
		"Patch Notes - August 6, 2025",
		"New Class Reveal",
		"이벤트 보상 지급 안내",
	}
	for _, title := range regular {
		assert.False(t, isMaintenance(title), "title %q", title)
	}
}

// TestBuildPrompt verifies maintenance posts get the short prompt and
// patches get the full analysis sections
func TestBuildPrompt(t *testing.T) {
	patch := models.ScrapedItem{
		Title: "Patch Notes - August 6", RawDate: "2025-08-06",
		URL: "https://example.com/Detail?boardNo=1", Source: "Global Labs",
	}
	full := buildPrompt(patch)
	assert.Contains(t, full, patch.URL)
	assert.Contains(t, full, "EXECUTIVE SUMMARY")
	assert.Contains(t, full, "PLAYER ACTION ITEMS")

	patch.Title = "[안내] 정기점검 안내"
	short := buildPrompt(patch)
	assert.Contains(t, short, "maintenance update")
	assert.NotContains(t, short, "EXECUTIVE SUMMARY")
	assert.Less(t, len(short), len(full))
}

// TestFormatReport verifies the stored blob carries the metadata header
// and footer around the analysis text
func TestFormatReport(t *testing.T) {
	item := models.ScrapedItem{
		PatchID: "korean_101",
		Title:   "Patch Notes",
		RawDate: "2025-08-06",
		URL:     "https://example.com/Detail?boardNo=101",
		Source:  "Korean Notice",
	}
	generatedAt := time.Date(2025, 8, 6, 12, 0, 0, 0, time.UTC)

	body := FormatReport(item, "the analysis text", "test-model", generatedAt)

	assert.Contains(t, body, "BLACK DESERT ONLINE - INTELLIGENCE REPORT")
	assert.Contains(t, body, "Title: Patch Notes")
	assert.Contains(t, body, "Report ID: korean_101")
	assert.Contains(t, body, "AI Model: test-model")
	assert.Contains(t, body, "2025-08-06 12:00:00 UTC")
	assert.Contains(t, body, "the analysis text")
	assert.Contains(t, body, "Analysis Method: Direct URL Processing")
}
