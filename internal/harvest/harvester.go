// Package harvest scrapes candidate notice links off the board listing
// pages. It yields links only; notice bodies are fetched later by the
// analyzer.
package harvest

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"bdo-watch/patchwatch/internal/config"
	"bdo-watch/patchwatch/internal/models"
)

// The boards occasionally serve stripped-down markup to unknown agents.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// minTitleLen filters out icon-only and pagination anchors.
const minTitleLen = 5

// Detail links sit in list rows on the Korean board and table rows on
// the Global Lab board; the bare-anchor selector is a fallback for
// markup changes.
var listingSelectors = []string{
	`li:has(a[href*="Detail"])`,
	`tr:has(a[href*="Detail"])`,
	`a[href*="Detail"]`,
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`\d{4}\.\d{2}\.\d{2}`),
	regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
	regexp.MustCompile(`(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2},?\s+\d{4}`),
}

// Harvester fetches listing pages and extracts candidate notices.
type Harvester struct {
	client    *http.Client
	userAgent string
}

// NewHarvester creates a harvester with a bounded request timeout.
func NewHarvester() *Harvester {
	return &Harvester{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: defaultUserAgent,
	}
}

// Harvest returns up to limit candidate notices from the source's
// listing page, best-effort. Network and markup trouble surfaces as an
// error; callers treat it as scoped to this source for this cycle.
func (h *Harvester) Harvest(ctx context.Context, src config.Source, limit int) ([]models.ScrapedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.ListingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build listing request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing %s: %w", src.ListingURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing %s returned status %d", src.ListingURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing %s: %w", src.ListingURL, err)
	}

	items := h.extract(doc, src, limit)
	log.Info().
		Str("source", src.Name).
		Int("items", len(items)).
		Msg("Harvested listing page")
	return items, nil
}

// extract walks the selector list and stops at the first selector that
// yields usable items, mirroring how the boards degrade their markup. A
// selector whose every match is rejected does not end the cascade.
func (h *Harvester) extract(doc *goquery.Document, src config.Source, limit int) []models.ScrapedItem {
	var items []models.ScrapedItem
	seen := make(map[string]bool)

	for _, selector := range listingSelectors {
		doc.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			item, ok := h.extractItem(el, src)
			if ok && !seen[item.URL] {
				seen[item.URL] = true
				items = append(items, item)
			}
			return len(items) < limit
		})
		if len(items) > 0 {
			break
		}
	}

	return items
}

func (h *Harvester) extractItem(el *goquery.Selection, src config.Source) (models.ScrapedItem, bool) {
	anchor := el
	if !el.Is("a") {
		anchor = el.Find("a").First()
	}
	if anchor.Length() == 0 {
		return models.ScrapedItem{}, false
	}

	href, ok := anchor.Attr("href")
	if !ok || href == "" {
		return models.ScrapedItem{}, false
	}

	title := strings.TrimSpace(anchor.Text())
	if len([]rune(title)) < minTitleLen {
		return models.ScrapedItem{}, false
	}

	rawDate := extractDate(el.Text())
	if rawDate == "" {
		rawDate = "Date not found"
	}

	return models.ScrapedItem{
		Title:    title,
		RawDate:  rawDate,
		URL:      absoluteURL(href, src),
		Source:   src.Name,
		Language: src.Language,
	}, true
}

// absoluteURL resolves the scraped href against the board's base URL.
func absoluteURL(href string, src config.Source) string {
	switch {
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "/"):
		return src.BaseURL + href
	default:
		return src.PathPrefix + href
	}
}

// extractDate pulls the first recognizable date substring out of the
// row text. The raw text is preserved; normalization happens at store
// time.
func extractDate(text string) string {
	for _, pattern := range datePatterns {
		if m := pattern.FindString(text); m != "" {
			return m
		}
	}
	return ""
}
