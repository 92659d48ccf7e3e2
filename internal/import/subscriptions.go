// Package importsubs bulk-loads subscription targets from a CSV file,
// for seeding a fresh deployment or migrating guilds between instances.
package importsubs

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"bdo-watch/patchwatch/internal/store"
)

// Importer handles the subscription import process
type Importer struct {
	subs store.SubscriptionStore
}

// NewImporter creates a new subscription importer
func NewImporter(subs store.SubscriptionStore) *Importer {
	return &Importer{subs: subs}
}

// ImportSubscriptions imports subscriptions from a CSV file with the
// columns guild_id, webhook_url, language. Bad rows are skipped and
// reported; good rows upsert by guild_id.
func (i *Importer) ImportSubscriptions(ctx context.Context, csvPath string) error {
	log.Info().Str("csv", csvPath).Msg("Starting subscription import")

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	if err := i.parseAndImport(ctx, f); err != nil {
		return fmt.Errorf("failed to import subscriptions: %w", err)
	}

	log.Info().Msg("Import completed successfully")
	return nil
}

func (i *Importer) parseAndImport(ctx context.Context, csvData io.Reader) error {
	reader := csv.NewReader(csvData)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return err
	}

	log.Debug().Strs("header", header).Msg("CSV header read")

	guildIdx := findColumnIndex(header, "guild_id")
	webhookIdx := findColumnIndex(header, "webhook_url")
	languageIdx := findColumnIndex(header, "language")

	if guildIdx < 0 || webhookIdx < 0 {
		return fmt.Errorf("required columns 'guild_id' and 'webhook_url' not found in CSV header")
	}

	lineCount := 1 // Header was already read
	successCount := 0
	var importErrors []string

	for {
		lineCount++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Int("line", lineCount).Msg("Error reading CSV line")
			importErrors = append(importErrors, fmt.Sprintf("line %d: %v", lineCount, err))
			continue
		}

		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}

		guildID, err := strconv.ParseInt(safeGetValue(record, guildIdx), 10, 64)
		if err != nil {
			log.Warn().Int("line", lineCount).Msg("Skipping row with invalid guild_id")
			importErrors = append(importErrors, fmt.Sprintf("line %d: invalid guild_id", lineCount))
			continue
		}

		webhookURL := safeGetValue(record, webhookIdx)
		if webhookURL == "" {
			log.Warn().Int("line", lineCount).Msg("Skipping row with empty webhook_url")
			importErrors = append(importErrors, fmt.Sprintf("line %d: empty webhook_url", lineCount))
			continue
		}

		if err := i.subs.SetWebhook(ctx, guildID, webhookURL); err != nil {
			log.Error().Err(err).Int("line", lineCount).Int64("guild_id", guildID).Msg("Failed to store subscription")
			importErrors = append(importErrors, fmt.Sprintf("line %d: %v", lineCount, err))
			continue
		}

		if language := safeGetValue(record, languageIdx); language != "" {
			if err := i.subs.SetLanguage(ctx, guildID, language); err != nil {
				log.Error().Err(err).Int("line", lineCount).Int64("guild_id", guildID).Msg("Failed to set language")
				importErrors = append(importErrors, fmt.Sprintf("line %d: %v", lineCount, err))
				continue
			}
		}

		successCount++
	}

	log.Info().
		Int("total", lineCount-1).
		Int("success", successCount).
		Int("errors", len(importErrors)).
		Msg("Import summary")

	fmt.Printf("Imported %d subscriptions successfully\n", successCount)
	if len(importErrors) > 0 {
		fmt.Printf("Encountered %d errors:\n", len(importErrors))
		for _, err := range importErrors {
			fmt.Printf("  - %s\n", err)
		}
	}

	return nil
}

func findColumnIndex(header []string, columnName string) int {
	for i, col := range header {
		if strings.EqualFold(col, columnName) {
			return i
		}
	}
	return -1
}

// safeGetValue returns the trimmed value at index, or "" when the index
// is out of bounds.
func safeGetValue(record []string, index int) string {
	if index >= 0 && index < len(record) {
		return strings.TrimSpace(record[index])
	}
	return ""
}
