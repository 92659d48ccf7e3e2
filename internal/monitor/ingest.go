// Package monitor contains the two independently scheduled loops: the
// ingestion cycle that turns new notices into stored reports, and the
// notification cycle that delivers stored reports to subscribers. The
// loops communicate only through the report store.
package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"bdo-watch/patchwatch/internal/analyze"
	"bdo-watch/patchwatch/internal/config"
	"bdo-watch/patchwatch/internal/dates"
	"bdo-watch/patchwatch/internal/identity"
	"bdo-watch/patchwatch/internal/models"
	"bdo-watch/patchwatch/internal/reports"
	"bdo-watch/patchwatch/internal/store"
)

// Harvester yields candidate notices from a board listing page.
type Harvester interface {
	Harvest(ctx context.Context, src config.Source, limit int) ([]models.ScrapedItem, error)
}

// BlobStore persists and serves report bodies.
type BlobStore interface {
	Save(name, text string) (string, error)
	Read(name string) ([]byte, error)
}

// Ingestor runs the harvest -> dedup -> analyze -> persist pipeline.
type Ingestor struct {
	sources   []config.Source
	harvester Harvester
	analyzer  analyze.Analyzer
	blobs     BlobStore
	reports   store.ReportStore
	limit     int
	model     string
	now       func() time.Time
}

// NewIngestor wires the ingestion cycle. All collaborators are injected;
// the ingestor owns no state beyond them.
func NewIngestor(sources []config.Source, harvester Harvester, analyzer analyze.Analyzer,
	blobs BlobStore, reportStore store.ReportStore, limit int, model string) *Ingestor {
	return &Ingestor{
		sources:   sources,
		harvester: harvester,
		analyzer:  analyzer,
		blobs:     blobs,
		reports:   reportStore,
		limit:     limit,
		model:     model,
		now:       time.Now,
	}
}

// RunCycle processes every source once. A harvesting failure skips only
// that source; per-item failures skip only that item. An item is never
// marked seen unless its report was durably stored, so everything that
// fails here is retried on the next cycle.
func (in *Ingestor) RunCycle(ctx context.Context) {
	for _, src := range in.sources {
		if ctx.Err() != nil {
			log.Info().Err(ctx.Err()).Msg("Ingestion cycle cancelled")
			return
		}
		in.processSource(ctx, src)
	}
}

func (in *Ingestor) processSource(ctx context.Context, src config.Source) {
	items, err := in.harvester.Harvest(ctx, src, in.limit)
	if err != nil {
		log.Error().Err(err).Str("source", src.Name).Msg("Harvesting failed, skipping source this cycle")
		return
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		in.processItem(ctx, src, item)
	}
}

func (in *Ingestor) processItem(ctx context.Context, src config.Source, item models.ScrapedItem) {
	item.PatchID = identity.Assign(item.URL, src.Slug)

	exists, err := in.reports.Exists(ctx, src.Name, item.PatchID)
	if err != nil {
		log.Error().Err(err).Str("patch_id", item.PatchID).Msg("Existence check failed, skipping item")
		return
	}
	if exists {
		log.Debug().Str("source", src.Name).Str("patch_id", item.PatchID).Msg("Report already generated, skipping")
		return
	}

	log.Info().
		Str("source", src.Name).
		Str("patch_id", item.PatchID).
		Str("title", truncate(item.Title, 50)).
		Msg("Generating new analysis report")

	analysis, err := in.analyzer.Analyze(ctx, item)
	if err != nil {
		log.Warn().Err(err).Str("patch_id", item.PatchID).Msg("Analysis failed, item stays eligible for retry")
		return
	}

	generatedAt := in.now().UTC()
	filename := reports.Filename(src.Slug, item.PatchID, generatedAt)
	body := analyze.FormatReport(item, analysis, in.model, generatedAt)
	if _, err := in.blobs.Save(filename, body); err != nil {
		log.Error().Err(err).Str("patch_id", item.PatchID).Msg("Failed to save report blob, item stays eligible for retry")
		return
	}

	payload, err := item.MarshalPayload()
	if err != nil {
		log.Error().Err(err).Str("patch_id", item.PatchID).Msg("Failed to marshal item payload")
		return
	}

	report := &models.Report{
		Source:         src.Name,
		PatchID:        item.PatchID,
		Title:          item.Title,
		RawDate:        item.RawDate,
		URL:            item.URL,
		ReportFilename: filename,
		Payload:        payload,
	}
	if parsed, ok := dates.Normalize(item.RawDate); ok {
		report.ParsedDate = models.NewNullString(parsed)
	}

	if err := in.reports.Upsert(ctx, report); err != nil {
		// Not stored means not deduped: the item will be re-analyzed
		// next cycle rather than silently dropped.
		log.Error().Err(err).Str("patch_id", item.PatchID).Msg("Failed to store report, item stays eligible for retry")
		return
	}

	log.Info().
		Str("source", src.Name).
		Str("patch_id", item.PatchID).
		Str("filename", filename).
		Msg("Stored new analysis report")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
