// Package store is the single authoritative log of generated reports.
// Every new-vs-seen decision and every ordering question goes through
// it; the ingestion and notification loops share nothing else.
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

// Reports lacking a parseable patch date sort as if dated here, so they
// fall to the bottom of every listing instead of disappearing.
const minParsedDate = "1900-01-01"

// Ordering is by the patch's own effective date, not ingestion time;
// ties broken by ingestion recency, then insertion order.
const reportOrder = `
	CASE WHEN parsed_date IS NOT NULL THEN parsed_date ELSE '` + minParsedDate + `' END DESC,
	generated_at DESC,
	id DESC`

const reportColumns = `id, source, patch_id, title, raw_date, parsed_date, url, report_filename, payload, generated_at, notified`

// ReportStore defines the operations the two cycles need against the
// report log.
type ReportStore interface {
	Exists(ctx context.Context, source, patchID string) (bool, error)
	Upsert(ctx context.Context, report *models.Report) error
	Latest(ctx context.Context, source string) (*models.Report, error)
	ByOffset(ctx context.Context, source string, index int) (*models.Report, error)
	Count(ctx context.Context, source string) (int, error)
	ListOrdered(ctx context.Context, source string, limit int) ([]models.Report, error)
	PendingNotification(ctx context.Context) ([]models.Report, error)
	MarkNotified(ctx context.Context, source, patchID string) error
}

// sqlxReportStore implements ReportStore using sqlx over SQLite.
type sqlxReportStore struct {
	db  *database.DB
	now func() time.Time
}

// NewReportStore creates a new report store instance.
func NewReportStore(db *database.DB) ReportStore {
	return &sqlxReportStore{db: db, now: time.Now}
}

// Exists reports whether a report for (source, patchID) has already been
// generated. Backed by the UNIQUE(source, patch_id) index, so the
// ingestion loop can call it per candidate without cost concerns.
func (s *sqlxReportStore) Exists(ctx context.Context, source, patchID string) (bool, error) {
	var id int64
	err := s.db.GetContext(ctx, &id,
		`SELECT id FROM reports WHERE source = ? AND patch_id = ?`, source, patchID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("report existence check failed: %w", err)
	}
	return true, nil
}

// Upsert inserts the report or replaces the existing row for the same
// (source, patch_id). A replace refreshes generated_at and resets
// notified, so a regenerated report is announced again.
func (s *sqlxReportStore) Upsert(ctx context.Context, report *models.Report) error {
	report.GeneratedAt = s.now().UTC()
	report.Notified = false

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (source, patch_id, title, raw_date, parsed_date, url, report_filename, payload, generated_at, notified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(source, patch_id) DO UPDATE SET
			title = excluded.title,
			raw_date = excluded.raw_date,
			parsed_date = excluded.parsed_date,
			url = excluded.url,
			report_filename = excluded.report_filename,
			payload = excluded.payload,
			generated_at = excluded.generated_at,
			notified = 0`,
		report.Source, report.PatchID, report.Title, report.RawDate,
		report.ParsedDate, report.URL, report.ReportFilename,
		report.Payload, report.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert report %s/%s: %w", report.Source, report.PatchID, err)
	}
	return nil
}

// Latest returns the report ranked first by patch date for the source,
// or nil when the source has no reports.
func (s *sqlxReportStore) Latest(ctx context.Context, source string) (*models.Report, error) {
	return s.ByOffset(ctx, source, 1)
}

// ByOffset returns the report at 1-based rank index under the same
// ordering as Latest; index 1 is the latest. Returns nil past the end.
func (s *sqlxReportStore) ByOffset(ctx context.Context, source string, index int) (*models.Report, error) {
	if index < 1 {
		return nil, fmt.Errorf("report offset must be >= 1, got %d", index)
	}

	var report models.Report
	err := s.db.GetContext(ctx, &report,
		`SELECT `+reportColumns+` FROM reports WHERE source = ? ORDER BY `+reportOrder+` LIMIT 1 OFFSET ?`,
		source, index-1)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report at offset %d: %w", index, err)
	}
	return &report, nil
}

// Count returns the number of reports stored for the source.
func (s *sqlxReportStore) Count(ctx context.Context, source string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM reports WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

// ListOrdered returns up to limit reports for the source, most recent
// patch date first.
func (s *sqlxReportStore) ListOrdered(ctx context.Context, source string, limit int) ([]models.Report, error) {
	reports := []models.Report{}
	err := s.db.SelectContext(ctx, &reports,
		`SELECT `+reportColumns+` FROM reports WHERE source = ? ORDER BY `+reportOrder+` LIMIT ?`,
		source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// PendingNotification returns all reports not yet delivered, oldest
// generated first so announcements preserve causal order.
func (s *sqlxReportStore) PendingNotification(ctx context.Context) ([]models.Report, error) {
	reports := []models.Report{}
	err := s.db.SelectContext(ctx, &reports,
		`SELECT `+reportColumns+` FROM reports WHERE notified = 0 ORDER BY generated_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending reports: %w", err)
	}
	return reports, nil
}

// MarkNotified flips the notified flag. Marking a report that is already
// notified, or does not exist, is a no-op success.
func (s *sqlxReportStore) MarkNotified(ctx context.Context, source, patchID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE reports SET notified = 1 WHERE source = ? AND patch_id = ?`, source, patchID)
	if err != nil {
		return fmt.Errorf("failed to mark report %s/%s notified: %w", source, patchID, err)
	}
	return nil
}
