package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bdo-watch/patchwatch/internal/database"
	"bdo-watch/patchwatch/internal/models"
)

// ReportSyncRepository defines the incremental-sync read used by the
// updates endpoint: reports in generation order, resumable by cursor.
type ReportSyncRepository interface {
	FetchReports(ctx context.Context, limit int, since *time.Time, cursorTimestamp *time.Time, cursorID *int64) ([]models.Report, error)
}

// sqlxRepository implements ReportSyncRepository using sqlx.
type sqlxRepository struct {
	db *database.DB
}

// NewRepository creates a new repository instance.
func NewRepository(db *database.DB) ReportSyncRepository {
	return &sqlxRepository{db: db}
}

// FetchReports retrieves reports generated strictly after a point in
// time or after the cursor position.
func (r *sqlxRepository) FetchReports(ctx context.Context, limit int, since *time.Time, cursorTimestamp *time.Time, cursorID *int64) ([]models.Report, error) {
	var items []models.Report
	var query string
	var args []any

	// Ordering must be stable for cursor pagination to work.
	const baseQuery = `SELECT id, source, patch_id, title, raw_date, parsed_date, url, report_filename, payload, generated_at, notified FROM reports `
	const orderBy = ` ORDER BY generated_at ASC, id ASC LIMIT ?`

	if cursorTimestamp != nil && cursorID != nil {
		query = baseQuery + `WHERE (generated_at > ?) OR (generated_at = ? AND id > ?)` + orderBy
		args = append(args, cursorTimestamp.UTC(), cursorTimestamp.UTC(), *cursorID, limit)
	} else if since != nil {
		query = baseQuery + `WHERE generated_at > ?` + orderBy
		args = append(args, since.UTC(), limit)
	} else {
		return nil, fmt.Errorf("either 'since' or cursor parameters must be provided")
	}

	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Report{}, nil
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	return items, nil
}
