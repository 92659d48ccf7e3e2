package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"bdo-watch/patchwatch/internal/models"
	"bdo-watch/patchwatch/internal/server/pagination"
	"bdo-watch/patchwatch/internal/server/storage"
	"bdo-watch/patchwatch/internal/store"
)

const defaultLimit = 50
const maxLimit = 500
const iso8601Format = time.RFC3339

// SyncResponse is the payload of the incremental updates endpoint.
type SyncResponse struct {
	Items      []models.Report `json:"items"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

// ListResponse is the payload of the ordered listing endpoint.
type ListResponse struct {
	Source  string          `json:"source"`
	Count   int             `json:"count"`
	Reports []models.Report `json:"reports"`
}

// ReportsHandler holds dependencies for the reports API.
type ReportsHandler struct {
	reports  store.ReportStore
	syncRepo storage.ReportSyncRepository
}

// NewReportsHandler creates a new handler instance.
func NewReportsHandler(reports store.ReportStore, syncRepo storage.ReportSyncRepository) *ReportsHandler {
	return &ReportsHandler{
		reports:  reports,
		syncRepo: syncRepo,
	}
}

// ListReports serves the ordered report log for one source, most recent
// patch date first — the same ordering users see in announcements.
func (h *ReportsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	source := r.URL.Query().Get("source")
	if source == "" {
		http.Error(w, "Missing required parameter: 'source'", http.StatusBadRequest)
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	reports, err := h.reports.ListOrdered(r.Context(), source, limit)
	if err != nil {
		log.Error().Err(err).Str("source", source).Msg("Error listing reports")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	count, err := h.reports.Count(r.Context(), source)
	if err != nil {
		log.Error().Err(err).Str("source", source).Msg("Error counting reports")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, ListResponse{Source: source, Count: count, Reports: reports})
}

// LatestReport serves the top-ranked report for a source; an optional
// 'offset' parameter (1-based, 1 = latest) walks back in rank order.
func (h *ReportsHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	source := r.URL.Query().Get("source")
	if source == "" {
		http.Error(w, "Missing required parameter: 'source'", http.StatusBadRequest)
		return
	}

	index := 1
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid 'offset' parameter: must be a positive integer", http.StatusBadRequest)
			return
		}
		index = parsed
	}

	report, err := h.reports.ByOffset(r.Context(), source, index)
	if err != nil {
		log.Error().Err(err).Str("source", source).Int("offset", index).Msg("Error fetching report")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "No report at that offset", http.StatusNotFound)
		return
	}

	writeJSON(w, r, report)
}

// SyncReports serves reports in generation order for incremental
// consumers, resumable via an opaque cursor.
func (h *ReportsHandler) SyncReports(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	sinceStr := query.Get("since")
	cursorStr := query.Get("cursor")

	var since *time.Time
	var cursorTimestamp *time.Time
	var cursorID *int64

	if cursorStr != "" {
		ts, id, err := pagination.DecodeCursor(cursorStr)
		if err != nil {
			log.Warn().Err(err).Str("cursor", cursorStr).Msg("Invalid 'cursor' parameter")
			http.Error(w, "Invalid 'cursor' parameter", http.StatusBadRequest)
			return
		}
		cursorTimestamp = &ts
		cursorID = &id
	} else if sinceStr != "" {
		parsedSince, err := time.Parse(iso8601Format, sinceStr)
		if err != nil {
			log.Warn().Err(err).Str("since", sinceStr).Msg("Invalid 'since' parameter format")
			http.Error(w, "Invalid 'since' parameter: use RFC3339 format (e.g., 2025-03-28T15:00:00Z)", http.StatusBadRequest)
			return
		}
		utcSince := parsedSince.UTC()
		since = &utcSince
	} else {
		http.Error(w, "Missing required parameter: 'since' or 'cursor'", http.StatusBadRequest)
		return
	}

	items, err := h.syncRepo.FetchReports(r.Context(), limit+1, since, cursorTimestamp, cursorID) // Fetch one extra
	if err != nil {
		log.Error().Err(err).Str("cursor", cursorStr).Msg("Error fetching reports from repository")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var nextCursorStr *string
	hasNextPage := len(items) > limit
	actualItems := items
	if hasNextPage {
		actualItems = items[:limit]
		if len(actualItems) > 0 {
			lastItem := actualItems[len(actualItems)-1]
			cursor := pagination.EncodeCursor(lastItem.GeneratedAt.UTC(), lastItem.ID)
			nextCursorStr = &cursor
		}
	}

	writeJSON(w, r, SyncResponse{Items: actualItems, NextCursor: nextCursorStr})
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return defaultLimit, true
	}

	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed <= 0 || parsed > maxLimit {
		http.Error(w, fmt.Sprintf("Invalid 'limit' parameter: must be between 1 and %d", maxLimit), http.StatusBadRequest)
		return 0, false
	}
	return parsed, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, payload any) {
	log := hlog.FromRequest(r)

	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(jsonBytes); err != nil {
		log.Error().Err(err).Msg("Error writing JSON response body to client")
	}
}
