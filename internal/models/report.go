package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// NullString is sql.NullString with a flat JSON encoding: the string
// value when set, JSON null otherwise. API consumers see a plain
// nullable string instead of the sql struct shape.
type NullString struct {
	sql.NullString
}

// NewNullString returns a valid NullString holding s.
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: true}}
}

func (ns NullString) MarshalJSON() ([]byte, error) {
	if !ns.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ns.String)
}

func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*ns = NullString{}
		return nil
	}
	*ns = NewNullString(*s)
	return nil
}

// Report represents a row in the 'reports' table: one generated analysis
// per (source, patch_id). ParsedDate is NULL when the scraped date text
// could not be normalized; such reports sort below every dated one.
type Report struct {
	ID             int64      `db:"id" json:"id"`
	Source         string     `db:"source" json:"source"`
	PatchID        string     `db:"patch_id" json:"patch_id"`
	Title          string     `db:"title" json:"title"`
	RawDate        string     `db:"raw_date" json:"raw_date"`
	ParsedDate     NullString `db:"parsed_date" json:"parsed_date"`
	URL            string     `db:"url" json:"url"`
	ReportFilename string     `db:"report_filename" json:"report_filename"`
	Payload        []byte     `db:"payload" json:"-"`
	GeneratedAt    time.Time  `db:"generated_at" json:"generated_at"`
	Notified       bool       `db:"notified" json:"notified"`
}

// Item decodes the preserved originating scrape payload.
func (r *Report) Item() (ScrapedItem, error) {
	var item ScrapedItem
	err := json.Unmarshal(r.Payload, &item)
	return item, err
}
