package models

import "encoding/json"

// ScrapedItem is a candidate notice pulled off a listing page. It is
// ephemeral: the ingestion cycle either discards it as already seen or
// turns it into a Report, preserving the item as the report payload for
// replay and debugging.
type ScrapedItem struct {
	PatchID  string `json:"id"`
	Title    string `json:"title"`
	RawDate  string `json:"date"`
	URL      string `json:"link"`
	Source   string `json:"source"`
	Language string `json:"language"`
}

// MarshalPayload renders the item as the JSON blob stored alongside its
// report.
func (s ScrapedItem) MarshalPayload() ([]byte, error) {
	return json.Marshal(s)
}
