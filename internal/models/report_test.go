package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReportJSON_ParsedDateWireShape verifies the nullable parsed date
// serializes as a plain string or null, never as the sql struct shape
func TestReportJSON_ParsedDateWireShape(t *testing.T) {
	report := Report{
		ID:          1,
		Source:      "Korean Notice",
		PatchID:     "korean_101",
		ParsedDate:  NewNullString("2025-08-06"),
		GeneratedAt: time.Date(2025, 8, 6, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"parsed_date":"2025-08-06"`)

	report.ParsedDate = NullString{}
	data, err = json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"parsed_date":null`)
}

// TestReportJSON_DecodableAsPointer verifies API consumers can decode
// the parsed date into a plain *string field, the shape the example
// client declares
func TestReportJSON_DecodableAsPointer(t *testing.T) {
	type clientReport struct {
		PatchID    string  `json:"patch_id"`
		ParsedDate *string `json:"parsed_date"`
	}

	dated, err := json.Marshal(Report{PatchID: "korean_1", ParsedDate: NewNullString("2025-08-06")})
	require.NoError(t, err)
	undated, err := json.Marshal(Report{PatchID: "korean_2"})
	require.NoError(t, err)

	var got clientReport
	require.NoError(t, json.Unmarshal(dated, &got))
	require.NotNil(t, got.ParsedDate)
	assert.Equal(t, "2025-08-06", *got.ParsedDate)

	require.NoError(t, json.Unmarshal(undated, &got))
	assert.Nil(t, got.ParsedDate)
}

// TestNullStringJSON_RoundTrip verifies both directions of the flat
// encoding
func TestNullStringJSON_RoundTrip(t *testing.T) {
	var ns NullString
	require.NoError(t, json.Unmarshal([]byte(`"2025-08-06"`), &ns))
	assert.True(t, ns.Valid)
	assert.Equal(t, "2025-08-06", ns.String)

	require.NoError(t, json.Unmarshal([]byte(`null`), &ns))
	assert.False(t, ns.Valid)
}
