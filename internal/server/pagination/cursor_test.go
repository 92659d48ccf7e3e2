package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCursorRoundTrip verifies encode/decode preserves timestamp and ID
func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2025, 8, 6, 12, 30, 45, 123456789, time.UTC)

	cursor := EncodeCursor(ts, 42)
	gotTS, gotID, err := DecodeCursor(cursor)

	require.NoError(t, err)
	assert.True(t, ts.Equal(gotTS))
	assert.Equal(t, int64(42), gotID)
}

// TestDecodeCursor_Invalid verifies malformed cursors are rejected
func TestDecodeCursor_Invalid(t *testing.T) {
	cases := []string{
		"not-base64!!",
		"aGVsbG8=",                     // decodes but has no separator
		"MjAyNS0wOC0wNlQxMjowMDowMFo=", // timestamp only
	}

	for _, cursor := range cases {
		_, _, err := DecodeCursor(cursor)
		assert.Error(t, err, "cursor %q", cursor)
	}
}
