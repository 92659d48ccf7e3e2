package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFilename verifies the blob naming scheme
func TestFilename(t *testing.T) {
	ts := time.Date(2025, 8, 6, 12, 34, 0, 0, time.UTC)

	assert.Equal(t, "korean_korean_101_20250806_1234.txt", Filename("korean", "korean_101", ts))
	// Slugs are lowercased and space-safe even if a sources file uses a
	// display-style slug.
	assert.Equal(t, "global_lab_globallab_7_20250806_1234.txt", Filename("Global Lab", "globallab_7", ts))
}

// TestBlobStore_SaveReadExists verifies the directory-backed round trip
func TestBlobStore_SaveReadExists(t *testing.T) {
	store, err := NewBlobStore(t.TempDir())
	require.NoError(t, err)

	name := Filename("korean", "korean_101", time.Date(2025, 8, 6, 12, 0, 0, 0, time.UTC))
	assert.False(t, store.Exists(name))

	saved, err := store.Save(name, "report body")
	require.NoError(t, err)
	assert.Equal(t, name, saved)
	assert.True(t, store.Exists(name))

	data, err := store.Read(name)
	require.NoError(t, err)
	assert.Equal(t, "report body", string(data))
}

// TestBlobStore_ReadMissing verifies reading an absent blob errors
func TestBlobStore_ReadMissing(t *testing.T) {
	store, err := NewBlobStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Read("nope.txt")
	assert.Error(t, err)
}
