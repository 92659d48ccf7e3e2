package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDB verifies a fresh database opens, migrates and serves queries
func TestNewDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDB(NewConfig(path))
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM reports"))
	assert.Equal(t, 0, count)
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM subscriptions"))
	assert.Equal(t, 0, count)
}

// TestDeleteDB verifies the reset path removes the database file and
// tolerates a file that is already gone
func TestDeleteDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDB(NewConfig(path))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = os.Stat(path)
	require.NoError(t, err, "database file should exist before reset")

	require.NoError(t, DeleteDB(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "database file should be gone")

	assert.NoError(t, DeleteDB(path), "deleting a missing database is a no-op")
}
