// Package reports stores the generated analysis bodies as flat files.
// The database keeps only the filename; replacing a report orphans the
// old blob rather than corrupting it.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// BlobStore is a directory-backed store for report bodies.
type BlobStore struct {
	dir string
}

// NewBlobStore creates the reports directory if needed.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}
	return &BlobStore{dir: dir}, nil
}

// Filename derives the blob name for a report. Timestamp-qualified so a
// regenerated report gets a fresh file; uniqueness under same-minute
// regeneration for the same key is best-effort.
func Filename(sourceSlug, patchID string, t time.Time) string {
	slug := strings.ReplaceAll(strings.ToLower(sourceSlug), " ", "_")
	return fmt.Sprintf("%s_%s_%s.txt", slug, patchID, t.UTC().Format("20060102_1504"))
}

// Save writes the report body and returns the name it was stored under.
func (b *BlobStore) Save(name, text string) (string, error) {
	path := filepath.Join(b.dir, name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to save report %s: %w", name, err)
	}

	log.Info().
		Str("filename", name).
		Int("bytes", len(text)).
		Msg("Saved report blob")
	return name, nil
}

// Exists reports whether a blob with the given name is present.
func (b *BlobStore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(b.dir, name))
	return err == nil
}

// Read returns the stored report body.
func (b *BlobStore) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", name, err)
	}
	return data, nil
}
