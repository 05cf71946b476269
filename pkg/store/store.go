// Package store persists exported transcripts to the local filesystem.
// Writes are guarded by file locks so concurrent exports of the same job
// (two CLI invocations, or a CLI next to an embedding app) cannot
// interleave.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"

	"github.com/BernardUriza/aurity-sub000/pkg/scribe"
)

// ExportStore writes export blobs under a root directory, one file per
// job and format.
type ExportStore struct {
	root string
}

// NewExportStore creates a store rooted at dir, creating it if needed.
func NewExportStore(dir string) (*ExportStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("export directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory %s: %w", dir, err)
	}
	return &ExportStore{root: dir}, nil
}

// Write persists an export blob and returns the written path. The write
// goes through a temp file and rename so readers never observe a partial
// export.
func (s *ExportStore) Write(jobID string, format scribe.ExportFormat, data []byte) (string, error) {
	path := s.path(jobID, format)

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("acquire export lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(s.root, ".export-*")
	if err != nil {
		return "", fmt.Errorf("create temp export file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write export payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp export file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("finalize export file: %w", err)
	}

	log.Debug().
		Str("component", "store").
		Str("job_id", jobID).
		Str("path", path).
		Int("bytes", len(data)).
		Msg("export written")
	return path, nil
}

// Read returns a previously written export blob.
func (s *ExportStore) Read(jobID string, format scribe.ExportFormat) ([]byte, error) {
	path := s.path(jobID, format)

	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("acquire export read lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}
	return data, nil
}

// Prune removes exports older than maxAge. Zero maxAge removes nothing.
func (s *ExportStore) Prune(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("read export directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) == ".lock" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *ExportStore) path(jobID string, format scribe.ExportFormat) string {
	ext := "json"
	if format == scribe.ExportMarkdown {
		ext = "md"
	}
	return filepath.Join(s.root, fmt.Sprintf("%s.%s", jobID, ext))
}
