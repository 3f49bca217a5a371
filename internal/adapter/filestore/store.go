// Package filestore writes the published JSON documents to the output
// directory of the static site.
package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
)

// StationFileName is the curated hypoxia station list, merged in place.
const StationFileName = "latest.json"

// Store reads and writes documents under a single directory. Files are
// overwritten directly; a reader may briefly observe a partial file.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a store rooted at dir.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save encodes v as compact JSON, writes it to name and returns the bytes written.
func (s *Store) Save(name string, v any) ([]byte, error) {
	data, err := domain.MarshalCompact(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.SaveRaw(name, data); err != nil {
		return nil, err
	}
	return data, nil
}

// SaveRaw writes body to name unchanged.
func (s *Store) SaveRaw(name string, body []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	s.logger.Info("saved file", "file", name, "size_kb", sizeKB(int64(len(body))))
	return nil
}

// LoadStations reads the curated station file.
func (s *Store) LoadStations() (*domain.StationFile, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, StationFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNoStationFile
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", StationFileName, err)
	}
	var f domain.StationFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", StationFileName, err)
	}
	return &f, nil
}

// SaveStations rewrites the curated station file indented by two spaces.
func (s *Store) SaveStations(f *domain.StationFile) ([]byte, error) {
	compact, err := domain.MarshalCompact(f)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", StationFileName, err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent %s: %w", StationFileName, err)
	}
	if err := s.SaveRaw(StationFileName, buf.Bytes()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Summary counts the JSON files in the output directory and their total size.
type Summary struct {
	Files      int
	TotalBytes int64
}

// KB returns the total size in kilobytes.
func (s Summary) KB() int64 {
	return sizeKB(s.TotalBytes)
}

// Summarize scans the output directory.
func (s *Store) Summarize() (Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return Summary{}, fmt.Errorf("read output dir: %w", err)
	}
	var sum Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		sum.Files++
		sum.TotalBytes += info.Size()
	}
	return sum, nil
}

func sizeKB(n int64) int64 {
	return (n + 512) / 1024
}
