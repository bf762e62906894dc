// Package store manages the on-disk artifact areas: raw and processed CSV
// snapshots, model files, and the sqlite run manifest that links artifacts
// across stages.
//
// Artifact filenames embed a timestamp and are never overwritten. Without a
// manifest entry, "latest" falls back to the most recently modified matching
// file in a directory. Two writers in the same second can still collide on a
// filename; the pipeline is meant for sequential scheduled runs.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/delay.report/internal/fsutil"
	"github.com/banshee-data/delay.report/internal/table"
	"github.com/banshee-data/delay.report/internal/timeutil"
)

// TimestampLayout is embedded in every artifact filename.
const TimestampLayout = "20060102_150405"

// ErrNoArtifacts is returned when a directory holds no matching artifact.
var ErrNoArtifacts = errors.New("no matching artifacts found")

// Store writes and resolves timestamped artifacts on a FileSystem.
type Store struct {
	fs    fsutil.FileSystem
	clock timeutil.Clock
}

// New creates a Store over the given filesystem and clock.
func New(fs fsutil.FileSystem, clock timeutil.Clock) *Store {
	return &Store{fs: fs, clock: clock}
}

// NewOS creates a Store over the real filesystem and clock.
func NewOS() *Store {
	return New(fsutil.OSFileSystem{}, timeutil.RealClock{})
}

// TimestampedPath builds "<dir>/<prefix>_<YYYYMMDD_HHMMSS><ext>".
func (s *Store) TimestampedPath(dir, prefix, ext string) string {
	name := fmt.Sprintf("%s_%s%s", prefix, s.clock.Now().Format(TimestampLayout), ext)
	return filepath.Join(dir, name)
}

// SaveBytes writes data to a fresh timestamped file, creating the directory
// on first use. The existing-file check keeps a second run in the same
// second from clobbering the first.
func (s *Store) SaveBytes(dir, prefix, ext string, data []byte) (string, error) {
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create artifact dir %s: %w", dir, err)
	}

	path := s.TimestampedPath(dir, prefix, ext)
	if s.fs.Exists(path) {
		return "", fmt.Errorf("artifact %s already exists", path)
	}

	if err := s.fs.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	return path, nil
}

// SaveTable writes a table as a fresh timestamped CSV and returns its path.
func (s *Store) SaveTable(dir, prefix string, t *table.Table) (string, error) {
	data, err := t.ToCSVBytes()
	if err != nil {
		return "", fmt.Errorf("encode %s table: %w", prefix, err)
	}
	return s.SaveBytes(dir, prefix, ".csv", data)
}

// LoadTable reads a CSV artifact into a table.
func (s *Store) LoadTable(path string) (*table.Table, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	t, err := table.FromCSVBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return t, nil
}

// ReadBytes reads a raw artifact.
func (s *Store) ReadBytes(path string) ([]byte, error) {
	return s.fs.ReadFile(path)
}

// LatestFile returns the path of the most recently modified file in dir
// whose name contains keyword and ends with one of exts (all extensions
// when exts is empty). Returns ErrNoArtifacts when nothing matches, which
// includes the directory not existing yet.
func (s *Store) LatestFile(dir, keyword string, exts ...string) (string, error) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: no %s files in %s", ErrNoArtifacts, keyword, dir)
		}
		return "", fmt.Errorf("scan %s: %w", dir, err)
	}

	var best string
	var bestMod int64
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), keyword) {
			continue
		}
		if len(exts) > 0 && !hasAnySuffix(e.Name(), exts) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); best == "" || mod > bestMod {
			best = filepath.Join(dir, e.Name())
			bestMod = mod
		}
	}

	if best == "" {
		return "", fmt.Errorf("%w: no %s files in %s", ErrNoArtifacts, keyword, dir)
	}
	return best, nil
}

// LoadLatestTable loads the most recent CSV artifact matching keyword.
func (s *Store) LoadLatestTable(dir, keyword string) (*table.Table, string, error) {
	path, err := s.LatestFile(dir, keyword, ".csv")
	if err != nil {
		return nil, "", err
	}
	t, err := s.LoadTable(path)
	if err != nil {
		return nil, "", err
	}
	return t, path, nil
}

func hasAnySuffix(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
