package infrastructure

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/vidgrab-go/internal/domain"
)

// suffixBytes is how many random bytes go into each staged name
const suffixBytes = 6

// partialSuffixes mark in-progress extractor artifacts that are never served
var partialSuffixes = []string{".part", ".ytdl", ".temp", ".info.json"}

// StagingStore owns the shared staging directory. It keeps no index of its own;
// every query goes to the filesystem.
type StagingStore struct {
	dir string
}

// NewStagingStore creates the staging directory if needed
func NewStagingStore(dir string) (*StagingStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("staging directory not configured")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve staging directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &StagingStore{dir: abs}, nil
}

// Dir returns the absolute staging directory
func (s *StagingStore) Dir() string {
	return s.dir
}

// Stage reserves a base path (no extension) of the form
// <prefix>_<YYYYmmdd_HHMMSS>_<12 hex chars>. Nothing is created on disk.
//
// Uniqueness rests on the timestamp plus 48 random bits; the filesystem is not
// consulted. Two requests in the same second collide only if their suffixes match.
func (s *StagingStore) Stage(prefix string) string {
	prefix = domain.SanitizeFilename(prefix)
	if prefix == "" {
		prefix = "download"
	}
	id := uuid.New()
	suffix := hex.EncodeToString(id[:suffixBytes])
	name := fmt.Sprintf("%s_%s_%s", prefix, time.Now().Format("20060102_150405"), suffix)
	return filepath.Join(s.dir, name)
}

// Contains reports whether path lives directly inside the staging directory
func (s *StagingStore) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return filepath.Dir(abs) == s.dir
}

// SizeOf returns the size of a staged file
func (s *StagingStore) SizeOf(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Delete removes a staged file. Deleting a missing file is not an error.
func (s *StagingStore) Delete(path string) error {
	if !s.Contains(path) {
		return fmt.Errorf("refusing to delete %s outside staging directory", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DeleteArtifacts removes every file whose name starts with the base name of
// base. It returns the number of files removed and ignores individual failures.
func (s *StagingStore) DeleteArtifacts(base string) int {
	entries, err := s.matching(base)
	if err != nil {
		return 0
	}
	removed := 0
	for _, e := range entries {
		if err := s.Delete(e.Path); err == nil {
			removed++
		}
	}
	return removed
}

// FindArtifact returns the finished media file written for base, ignoring
// partial downloads and metadata sidecars. The largest match wins.
func (s *StagingStore) FindArtifact(base string) (*domain.StagedFile, error) {
	entries, err := s.matching(base)
	if err != nil {
		return nil, err
	}
	var best *domain.StagedFile
	for i := range entries {
		e := entries[i]
		if isPartialArtifact(e.Path) {
			continue
		}
		if best == nil || e.SizeBytes > best.SizeBytes {
			best = &e
		}
	}
	if best == nil {
		return nil, os.ErrNotExist
	}
	return best, nil
}

// List returns every regular file in the staging directory, oldest first
func (s *StagingStore) List() ([]domain.StagedFile, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	files := make([]domain.StagedFile, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, domain.StagedFile{
			Path:      filepath.Join(s.dir, de.Name()),
			CreatedAt: info.ModTime(),
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})
	return files, nil
}

// Usage returns the total size of all staged files
func (s *StagingStore) Usage() (int64, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		total += f.SizeBytes
	}
	return total, nil
}

func (s *StagingStore) matching(base string) ([]domain.StagedFile, error) {
	prefix := filepath.Base(base)
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []domain.StagedFile
	for _, f := range files {
		if strings.HasPrefix(filepath.Base(f.Path), prefix) {
			out = append(out, f)
		}
	}
	return out, nil
}

func isPartialArtifact(path string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
