package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

// FileResult is the per-file outcome of directory discovery.
type FileResult struct {
	Path         string
	Deduplicated bool
	HashHex      string
	Err          string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Loaded       uint32
	Deduplicated uint32
	Failed       uint32
}

// Seen remembers content hashes so the same résumé is processed once per run.
// Safe for concurrent use.
type Seen struct {
	mu     sync.Mutex
	hashes map[string]string // hash -> first path
}

func NewSeen() *Seen {
	return &Seen{hashes: make(map[string]string)}
}

// Mark records hash and reports the path it was first seen at, if any.
func (s *Seen) Mark(hash, path string) (firstPath string, dup bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.hashes[hash]; ok {
		return p, true
	}
	s.hashes[hash] = path
	return path, false
}

// LoadFile reads a PDF from disk into a Document named after the file.
func LoadFile(path string) (entity.Document, error) {
	if !AllowedExt(filepath.Ext(path)) {
		return entity.Document{}, fmt.Errorf("unsupported or missing extension: %q", filepath.Ext(path))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return entity.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return entity.NewDocument(filepath.Base(path), constants.MediaTypePDF, b), nil
}
