package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

// LoadDirectory walks root, keeps .pdf files, skips hidden entries if requested, and loads
// each file once per content hash. Unreadable files are reported in the results, not returned
// as an error; the error is reserved for an unusable root or a canceled context.
func LoadDirectory(ctx context.Context, root string, skipHidden bool, seen *Seen, logger *slog.Logger) ([]entity.Document, []FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}
	if seen == nil {
		seen = NewSeen()
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		docs    []entity.Document
		results []FileResult
		stats   DirStats
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		// skip hidden dirs/files if requested
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		doc, err := LoadFile(path)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		hash := doc.ContentHashHex()
		if first, dup := seen.Mark(hash, path); dup {
			logger.Info("ingest.dedupe", "path", path, "same_as", first)
			results = append(results, FileResult{Path: path, HashHex: hash, Deduplicated: true})
			stats.Deduplicated++
			return nil
		}

		docs = append(docs, doc)
		results = append(results, FileResult{Path: path, HashHex: hash})
		stats.Loaded++
		return nil
	})
	if err != nil {
		return docs, results, stats, fmt.Errorf("walk: %w", err)
	}

	logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"loaded", stats.Loaded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return docs, results, stats, nil
}
