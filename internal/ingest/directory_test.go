package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "%PDF-a")
	writeFile(t, filepath.Join(root, "nested", "b.PDF"), "%PDF-b")
	writeFile(t, filepath.Join(root, "nested", "copy-of-a.pdf"), "%PDF-a")
	writeFile(t, filepath.Join(root, "notes.txt"), "hello")
	writeFile(t, filepath.Join(root, ".hidden.pdf"), "%PDF-h")
	writeFile(t, filepath.Join(root, ".cache", "c.pdf"), "%PDF-c")

	docs, results, stats, err := LoadDirectory(context.Background(), root, true, nil, quietLogger())
	require.NoError(t, err)

	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Filename)
		assert.Equal(t, constants.MediaTypePDF, d.MediaType)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.pdf", "b.PDF"}, names)

	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Loaded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(0), stats.Failed)

	dups := 0
	for _, r := range results {
		if r.Deduplicated {
			dups++
			assert.Equal(t, filepath.Join(root, "nested", "copy-of-a.pdf"), r.Path)
		}
	}
	assert.Equal(t, 1, dups)
}

func TestLoadDirectory_IncludesHiddenWhenAsked(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden.pdf"), "%PDF-h")

	docs, _, _, err := LoadDirectory(context.Background(), root, false, nil, quietLogger())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestLoadDirectory_SharedSeenAcrossRuns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "%PDF-a")
	seen := NewSeen()

	docs, _, _, err := LoadDirectory(context.Background(), root, true, seen, quietLogger())
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, _, stats, err := LoadDirectory(context.Background(), root, true, seen, quietLogger())
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, uint32(1), stats.Deduplicated)
}

func TestLoadDirectory_Errors(t *testing.T) {
	_, _, _, err := LoadDirectory(context.Background(), "  ", true, nil, quietLogger())
	assert.Error(t, err)

	_, _, _, err = LoadDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"), true, nil, quietLogger())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err = LoadDirectory(ctx, t.TempDir(), true, nil, quietLogger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cv.pdf"), "%PDF-1.4")
	doc, err := LoadFile(filepath.Join(dir, "cv.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", doc.Filename)
	assert.Equal(t, []byte("%PDF-1.4"), doc.Content)

	_, err = LoadFile(filepath.Join(dir, "cv.docx"))
	assert.Error(t, err)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/a/.b"))
	assert.False(t, IsHidden("/a/b.pdf"))
	assert.False(t, IsHidden("."))
}
