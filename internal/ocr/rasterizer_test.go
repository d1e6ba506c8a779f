package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

type fixedCounter struct {
	n   int
	err error
}

func (c fixedCounter) CountPages([]byte) (int, error) { return c.n, c.err }

// fakePdftoppm writes one small JPEG per requested page, named the way pdftoppm names them.
type fakePdftoppm struct {
	calls [][]string
	fail  bool
	skip  int // page number to leave out, 0 = none
}

func (f *fakePdftoppm) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, args)
	if f.fail {
		return nil, []byte("Syntax Error: Couldn't read xref table"), errors.New("exit status 1")
	}
	first, last := 1, 1
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "-f":
			first, _ = strconv.Atoi(args[i+1])
		case "-l":
			last, _ = strconv.Atoi(args[i+1])
		}
	}
	prefix := args[len(args)-1]
	width := len(strconv.Itoa(last))
	for p := first; p <= last; p++ {
		if p == f.skip {
			continue
		}
		var buf bytes.Buffer
		img := image.NewGray(image.Rect(0, 0, 40, 52))
		img.Set(1, 1, color.White)
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			return nil, nil, err
		}
		name := fmt.Sprintf("%s-%0*d.jpg", prefix, width, p)
		if err := os.WriteFile(name, buf.Bytes(), 0o600); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func newTestRasterizer(pages PageCounter, runner Runner, cfg Config) *Rasterizer {
	r := NewRasterizer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.pages = pages
	r.runner = runner
	return r
}

func pdfDoc() entity.Document {
	return entity.NewDocument("cv.pdf", constants.MediaTypePDF, []byte("%PDF-1.4 stub"))
}

func TestRasterize_SinglePageProducesIndexZero(t *testing.T) {
	runner := &fakePdftoppm{}
	r := newTestRasterizer(fixedCounter{n: 1}, runner, Config{})

	pages, err := r.Rasterize(context.Background(), pdfDoc(), entity.ModeFull)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 0, pages[0].Index)
	assert.Equal(t, constants.MediaTypeJPEG, pages[0].MediaType)
	assert.Equal(t, 40, pages[0].Width)
	assert.Equal(t, 52, pages[0].Height)
	assert.Equal(t, constants.DefaultDPI, pages[0].DPI)
	assert.NotEmpty(t, pages[0].Data)
}

func TestRasterize_FullModeOrdersByPageNumber(t *testing.T) {
	runner := &fakePdftoppm{}
	r := newTestRasterizer(fixedCounter{n: 12}, runner, Config{})

	pages, err := r.Rasterize(context.Background(), pdfDoc(), entity.ModeFull)
	require.NoError(t, err)
	require.Len(t, pages, 12)
	for i, p := range pages {
		assert.Equal(t, i, p.Index)
	}
}

func TestRasterize_PassesRenderSettings(t *testing.T) {
	runner := &fakePdftoppm{}
	r := newTestRasterizer(fixedCounter{n: 3}, runner, Config{Width: 1024, DPI: 72})

	_, err := r.Rasterize(context.Background(), pdfDoc(), entity.ModeFull)
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	args := runner.calls[0]
	assert.Equal(t, []string{"-jpeg", "-r", "72", "-scale-to-x", "1024", "-scale-to-y", "-1", "-f", "1", "-l", "3"}, args[:11])
}

func TestRasterize_FastModeRendersFirstPageOnly(t *testing.T) {
	runner := &fakePdftoppm{}
	r := newTestRasterizer(fixedCounter{n: 4}, runner, Config{})

	pages, err := r.Rasterize(context.Background(), pdfDoc(), entity.ModeFast)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 0, pages[0].Index)
	assert.Contains(t, runner.calls[0], "-l")
	assert.Equal(t, "1", runner.calls[0][10])
}

func TestRasterize_MaxPagesCapsFullMode(t *testing.T) {
	r := newTestRasterizer(fixedCounter{n: 9}, &fakePdftoppm{}, Config{MaxPages: 5})

	pages, err := r.Rasterize(context.Background(), pdfDoc(), entity.ModeFull)
	require.NoError(t, err)
	assert.Len(t, pages, 5)
}

func TestRasterize_Failures(t *testing.T) {
	tests := []struct {
		name   string
		doc    entity.Document
		pages  PageCounter
		runner *fakePdftoppm
		target error
	}{
		{"empty bytes", entity.NewDocument("a.pdf", constants.MediaTypePDF, nil), fixedCounter{n: 1}, &fakePdftoppm{}, common.ErrNoPages},
		{"not a pdf", entity.NewDocument("a.png", "image/png", []byte("x")), fixedCounter{n: 1}, &fakePdftoppm{}, common.ErrNotPDF},
		{"unparseable", pdfDoc(), fixedCounter{err: errors.New("no xref")}, &fakePdftoppm{}, nil},
		{"zero pages", pdfDoc(), fixedCounter{n: 0}, &fakePdftoppm{}, common.ErrNoPages},
		{"renderer fails", pdfDoc(), fixedCounter{n: 2}, &fakePdftoppm{fail: true}, nil},
		{"missing page output", pdfDoc(), fixedCounter{n: 3}, &fakePdftoppm{skip: 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRasterizer(tt.pages, tt.runner, Config{})
			pages, err := r.Rasterize(context.Background(), tt.doc, entity.ModeFull)
			require.Error(t, err)
			assert.Nil(t, pages)
			assert.True(t, common.HasCode(err, common.CodeRasterization), "got %v", err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestRasterize_AcceptsMediaTypeParameters(t *testing.T) {
	r := newTestRasterizer(fixedCounter{n: 1}, &fakePdftoppm{}, Config{})
	doc := entity.NewDocument("cv.pdf", "application/pdf; charset=binary", []byte("%PDF"))

	pages, err := r.Rasterize(context.Background(), doc, entity.ModeFull)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}
