package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	Width    int    // target pixel width, height follows the aspect ratio; default 2048
	DPI      int    // render density; default 100
	MaxPages int    // 0 = no limit
}

type Rasterizer struct {
	cfg    Config
	runner Runner
	pages  PageCounter
	logger *slog.Logger
}

func NewRasterizer(cfg Config, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Width <= 0 {
		cfg.Width = constants.DefaultPageWidth
	}
	if cfg.DPI <= 0 {
		cfg.DPI = constants.DefaultDPI
	}
	return &Rasterizer{
		cfg:    cfg,
		runner: execRunner{logger: logger},
		pages:  pdfcpuCounter{},
		logger: logger,
	}
}

// pdftoppm names outputs <prefix>-<page>.jpg, zero-padding the page number.
var renderedPage = regexp.MustCompile(`-(\d+)\.jpg$`)

// Rasterize converts doc into JPEG page images ordered by page index.
// ModeFast renders only the first page. Any failure is fatal for the document.
func (r *Rasterizer) Rasterize(ctx context.Context, doc entity.Document, mode entity.Mode) ([]entity.PageImage, error) {
	start := time.Now()
	if len(doc.Content) == 0 {
		return nil, common.RasterizationError("empty document", common.ErrNoPages)
	}
	if doc.MediaType != "" && !constants.IsPDFMediaType(doc.MediaType) {
		return nil, common.RasterizationError("unsupported media type "+doc.MediaType, common.ErrNotPDF)
	}

	total, err := r.pages.CountPages(doc.Content)
	if err != nil {
		r.logger.Warn("ocr.rasterize.invalid_pdf", "document_id", doc.ID, "error", err)
		return nil, common.RasterizationError("invalid pdf", err)
	}
	if total <= 0 {
		return nil, common.RasterizationError("pdf has zero pages", common.ErrNoPages)
	}

	last := total
	if mode == entity.ModeFast {
		last = 1
	}
	if r.cfg.MaxPages > 0 && last > r.cfg.MaxPages {
		r.logger.Info("ocr.rasterize.page_cap", "document_id", doc.ID, "pages", total, "max_pages", r.cfg.MaxPages)
		last = r.cfg.MaxPages
	}

	tmpDir, err := os.MkdirTemp("", "cvi-pp-*")
	if err != nil {
		return nil, common.RasterizationError("create temp dir", err)
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			r.logger.Warn("failed to remove temp dir", "path", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(in, doc.Content, 0o600); err != nil {
		return nil, common.RasterizationError("write temp pdf", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -jpeg -r 100 -scale-to-x 2048 -scale-to-y -1 -f 1 -l N <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm,
		"-jpeg",
		"-r", strconv.Itoa(r.cfg.DPI),
		"-scale-to-x", strconv.Itoa(r.cfg.Width),
		"-scale-to-y", "-1",
		"-f", "1",
		"-l", strconv.Itoa(last),
		in, prefix,
	)
	if err != nil {
		return nil, common.RasterizationError(fmt.Sprintf("pdftoppm failed: %s", truncate(string(errb), 512)), err)
	}

	pages, err := r.collect(prefix)
	if err != nil {
		return nil, err
	}
	if len(pages) != last {
		return nil, common.RasterizationError(fmt.Sprintf("rendered %d of %d pages", len(pages), last), nil)
	}

	r.logger.Debug("ocr.rasterize.ok",
		"document_id", doc.ID,
		"mode", mode,
		"pages", len(pages),
		"total_pages", total,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

// collect reads the rendered files and orders them by the page number in their name.
func (r *Rasterizer) collect(prefix string) ([]entity.PageImage, error) {
	matches, err := filepath.Glob(prefix + "-*.jpg")
	if err != nil {
		return nil, common.RasterizationError("list rendered pages", err)
	}

	type rendered struct {
		page int
		path string
	}
	files := make([]rendered, 0, len(matches))
	for _, m := range matches {
		sub := renderedPage.FindStringSubmatch(m)
		if sub == nil {
			continue
		}
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 1 {
			continue
		}
		files = append(files, rendered{page: n, path: m})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].page < files[j].page })

	out := make([]entity.PageImage, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, common.RasterizationError("read rendered page", err)
		}
		img := entity.PageImage{
			Index:     f.page - 1,
			Data:      data,
			MediaType: constants.MediaTypeJPEG,
			DPI:       r.cfg.DPI,
		}
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			img.Width, img.Height = cfg.Width, cfg.Height
		}
		out = append(out, img)
	}
	return out, nil
}
