package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
	"github.com/joseph-ayodele/cv-intake/internal/metrics"
)

// Rasterizer turns a PDF into ordered page images.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc entity.Document, mode entity.Mode) ([]entity.PageImage, error)
}

// Appender persists one validated row.
type Appender interface {
	Append(ctx context.Context, row entity.LedgerRow) error
}

// Processor coordinates rasterize, transcribe, consolidate, extract, validate, then ledger append
// for a single document.
type Processor struct {
	Raster     Rasterizer
	Transcribe *TranscriptionStage
	Extract    *ExtractionStage
	Ledger     Appender
	Mode       entity.Mode
	Logger     *slog.Logger
	Metrics    *metrics.Pipeline
}

func NewProcessor(raster Rasterizer, transcribe *TranscriptionStage, extract *ExtractionStage, ledger Appender, mode entity.Mode, logger *slog.Logger, m *metrics.Pipeline) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == "" {
		mode = entity.ModeFull
	}
	return &Processor{
		Raster:     raster,
		Transcribe: transcribe,
		Extract:    extract,
		Ledger:     ledger,
		Mode:       mode,
		Logger:     logger,
		Metrics:    m,
	}
}

// Process runs the document through the configured mode.
func (p *Processor) Process(ctx context.Context, doc entity.Document) (entity.ExtractedRecord, error) {
	return p.ProcessWithMode(ctx, doc, p.Mode)
}

// ProcessWithMode returns the record that was appended to the ledger. Every error carries an
// AppError code naming the stage that failed.
func (p *Processor) ProcessWithMode(ctx context.Context, doc entity.Document, mode entity.Mode) (entity.ExtractedRecord, error) {
	ctx = common.WithDocumentID(ctx, doc.ID.String())
	start := time.Now()
	log := p.Logger.With("document_id", doc.ID.String(), "file", doc.Filename, "mode", string(mode))

	rec, err := p.run(ctx, doc, mode, log)
	if err != nil {
		p.Metrics.DocumentDone(string(constants.OutcomeFailed), common.CodeOf(err))
		log.Error("processor.failed",
			"code", common.CodeOf(err),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractedRecord{}, err
	}
	p.Metrics.DocumentDone(string(constants.OutcomeSucceeded), "")
	log.Info("processor.ok", "elapsed_ms", time.Since(start).Milliseconds())
	return rec, nil
}

func (p *Processor) run(ctx context.Context, doc entity.Document, mode entity.Mode, log *slog.Logger) (entity.ExtractedRecord, error) {
	// 1) rasterize
	t := time.Now()
	pages, err := p.Raster.Rasterize(ctx, doc, mode)
	p.Metrics.ObserveStage(metrics.StageRasterize, time.Since(t))
	if err != nil {
		if common.CodeOf(err) == common.CodeInternal {
			err = common.RasterizationError("rasterize", err)
		}
		return entity.ExtractedRecord{}, err
	}
	if len(pages) == 0 {
		return entity.ExtractedRecord{}, common.RasterizationError("rasterize", common.ErrNoPages)
	}
	log.Info("processor.rasterize.ok", "pages", len(pages))

	// 2) extract, either from the first page image or from the consolidated transcript
	var rec entity.ExtractedRecord
	if mode == entity.ModeFast {
		rec, err = p.Extract.FromImage(ctx, pages[0])
	} else {
		transcripts, terr := p.Transcribe.Run(ctx, pages)
		if terr != nil {
			return entity.ExtractedRecord{}, terr
		}
		consolidated := Consolidate(transcripts)
		log.Info("processor.consolidate.ok", "pages", consolidated.Pages, "text_len", len(consolidated.Text))
		rec, err = p.Extract.FromText(ctx, consolidated)
	}
	if err != nil {
		return entity.ExtractedRecord{}, err
	}

	// 3) validate
	t = time.Now()
	err = Validate(rec)
	p.Metrics.ObserveStage(metrics.StageValidate, time.Since(t))
	if err != nil {
		return entity.ExtractedRecord{}, err
	}

	// 4) ledger
	t = time.Now()
	err = p.Ledger.Append(ctx, entity.ToLedgerRow(rec))
	p.Metrics.ObserveStage(metrics.StageLedger, time.Since(t))
	if err != nil {
		if !common.HasCode(err, common.CodeLedgerAppend) {
			err = common.LedgerAppendError(fmt.Sprintf("append %s", doc.Filename), err)
		}
		return entity.ExtractedRecord{}, err
	}
	return rec, nil
}
