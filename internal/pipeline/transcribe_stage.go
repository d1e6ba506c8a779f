package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
	"github.com/joseph-ayodele/cv-intake/internal/llm"
	"github.com/joseph-ayodele/cv-intake/internal/metrics"
)

// TranscriptionStage reads every page image into markdown with one model call per page.
type TranscriptionStage struct {
	Model       llm.Completer
	Concurrency int  // max in-flight page calls for one document; <= 0 means one per page
	Strict      bool // fail the document on the first degraded page instead of substituting ""
	Logger      *slog.Logger
	Metrics     *metrics.Pipeline
}

func NewTranscriptionStage(model llm.Completer, concurrency int, strict bool, logger *slog.Logger, m *metrics.Pipeline) *TranscriptionStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptionStage{Model: model, Concurrency: concurrency, Strict: strict, Logger: logger, Metrics: m}
}

// Run transcribes pages concurrently. The result has one entry per input page, in page index
// order, whatever order the calls complete in. In lenient mode the error is always nil.
func (s *TranscriptionStage) Run(ctx context.Context, pages []entity.PageImage) ([]entity.PageTranscript, error) {
	start := time.Now()
	defer func() { s.Metrics.ObserveStage(metrics.StageTranscribe, time.Since(start)) }()

	out := make([]entity.PageTranscript, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}

	for i := range pages {
		page := pages[i]
		g.Go(func() error {
			text, err := s.transcribe(gctx, page)
			if err != nil {
				s.Metrics.PageDegraded()
				s.Logger.Warn("pipeline.transcribe.page_degraded",
					"document_id", common.DocumentIDFromContext(ctx),
					"page", page.Index,
					"error", err,
				)
				if s.Strict {
					return common.TranscriptionError(fmt.Sprintf("page %d", page.Index), err)
				}
				out[i] = entity.PageTranscript{PageIndex: page.Index, Degraded: true}
				return nil
			}
			out[i] = entity.PageTranscript{PageIndex: page.Index, Text: text}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.Logger.Info("pipeline.transcribe.ok",
		"document_id", common.DocumentIDFromContext(ctx),
		"pages", len(pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (s *TranscriptionStage) transcribe(ctx context.Context, page entity.PageImage) (string, error) {
	reply, err := s.Model.Complete(ctx, llm.Request{
		System: llm.TranscriptionSystemPrompt,
		Prompt: llm.TranscriptionUserPrompt,
		Images: []llm.Image{{Data: page.Data, MediaType: page.MediaType}},
	})
	if err != nil {
		return "", err
	}
	text := llm.StripCodeFences(reply)
	if text == "" {
		return "", common.ErrEmptyReply
	}
	return text, nil
}
