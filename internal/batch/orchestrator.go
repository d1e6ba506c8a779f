package batch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
	"github.com/joseph-ayodele/cv-intake/internal/metrics"
)

// DocumentProcessor runs one document end to end and returns the persisted record.
type DocumentProcessor interface {
	Process(ctx context.Context, doc entity.Document) (entity.ExtractedRecord, error)
}

// Orchestrator processes documents in fixed-size chunks. Documents inside a chunk run in
// parallel; the next chunk starts only once every document of the previous one resolved.
type Orchestrator struct {
	proc      DocumentProcessor
	chunkSize int
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Pipeline
}

type Option func(*Orchestrator)

func WithChunkSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithDocumentTimeout bounds each document; zero leaves documents unbounded.
func WithDocumentTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Pipeline) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func NewOrchestrator(proc DocumentProcessor, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		proc:      proc,
		chunkSize: constants.DefaultChunkSize,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process returns exactly one outcome per input document, in input order.
// A failing document never cancels its siblings.
func (o *Orchestrator) Process(ctx context.Context, docs []entity.Document) []entity.BatchOutcome {
	out := make([]entity.BatchOutcome, len(docs))
	start := time.Now()
	o.logger.Info("batch.start", "documents", len(docs), "chunk_size", o.chunkSize)

	for lo := 0; lo < len(docs); lo += o.chunkSize {
		hi := min(lo+o.chunkSize, len(docs))
		chunkStart := time.Now()

		// No WithContext: one failed document must not cancel the rest of the chunk.
		var g errgroup.Group
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				out[i] = o.processOne(ctx, i, docs[i])
				return nil
			})
		}
		_ = g.Wait()

		o.logger.Info("batch.chunk.done",
			"from", lo,
			"to", hi,
			"elapsed_ms", time.Since(chunkStart).Milliseconds(),
		)
	}

	succeeded := 0
	for _, oc := range out {
		if oc.Succeeded() {
			succeeded++
		}
	}
	o.logger.Info("batch.done",
		"documents", len(docs),
		"succeeded", succeeded,
		"failed", len(docs)-succeeded,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

func (o *Orchestrator) processOne(ctx context.Context, index int, doc entity.Document) (oc entity.BatchOutcome) {
	oc = entity.BatchOutcome{Index: index, Filename: doc.Filename}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("batch.document.panic", "file", doc.Filename, "panic", r)
			oc = failed(oc, common.NewAppError(common.CodeInternal, "panic while processing document", common.ErrInternal))
			o.metrics.DocumentDone(string(oc.Status), oc.ErrorCode)
		}
	}()

	dctx, cancel := common.WithOptionalTimeout(ctx, o.timeout)
	defer cancel()

	rec, err := o.proc.Process(dctx, doc)
	if err != nil {
		return failed(oc, err)
	}
	oc.Status = constants.OutcomeSucceeded
	oc.Record = &rec
	return oc
}

func failed(oc entity.BatchOutcome, err error) entity.BatchOutcome {
	oc.Status = constants.OutcomeFailed
	oc.Record = nil
	oc.Error = err.Error()
	oc.ErrorCode = common.CodeOf(err)
	var fe common.FieldErrors
	if errors.As(err, &fe) {
		oc.Details = fe.Rules()
	}
	return oc
}
