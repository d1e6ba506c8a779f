// Package app builds the pipeline object graph from a loaded Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/cv-intake/internal/batch"
	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
	"github.com/joseph-ayodele/cv-intake/internal/ledger"
	"github.com/joseph-ayodele/cv-intake/internal/llm"
	"github.com/joseph-ayodele/cv-intake/internal/llm/ollama"
	"github.com/joseph-ayodele/cv-intake/internal/llm/openai"
	"github.com/joseph-ayodele/cv-intake/internal/llm/vertex"
	"github.com/joseph-ayodele/cv-intake/internal/metrics"
	"github.com/joseph-ayodele/cv-intake/internal/ocr"
	"github.com/joseph-ayodele/cv-intake/internal/pipeline"
)

// App holds the wired pipeline. Close releases the model client and drains the ledger queue.
type App struct {
	Config       *common.Config
	Registry     *prometheus.Registry
	Metrics      *metrics.Pipeline
	Ledger       *ledger.Writer
	Processor    *pipeline.Processor
	Orchestrator *batch.Orchestrator

	closers []func() error
	logger  *slog.Logger
}

// Build wires every stage. The ledger worker starts on the first append.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Registry: prometheus.NewRegistry(), logger: logger}
	a.Metrics = metrics.New(a.Registry)

	model, err := a.newCompleter(ctx)
	if err != nil {
		return nil, err
	}
	rpm := cfg.LLM.RequestsPerMinute
	model = llm.NewRateLimited(model, float64(rpm)/60, cfg.LLM.Burst)

	table, err := NewTable(ctx, cfg.Ledger, logger)
	if err != nil {
		_ = a.closeAll()
		return nil, err
	}
	a.Ledger = ledger.NewWriter(table, logger,
		ledger.WithQueueSize(cfg.Ledger.QueueSize),
		ledger.WithAppendTimeout(cfg.Ledger.AppendTimeout),
		ledger.WithRetries(cfg.Ledger.MaxRetries, cfg.Ledger.RetryBackoff),
		ledger.WithMetrics(a.Metrics),
	)

	raster := ocr.NewRasterizer(ocr.Config{
		Pdftoppm: cfg.Raster.Pdftoppm,
		Width:    cfg.Raster.Width,
		DPI:      cfg.Raster.DPI,
		MaxPages: cfg.Raster.MaxPages,
	}, logger)

	a.Processor = pipeline.NewProcessor(
		raster,
		pipeline.NewTranscriptionStage(model, cfg.Pipeline.PageConcurrency, cfg.Pipeline.StrictTranscribe, logger, a.Metrics),
		pipeline.NewExtractionStage(model, cfg.Pipeline.NormalizePhone, logger, a.Metrics),
		a.Ledger,
		entity.Mode(cfg.Pipeline.Mode),
		logger,
		a.Metrics,
	)
	a.Orchestrator = batch.NewOrchestrator(a.Processor, logger,
		batch.WithChunkSize(cfg.Batch.ChunkSize),
		batch.WithDocumentTimeout(cfg.Batch.DocumentTimeout),
		batch.WithMetrics(a.Metrics),
	)

	logger.Info("app.build.ok",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"ledger", cfg.Ledger.Backend,
		"mode", cfg.Pipeline.Mode,
		"chunk_size", cfg.Batch.ChunkSize,
	)
	return a, nil
}

func (a *App) newCompleter(ctx context.Context) (llm.Completer, error) {
	c := a.Config.LLM
	switch c.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Temperature: c.Temperature,
			Timeout:     c.Timeout,
		}, a.logger), nil
	case "vertex":
		client, err := vertex.NewClient(ctx, vertex.Config{
			ProjectID:   c.VertexProject,
			Region:      c.VertexRegion,
			Model:       c.Model,
			Temperature: c.Temperature,
		}, a.logger)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "create vertex client", err)
		}
		a.closers = append(a.closers, client.Close)
		return client, nil
	case "ollama":
		client, err := ollama.NewClient(ollama.Config{
			Host:        c.OllamaHost,
			Model:       c.Model,
			Temperature: c.Temperature,
		}, a.logger)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "create ollama client", err)
		}
		return client, nil
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown llm provider %q", c.Provider), common.ErrInvalidInput)
	}
}

// NewTable opens the configured ledger backend.
func NewTable(ctx context.Context, cfg common.LedgerConfig, logger *slog.Logger) (ledger.Table, error) {
	switch cfg.Backend {
	case "sheets":
		t, err := ledger.NewSheetsTable(ctx, ledger.SheetsConfig{
			SpreadsheetID:       cfg.SpreadsheetID,
			SheetName:           cfg.SheetName,
			ServiceAccountEmail: cfg.ServiceAccountEmail,
			PrivateKey:          cfg.PrivateKey,
		}, logger)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "create sheets client", err)
		}
		return t, nil
	case "xlsx":
		return ledger.NewXLSXTable(cfg.XLSXPath, cfg.SheetName, logger), nil
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown ledger backend %q", cfg.Backend), common.ErrInvalidInput)
	}
}

// Close waits for queued ledger appends, then releases the model client.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Ledger != nil {
		start := time.Now()
		if err := a.Ledger.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ledger shutdown: %w", err))
		}
		a.logger.Info("app.ledger.drained", "elapsed_ms", time.Since(start).Milliseconds())
	}
	if err := a.closeAll(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeAll() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
