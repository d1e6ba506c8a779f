package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

// CVProcessor runs one uploaded résumé through the pipeline.
type CVProcessor interface {
	ProcessWithMode(ctx context.Context, doc entity.Document, mode entity.Mode) (entity.ExtractedRecord, error)
}

// BatchProcessor runs many résumés and reports one outcome each.
type BatchProcessor interface {
	Process(ctx context.Context, docs []entity.Document) []entity.BatchOutcome
}

type HTTPConfig struct {
	BodyLimit   int         // bytes; 0 keeps fiber's default
	EnforcePDF  bool        // reject parts whose declared content type is not application/pdf
	DefaultMode entity.Mode // used when the request has no ?mode=
	AccessLog   io.Writer   // nil disables the access log
}

// HTTPServer exposes the ingestion endpoints.
type HTTPServer struct {
	app      *fiber.App
	cfg      HTTPConfig
	proc     CVProcessor
	batch    BatchProcessor
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

func NewHTTPServer(cfg HTTPConfig, proc CVProcessor, batch BatchProcessor, gatherer prometheus.Gatherer, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = entity.ModeFull
	}
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})
	s := &HTTPServer{
		app:      app,
		cfg:      cfg,
		proc:     proc,
		batch:    batch,
		gatherer: gatherer,
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

func (s *HTTPServer) setupRoutes() {
	s.app.Use(recover.New())
	if s.cfg.AccessLog != nil {
		s.app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
			Output: s.cfg.AccessLog,
		}))
	}
	s.app.Use(requestContext())

	s.app.Get("/api/health", s.handleHealth)
	if s.gatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := s.app.Group("/api")
	api.Post("/process-cv", s.handleProcessCV)
	api.Post("/process-batch", s.handleProcessBatch)
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *HTTPServer) App() *fiber.App { return s.app }

func (s *HTTPServer) Listen(addr string) error {
	s.logger.Info("server.http.listen", "addr", addr)
	return s.app.Listen(addr)
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *HTTPServer) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *HTTPServer) handleProcessCV(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file provided"})
	}
	if s.rejectNonPDF(fh) {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": "File must be a PDF"})
	}
	mode, err := s.mode(c)
	if err != nil {
		var appErr *common.AppError
		_ = errors.As(err, &appErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": appErr.Message, "code": appErr.Code})
	}

	doc, err := readDocument(fh)
	if err != nil {
		s.logger.Error("server.process_cv.read_failed", "file", fh.Filename, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process CV"})
	}

	rec, err := s.proc.ProcessWithMode(c.UserContext(), doc, mode)
	if err != nil {
		return s.writeError(c, doc, err)
	}
	return c.JSON(fiber.Map{"data": rec})
}

func (s *HTTPServer) handleProcessBatch(c *fiber.Ctx) error {
	if s.batch == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "batch processing is not enabled"})
	}
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No files provided"})
	}

	headers := form.File["files"]
	docs := make([]entity.Document, 0, len(headers))
	for _, fh := range headers {
		if s.rejectNonPDF(fh) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": fmt.Sprintf("%s must be a PDF", fh.Filename)})
		}
		doc, err := readDocument(fh)
		if err != nil {
			s.logger.Error("server.process_batch.read_failed", "file", fh.Filename, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read uploaded files"})
		}
		docs = append(docs, doc)
	}

	outcomes := s.batch.Process(c.UserContext(), docs)
	return c.JSON(fiber.Map{"results": outcomes})
}

func (s *HTTPServer) rejectNonPDF(fh *multipart.FileHeader) bool {
	if !s.cfg.EnforcePDF {
		return false
	}
	ct := fh.Header.Get(fiber.HeaderContentType)
	return ct != "" && !constants.IsPDFMediaType(ct)
}

func (s *HTTPServer) mode(c *fiber.Ctx) (entity.Mode, error) {
	switch m := entity.Mode(c.Query("mode")); m {
	case "":
		return s.cfg.DefaultMode, nil
	case entity.ModeFull, entity.ModeFast:
		return m, nil
	default:
		return "", common.InvalidInput(fmt.Sprintf("mode must be %s or %s", entity.ModeFull, entity.ModeFast))
	}
}

// writeError maps a pipeline failure to the response shape: 422 with the violated rules for
// validation failures, 500 for everything else.
func (s *HTTPServer) writeError(c *fiber.Ctx, doc entity.Document, err error) error {
	code := common.CodeOf(err)
	s.logger.Warn("server.process_cv.failed",
		"request_id", common.RequestIDFromContext(c.UserContext()),
		"file", doc.Filename,
		"code", code,
		"error", err,
	)
	if code == common.CodeValidation {
		var fe common.FieldErrors
		details := []string{}
		if errors.As(err, &fe) {
			details = fe.Rules()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "Extracted data failed validation",
			"details": details,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process CV"})
}

func readDocument(fh *multipart.FileHeader) (entity.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return entity.Document{}, err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return entity.Document{}, err
	}
	mt := fh.Header.Get(fiber.HeaderContentType)
	if mt == "" {
		mt = constants.MediaTypePDF
	}
	return entity.NewDocument(fh.Filename, mt, b), nil
}
