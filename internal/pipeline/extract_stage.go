package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
	"github.com/joseph-ayodele/cv-intake/internal/llm"
	"github.com/joseph-ayodele/cv-intake/internal/metrics"
)

// ExtractionStage asks the model for the candidate record under a strict schema.
type ExtractionStage struct {
	Model          llm.Completer
	NormalizePhone bool
	Logger         *slog.Logger
	Metrics        *metrics.Pipeline

	schema map[string]any
}

func NewExtractionStage(model llm.Completer, normalizePhone bool, logger *slog.Logger, m *metrics.Pipeline) *ExtractionStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionStage{
		Model:          model,
		NormalizePhone: normalizePhone,
		Logger:         logger,
		Metrics:        m,
		schema:         llm.BuildCandidateJSONSchema(),
	}
}

// FromText extracts from a consolidated multi-page transcript.
func (s *ExtractionStage) FromText(ctx context.Context, doc entity.ConsolidatedDocument) (entity.ExtractedRecord, error) {
	return s.extract(ctx, llm.Request{
		System:     llm.BuildExtractionSystemPrompt(),
		Prompt:     llm.BuildExtractionPrompt(doc.Text),
		Schema:     s.schema,
		SchemaName: llm.CandidateSchemaName,
	})
}

// FromImage is the single-page fast path: the page image goes straight to extraction.
func (s *ExtractionStage) FromImage(ctx context.Context, page entity.PageImage) (entity.ExtractedRecord, error) {
	return s.extract(ctx, llm.Request{
		System:     llm.BuildExtractionSystemPrompt(),
		Prompt:     llm.FastPathExtractionPrompt,
		Images:     []llm.Image{{Data: page.Data, MediaType: page.MediaType}},
		Schema:     s.schema,
		SchemaName: llm.CandidateSchemaName,
	})
}

func (s *ExtractionStage) extract(ctx context.Context, req llm.Request) (entity.ExtractedRecord, error) {
	start := time.Now()
	defer func() { s.Metrics.ObserveStage(metrics.StageExtract, time.Since(start)) }()
	docID := common.DocumentIDFromContext(ctx)

	s.Logger.Info("pipeline.extract.start", "document_id", docID, "images", len(req.Images), "prompt_len", len(req.Prompt))

	reply, err := s.Model.Complete(ctx, req)
	if err != nil {
		s.Logger.Error("pipeline.extract.model_error", "document_id", docID, "error", err)
		return entity.ExtractedRecord{}, common.ExtractionError("model call failed", err)
	}
	if llm.StripCodeFences(reply) == "" {
		s.Logger.Error("pipeline.extract.empty_reply", "document_id", docID)
		return entity.ExtractedRecord{}, common.ExtractionError("model returned no content", common.ErrEmptyReply)
	}

	rec, err := s.parse([]byte(reply))
	if err != nil {
		s.Logger.Error("pipeline.extract.parse_failed", "document_id", docID, "error", err, "reply", truncate(reply, 500))
		return entity.ExtractedRecord{}, common.ExtractionError("reply does not match the candidate schema", err)
	}

	if s.NormalizePhone {
		if p := llm.NormalizePhone(rec.Phone); p != rec.Phone {
			s.Logger.Info("pipeline.extract.phone_normalized", "document_id", docID, "from", rec.Phone, "to", p)
			rec.Phone = p
		}
	}

	s.Logger.Info("pipeline.extract.ok",
		"document_id", docID,
		"companies", len(rec.Companies),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

func (s *ExtractionStage) parse(reply []byte) (entity.ExtractedRecord, error) {
	cleaned, _, err := llm.NormalizeAndSanitizeJSON(reply, s.Logger)
	if err != nil {
		return entity.ExtractedRecord{}, err
	}
	contract, err := llm.CandidateContract()
	if err != nil {
		return entity.ExtractedRecord{}, err
	}
	if err := contract.Validate(cleaned); err != nil {
		return entity.ExtractedRecord{}, err
	}
	var rec entity.ExtractedRecord
	if err := json.Unmarshal(cleaned, &rec); err != nil {
		return entity.ExtractedRecord{}, err
	}
	if rec.Companies == nil {
		rec.Companies = []string{}
	}
	return rec, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
