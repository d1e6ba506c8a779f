package vertex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"
	"github.com/joseph-ayodele/cv-intake/internal/llm"
)

// Config for the Vertex AI Gemini client.
type Config struct {
	ProjectID   string
	Region      string // default us-central1
	Model       string // default gemini-1.5-pro
	Temperature float32
}

// Client implements llm.Completer on Vertex AI.
type Client struct {
	cfg  Config
	base *genai.Client
	log  *slog.Logger
}

// NewClient dials Vertex AI with application default credentials.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("vertex: project id cannot be empty")
	}
	if cfg.Region == "" {
		cfg.Region = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}
	if logger == nil {
		logger = slog.Default()
	}
	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Client{cfg: cfg, base: base, log: logger}, nil
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

// Complete configures a model for this request and returns the concatenated text parts.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	model := c.base.GenerativeModel(c.cfg.Model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr(c.cfg.Temperature),
	}
	if req.Schema != nil {
		model.GenerationConfig.ResponseMIMEType = "application/json"
		model.GenerationConfig.ResponseSchema = ToGenaiSchema(req.Schema)
	}

	parts := make([]genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, genai.ImageData(imageFormat(img.MediaType), img.Data))
	}
	if req.Prompt != "" {
		parts = append(parts, genai.Text(req.Prompt))
	}

	c.log.Info("llm.vertex.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"images", len(req.Images),
		"structured", req.Schema != nil,
	)

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		c.log.Error("llm.vertex.generate_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("vertex generate: %w", err)
	}

	out := strings.TrimSpace(collectText(resp))
	c.log.Info("llm.vertex.ok",
		"req_id", rid,
		"content_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// imageFormat maps a media type to the short format genai.ImageData expects.
func imageFormat(mediaType string) string {
	if i := strings.IndexByte(mediaType, '/'); i >= 0 {
		return mediaType[i+1:]
	}
	if mediaType == "" {
		return "jpeg"
	}
	return mediaType
}
