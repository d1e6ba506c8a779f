package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/cv-intake/internal/llm"
	"github.com/tmc/langchaingo/llms"
	lcollama "github.com/tmc/langchaingo/llms/ollama"
)

// Config for a local Ollama vision model.
type Config struct {
	Host        string // e.g. http://localhost:11434
	Model       string // e.g. llama3.2-vision
	Temperature float32
}

// Client implements llm.Completer through langchaingo.
type Client struct {
	cfg   Config
	model llms.Model
	log   *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "llama3.2-vision"
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts := []lcollama.Option{lcollama.WithModel(cfg.Model)}
	if cfg.Host != "" {
		opts = append(opts, lcollama.WithServerURL(cfg.Host))
	}
	m, err := lcollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama model: %w", err)
	}
	return &Client{cfg: cfg, model: m, log: logger}, nil
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	messages := buildMessages(req)
	callOpts := []llms.CallOption{llms.WithTemperature(float64(c.cfg.Temperature))}
	if req.Schema != nil {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	c.log.Info("llm.ollama.start", "req_id", rid, "model", c.cfg.Model, "images", len(req.Images))

	resp, err := c.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		c.log.Error("llm.ollama.generate_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Content)
	c.log.Info("llm.ollama.ok",
		"req_id", rid,
		"content_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func buildMessages(req llm.Request) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	parts := make([]llms.ContentPart, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, llms.BinaryPart(img.MediaType, img.Data))
	}
	if req.Prompt != "" {
		parts = append(parts, llms.TextPart(req.Prompt))
	}
	return append(messages, llms.MessageContent{Role: llms.ChatMessageTypeHuman, Parts: parts})
}
