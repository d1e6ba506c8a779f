package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/cv-intake/internal/llm"
)

// Complete implements llm.Completer using chat/completions.
// Images are sent inline as data URLs; a schema switches on strict structured output.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.openai.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(req.Prompt),
		"images", len(req.Images),
		"structured", req.Schema != nil,
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages":    buildMessages(req),
	}
	if req.Schema != nil {
		name := req.SchemaName
		if name == "" {
			name = llm.CandidateSchemaName
		}
		body["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   name,
				"strict": true,
				"schema": req.Schema,
			},
		}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.openai.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
				Refusal string  `json:"refusal"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.openai.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
		)
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.openai.no_choices", "req_id", rid, "raw", string(raw))
		return "", fmt.Errorf("no choices in openai response")
	}
	msg := cc.Choices[0].Message
	if msg.Refusal != "" {
		c.log.Warn("llm.openai.refusal", "req_id", rid, "refusal", msg.Refusal)
		return "", fmt.Errorf("openai refused: %s", msg.Refusal)
	}
	var content string
	if msg.Content != nil {
		content = strings.TrimSpace(*msg.Content)
	}

	c.log.Info("llm.openai.ok",
		"req_id", rid,
		"content_len", len(content),
		"finish_reason", cc.Choices[0].FinishReason,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func buildMessages(req llm.Request) []map[string]any {
	msgs := make([]map[string]any, 0, 2)
	if req.System != "" {
		msgs = append(msgs, map[string]any{"role": "system", "content": req.System})
	}
	if len(req.Images) == 0 {
		return append(msgs, map[string]any{"role": "user", "content": req.Prompt})
	}
	parts := make([]map[string]any, 0, len(req.Images)+1)
	if req.Prompt != "" {
		parts = append(parts, map[string]any{"type": "text", "text": req.Prompt})
	}
	for _, img := range req.Images {
		parts = append(parts, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": llm.DataURL(img), "detail": "high"},
		})
	}
	return append(msgs, map[string]any{"role": "user", "content": parts})
}
