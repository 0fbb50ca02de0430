package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saikiran76/SwipeAI/internal/llm"
)

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate implements llm.Generator over chat/completions in JSON mode.
// Image documents are attached as a data URL; other documents must arrive as Text.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	attach := len(req.Document) > 0 && llm.IsImage(req.MIMEType)
	c.logger.Info("llm.generate.start",
		"req_id", rid,
		"provider", c.Name(),
		"model", c.cfg.Model,
		"text_len", len(req.Text),
		"image_attached", attach,
	)

	var user any = llm.BuildUserPrompt(req)
	if attach {
		user = []map[string]any{
			{"type": "text", "text": llm.BuildUserPrompt(req)},
			{"type": "image_url", "image_url": map[string]any{"url": llm.DataURL(req.MIMEType, req.Document)}},
		}
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": req.Prompt},
			{"role": "user", "content": user},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	if c.cfg.Organization != "" {
		headers["OpenAI-Organization"] = c.cfg.Organization
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	var cc chatResponse
	if err := llm.SendJSON(ctx, c.http, c.Name(), endpoint, body, headers, &cc, c.logger); err != nil {
		c.logger.Error("llm.generate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.generate.no_choices", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return "", errors.New("no choices in openai response")
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	c.logger.Info("llm.generate.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
