// Package ollama is an llm.Generator backed by a local Ollama server.
package ollama

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/saikiran76/SwipeAI/internal/llm"
)

type Config struct {
	BaseURL string // default http://localhost:11434
	Model   string
	Timeout time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2-vision"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

func (c *Client) Name() string { return "ollama" }

// Generate calls /api/generate in JSON format mode. Images travel in the
// images field, base64 encoded without a data URL prefix.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	start := time.Now()
	body := map[string]any{
		"model":  c.cfg.Model,
		"system": req.Prompt,
		"prompt": llm.BuildUserPrompt(req),
		"stream": false,
		"format": "json",
	}
	if len(req.Document) > 0 && llm.IsImage(req.MIMEType) {
		body["images"] = []string{base64.StdEncoding.EncodeToString(req.Document)}
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := llm.SendJSON(ctx, c.http, c.Name(), c.cfg.BaseURL+"/api/generate", body, nil, &out, c.logger); err != nil {
		return "", err
	}
	c.logger.Info("llm.generate.ok",
		"provider", c.Name(),
		"model", c.cfg.Model,
		"content_len", len(out.Response),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return strings.TrimSpace(out.Response), nil
}
