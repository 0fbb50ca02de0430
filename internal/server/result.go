package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/saikiran76/SwipeAI/internal/async"
	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/pipeline"
)

// Result is the document written to the outbox for every processed file.
type Result struct {
	File       string                `json:"file"`
	RunID      string                `json:"runId,omitempty"`
	Method     string                `json:"method,omitempty"`
	Source     string                `json:"source,omitempty"`
	Confidence float32               `json:"confidence,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
	Data       *entity.ExtractedData `json:"data,omitempty"`
	ErrorKind  string                `json:"errorKind,omitempty"`
	Error      string                `json:"error,omitempty"`
}

func NewResult(file string, out pipeline.Outcome, err error) Result {
	res := Result{
		File:       file,
		RunID:      out.RunID,
		Method:     string(out.Method),
		Source:     out.Source,
		Confidence: out.Confidence,
		Warnings:   out.Warnings,
	}
	if err != nil {
		res.ErrorKind = common.ErrorKind(err)
		res.Error = err.Error()
		return res
	}
	data := out.Data
	res.Data = &data
	return res
}

// Outbox writes one JSON file per processed input into Dir.
type Outbox struct {
	Dir    string
	logger *slog.Logger
}

func NewOutbox(dir string, logger *slog.Logger) (*Outbox, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create outbox: %w", err)
	}
	return &Outbox{Dir: dir, logger: logger}, nil
}

// Path returns where the result for input is written; failures get an .error.json suffix.
func (o *Outbox) Path(input string, failed bool) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if failed {
		return filepath.Join(o.Dir, base+".error.json")
	}
	return filepath.Join(o.Dir, base+".json")
}

// Write stores res atomically via a temp file and rename.
func (o *Outbox) Write(res Result) (string, error) {
	path := o.Path(res.File, res.Error != "")
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	tmp, err := os.CreateTemp(o.Dir, ".result-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

// ResultFunc adapts the outbox to the queue's result callback.
func (o *Outbox) ResultFunc() async.ResultFunc {
	return func(_ context.Context, job async.Job, out pipeline.Outcome, err error) {
		path, werr := o.Write(NewResult(job.Path, out, err))
		if werr != nil {
			o.logger.Error("outbox.write.failed", "input", job.Path, "error", werr)
			return
		}
		o.logger.Info("outbox.write.ok", "input", job.Path, "output", path, "failed", err != nil)
	}
}
