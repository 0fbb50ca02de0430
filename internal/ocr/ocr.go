// Package ocr recognizes text in images and scanned PDFs with tesseract,
// rasterizing PDFs with pdftoppm first.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/saikiran76/SwipeAI/constants"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	Lang        string // default "eng"
	DPI         int    // rasterization DPI for scanned PDFs, default 300
	MaxPages    int    // 0 = no limit
	Concurrency int    // pages recognized in parallel, default 4
	TessdataDir string

	EnableTSVConfidence bool
	PSM                 int // e.g., 6 is good for uniform block of text
	OEM                 int // 1 = LSTM; leave 0 to use default
}

type Result struct {
	Text       string
	Pages      int
	Method     string // "image-ocr" | "pdf-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Engine)

// WithRunner replaces the command runner, mostly for tests.
func WithRunner(r Runner) Option {
	return func(e *Engine) {
		if r != nil {
			e.runner = r
		}
	}
}

func NewEngine(cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	e := &Engine{cfg: cfg, runner: ExecRunner{Logger: logger}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RecognizeText is the recognizeText(image) collaborator.
func (e *Engine) RecognizeText(ctx context.Context, image []byte, filename string) (Result, error) {
	return e.withTempFile(image, filename, func(path string) (Result, error) {
		return e.RecognizeFile(ctx, path)
	})
}

// RecognizePDF OCRs every page of a scanned PDF.
func (e *Engine) RecognizePDF(ctx context.Context, pdf []byte) (Result, error) {
	return e.withTempFile(pdf, "document.pdf", func(path string) (Result, error) {
		return e.RecognizePDFFile(ctx, path)
	})
}

// RecognizeFile dispatches on the file extension.
func (e *Engine) RecognizeFile(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.start", "path", path, "ext", ext)

	var (
		res Result
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.RecognizePDFFile(ctx, path)
	case constants.IMAGE:
		res, err = e.recognizeImage(ctx, path)
	default:
		return Result{}, fmt.Errorf("ocr: unsupported extension %q", ext)
	}
	res.Duration = time.Since(start)
	return res, err
}

func (e *Engine) withTempFile(data []byte, filename string, fn func(path string) (Result, error)) (Result, error) {
	dir, err := os.MkdirTemp("", "swipe-ocr-*")
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("ocr.tempdir.cleanup_failed", "dir", dir, "error", err)
		}
	}()

	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "input.png"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Result{}, err
	}
	return fn(path)
}
