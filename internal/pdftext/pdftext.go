// Package pdftext reads the text layer of a PDF: in process first, then with
// pdftotext when the document defeats the Go reader.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/saikiran76/SwipeAI/internal/ocr"
)

// MinTextChars is the amount of text below which a PDF is treated as scanned.
const MinTextChars = 16

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
}

type Result struct {
	Text   string
	Pages  int
	Method string // "pdf-text" | "pdftotext"
}

// HasText reports whether the text layer is worth parsing.
func (r Result) HasText() bool {
	return len(strings.TrimSpace(r.Text)) >= MinTextChars
}

type Extractor struct {
	cfg    Config
	runner ocr.Runner
	logger *slog.Logger
}

func New(cfg Config, runner ocr.Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if runner == nil {
		runner = ocr.ExecRunner{Logger: logger}
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// ExtractText is the extractText(pdfBytes) collaborator. An empty text layer
// is not an error; callers check HasText and fall back to OCR.
func (x *Extractor) ExtractText(ctx context.Context, data []byte) (Result, error) {
	text, pages, err := readInProcess(data)
	if err == nil {
		return Result{Text: text, Pages: pages, Method: "pdf-text"}, nil
	}
	x.logger.Warn("pdftext.inprocess.failed", "error", err)

	text, pages, err2 := x.pdftotext(ctx, data)
	if err2 != nil {
		return Result{}, fmt.Errorf("read pdf text: %w; %w", err, err2)
	}
	return Result{Text: text, Pages: pages, Method: "pdftotext"}, nil
}

// readInProcess walks the pages row by row. The reader panics on some
// malformed files, which is turned into an error.
func readInProcess(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}

	var b strings.Builder
	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, w := range row.Content {
				words = append(words, w.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
		b.WriteString("\f")
	}
	return b.String(), pages, nil
}

func (x *Extractor) pdftotext(ctx context.Context, data []byte) (string, int, error) {
	dir, err := os.MkdirTemp("", "swipe-pdf-*")
	if err != nil {
		return "", 0, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", 0, err
	}
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, _, err := x.runner.Run(ctx, x.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w", err)
	}
	text := string(out)
	// form feed separates pages
	pages := 1 + strings.Count(strings.TrimRight(text, "\f\n"), "\f")
	return text, pages, nil
}
