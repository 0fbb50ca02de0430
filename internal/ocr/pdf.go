package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// RecognizePDFFile rasterizes the PDF and OCRs its pages concurrently. Page
// texts are joined in page order regardless of completion order. A page that
// fails is reported as a warning; only a document with no readable page fails.
func (e *Engine) RecognizePDFFile(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	tmpDir, err := os.MkdirTemp("", "swipe-pp-*")
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.tempdir.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return Result{Warnings: []string{string(errb)}}, fmt.Errorf("pdftoppm: %w", err)
	}

	pages := renderedPages(prefix)
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	if len(pages) == 0 {
		return Result{Warnings: []string{"pdftoppm produced no images"}}, fmt.Errorf("no pages rendered")
	}

	texts := make([]string, len(pages))
	pageErrs := make([]error, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, img := range pages {
		i, img := i, img
		g.Go(func() error {
			txt, _, err := e.tesseract(gctx, img)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn("ocr.page.failed", "page", i+1, "error", err)
				pageErrs[i] = err
				return nil
			}
			texts[i] = Normalize(txt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var (
		b     strings.Builder
		warns []string
	)
	for i, txt := range texts {
		if pageErrs[i] != nil {
			warns = append(warns, fmt.Sprintf("page %d: %v", i+1, pageErrs[i]))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
	}
	if len(warns) == len(pages) {
		return Result{Pages: len(pages), Warnings: warns}, fmt.Errorf("ocr failed on every page")
	}

	text := b.String()
	e.logger.Info("ocr.pdf.ok",
		"pages", len(pages),
		"failed_pages", len(warns),
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{
		Text:       text,
		Pages:      len(pages),
		Method:     "pdf-ocr",
		Language:   e.cfg.Lang,
		Warnings:   warns,
		Confidence: HeuristicConfidence(text),
	}, nil
}

// renderedPages lists prefix-N.png files sorted by page number; pdftoppm
// zero-pads N by page count so a lexical sort is not enough.
func renderedPages(prefix string) []string {
	matches, _ := filepath.Glob(prefix + "-*.png")
	num := func(p string) int {
		s := strings.TrimSuffix(strings.TrimPrefix(p, prefix+"-"), ".png")
		n, _ := strconv.Atoi(s)
		return n
	}
	sort.Slice(matches, func(i, j int) bool { return num(matches[i]) < num(matches[j]) })
	return matches
}
