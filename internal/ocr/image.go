package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ImageConfidenceThreshold is the confidence under which image OCR output is
// considered too weak to trust on its own.
const ImageConfidenceThreshold = 0.6

func (e *Engine) recognizeImage(ctx context.Context, path string) (Result, error) {
	txt, warn, err := e.tesseract(ctx, path)
	if err != nil {
		return Result{Warnings: warn}, err
	}
	txt = Normalize(txt)

	var ocrConf float32
	if e.cfg.EnableTSVConfidence {
		if c, err := e.tsvConfidence(ctx, path); err == nil {
			ocrConf = c
		} else {
			warn = append(warn, err.Error())
		}
	}

	return Result{
		Text:       txt,
		Pages:      1,
		Method:     "image-ocr",
		Language:   e.cfg.Lang,
		Warnings:   warn,
		Confidence: blendConfidence(ocrConf, HeuristicConfidence(txt)),
	}, nil
}

func (e *Engine) tesseract(ctx context.Context, path string) (string, []string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", e.cfg.Lang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}

// tsvConfidence runs tesseract in TSV mode and returns the mean word confidence in 0..1.
func (e *Engine) tsvConfidence(ctx context.Context, path string) (float32, error) {
	args := []string{path, "stdout", "-l", e.cfg.Lang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return 0, fmt.Errorf("tesseract tsv: %w", err)
	}
	return meanTSVConfidence(string(out)), nil
}

// meanTSVConfidence averages the conf column, skipping the header and -1 rows.
func meanTSVConfidence(tsv string) float32 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		c := cols[10]
		if c == "" || c == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(c, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / n / 100.0)
}
