package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/ocr"
)

// runocr prints the OCR text of one image or scanned PDF, for tuning patterns.
func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <image-or-pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	engine := ocr.NewEngine(ocr.Config{
		Tesseract:   cfg.OCR.Tesseract,
		Pdftoppm:    cfg.OCR.Pdftoppm,
		Lang:        cfg.OCR.Lang,
		DPI:         cfg.OCR.DPI,
		MaxPages:    cfg.OCR.MaxPages,
		Concurrency: cfg.OCR.Concurrency,
		TessdataDir: cfg.OCR.TessdataDir,
	}, logger)

	res, err := engine.RecognizeFile(ctx, path)
	if err != nil {
		logger.Error("ocr.failed", "path", path, "error", err)
		os.Exit(1)
	}

	logger.Info("ocr.ok",
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"confidence", res.Confidence,
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
	fmt.Println(ocr.Normalize(res.Text))
}
