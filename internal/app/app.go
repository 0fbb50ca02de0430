// Package app wires configuration into a ready Processor.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/extract"
	"github.com/saikiran76/SwipeAI/internal/llm"
	"github.com/saikiran76/SwipeAI/internal/llm/ollama"
	"github.com/saikiran76/SwipeAI/internal/llm/openai"
	"github.com/saikiran76/SwipeAI/internal/metrics"
	"github.com/saikiran76/SwipeAI/internal/ocr"
	"github.com/saikiran76/SwipeAI/internal/pdftext"
	"github.com/saikiran76/SwipeAI/internal/pipeline"
	"github.com/saikiran76/SwipeAI/internal/repository"
	"github.com/saikiran76/SwipeAI/internal/resilience"
)

// App holds the wired components. Journal and DB are nil when the journal is disabled.
type App struct {
	Processor *pipeline.Processor
	Metrics   *metrics.ProcessorMetrics
	Journal   repository.JournalRepository
	DB        *repository.DB
	logger    *slog.Logger
}

// New builds an App from cfg. service labels the metrics.
func New(ctx context.Context, cfg *common.Config, service string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	patterns, err := extract.LoadPatternsFile(cfg.Extract.PatternsFile)
	if err != nil {
		return nil, err
	}
	norm, err := pipeline.NewNormalizer(pipeline.NormalizerConfig{
		Patterns: patterns,
		Strict:   cfg.Extract.Strict,
	}, logger)
	if err != nil {
		return nil, err
	}

	runner := ocr.ExecRunner{Logger: logger}
	if cfg.OCR.Concurrency > 1 {
		// pages already run in parallel; keep tesseract single-threaded per page
		runner.Env = []string{"OMP_THREAD_LIMIT=1"}
	}
	engine := ocr.NewEngine(ocr.Config{
		Tesseract:   cfg.OCR.Tesseract,
		Pdftoppm:    cfg.OCR.Pdftoppm,
		Lang:        cfg.OCR.Lang,
		DPI:         cfg.OCR.DPI,
		MaxPages:    cfg.OCR.MaxPages,
		Concurrency: cfg.OCR.Concurrency,
		TessdataDir: cfg.OCR.TessdataDir,
	}, logger, ocr.WithRunner(runner))
	pdf := pdftext.New(pdftext.Config{Pdftotext: cfg.OCR.Pdftotext}, runner, logger)

	a := &App{Metrics: metrics.NewProcessorMetrics(service), logger: logger}

	if cfg.Journal.Driver != "" && cfg.Journal.Driver != "none" {
		db, err := repository.Open(ctx, repository.Config{
			Driver:      repository.Dialect(cfg.Journal.Driver),
			DSN:         cfg.Journal.DSN,
			MaxConns:    cfg.Journal.MaxConns,
			DialTimeout: cfg.Journal.DialTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		journal := repository.NewJournalRepository(db.SQL, db.Dialect, logger)
		if err := journal.EnsureSchema(ctx); err != nil {
			db.Close(logger)
			return nil, err
		}
		a.DB, a.Journal = db, journal
	}

	rcfg := resilience.DefaultConfig()
	if cfg.LLM.MaxAttempts > 0 {
		rcfg.MaxAttempts = cfg.LLM.MaxAttempts
	}
	limit := rate.Inf
	if cfg.LLM.RPS > 0 {
		limit = rate.Limit(cfg.LLM.RPS)
	}

	a.Processor = pipeline.NewProcessor(pipeline.Deps{
		Normalizer: norm,
		OCR:        engine,
		PDF:        pdf,
		Generator:  Generator(cfg.LLM, logger),
		Executor:   resilience.NewExecutor(rcfg, logger),
		Limiter:    rate.NewLimiter(limit, 1),
		Journal:    a.Journal,
		Metrics:    a.Metrics,
	}, logger)
	return a, nil
}

// Generator returns the configured extraction model, or nil when none is.
func Generator(cfg common.LLMConfig, logger *slog.Logger) llm.Generator {
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
	case "ollama":
		return ollama.New(ollama.Config{BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: cfg.Timeout}, logger)
	default:
		return nil
	}
}

// Close releases the journal connection.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close(a.logger)
	}
}

// Ready reports whether the journal, if any, answers within timeout.
func (a *App) Ready(ctx context.Context, timeout time.Duration) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.HealthCheck(ctx, timeout)
}
