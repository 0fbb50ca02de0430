package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/saikiran76/SwipeAI/constants"
	"github.com/saikiran76/SwipeAI/internal/app"
	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/export"
	"github.com/saikiran76/SwipeAI/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	var (
		in       = flag.String("in", "", "invoice file or directory of files (required)")
		method   = flag.String("method", string(constants.MethodAuto), "extraction method: auto, regex or llm")
		out      = flag.String("out", "", "output path (.json or .xlsx); stdout JSON when empty")
		strict   = flag.Bool("strict", cfg.Extract.Strict, "validate against the strict schema")
		patterns = flag.String("patterns", cfg.Extract.PatternsFile, "YAML file overriding the extraction patterns")
		provider = flag.String("llm", cfg.LLM.Provider, "extraction model provider: openai, ollama or none")
		journal  = flag.String("journal", "none", "journal driver: sqlite, postgres or none")
	)
	flag.Parse()

	if *in == "" {
		printError("Error: --in is required\n")
		os.Exit(1)
	}
	m := constants.Method(strings.ToLower(*method))
	if !m.Valid() {
		printError("Error: unknown --method %q\n", *method)
		os.Exit(1)
	}
	cfg.Extract.Strict = *strict
	cfg.Extract.PatternsFile = *patterns
	cfg.LLM.Provider = strings.ToLower(*provider)
	cfg.Journal.Driver = strings.ToLower(*journal)

	// logs go to stderr so stdout stays clean JSON
	logger := common.NewLogger(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(logger)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, "invoice-extract", logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	files, err := inputs(*in)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	var merged entity.ExtractedData
	failed := 0
	for _, f := range files {
		res, err := a.Processor.ProcessFile(ctx, f, m)
		if err != nil {
			failed++
			printError("%s: [%s] %v\n", f, common.ErrorKind(err), err)
			continue
		}
		for _, w := range res.Warnings {
			logger.Warn("extract.warning", "file", f, "warning", w)
		}
		merged.Invoices = append(merged.Invoices, res.Data.Invoices...)
		merged.Products = append(merged.Products, res.Data.Products...)
		merged.Customers = append(merged.Customers, res.Data.Customers...)
	}
	if failed == len(files) {
		os.Exit(2)
	}

	if err := write(*out, merged, logger); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(3)
	}
}

func inputs(path string) ([]string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return []string{path}, nil
	}
	files, stats, err := ingest.ScanDirectory(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported files in %s (scanned %d)", path, stats.Scanned)
	}
	return files, nil
}

func write(out string, data entity.ExtractedData, logger *slog.Logger) error {
	if strings.EqualFold(filepath.Ext(out), ".xlsx") {
		b, err := export.NewService(logger).WorkbookXLSX(data)
		if err != nil {
			return err
		}
		return os.WriteFile(out, b, 0o644)
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	b = append(b, '\n')
	if out == "" {
		_, err = os.Stdout.Write(b)
		return err
	}
	return os.WriteFile(out, b, 0o644)
}
