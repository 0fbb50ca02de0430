package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/saikiran76/SwipeAI/constants"
	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/llm"
	"github.com/saikiran76/SwipeAI/internal/metrics"
	"github.com/saikiran76/SwipeAI/internal/ocr"
	"github.com/saikiran76/SwipeAI/internal/pdftext"
	"github.com/saikiran76/SwipeAI/internal/repository"
	"github.com/saikiran76/SwipeAI/internal/resilience"
	"github.com/saikiran76/SwipeAI/internal/sheet"
	"github.com/saikiran76/SwipeAI/internal/textenc"
)

// Sources reported in Outcome.Source.
const (
	SourcePDFText = "pdf-text"
	SourceOCR     = "ocr"
	SourceSheet   = "sheet"
	SourcePlain   = "plaintext"
	SourceLLM     = "llm"
)

// TextRecognizer is the OCR collaborator.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, image []byte, filename string) (ocr.Result, error)
	RecognizePDF(ctx context.Context, pdf []byte) (ocr.Result, error)
}

// PDFTextReader is the extractText(pdfBytes) collaborator.
type PDFTextReader interface {
	ExtractText(ctx context.Context, pdf []byte) (pdftext.Result, error)
}

// Deps are the collaborators of a Processor. Generator, Journal and Metrics
// may be nil.
type Deps struct {
	Normalizer *Normalizer
	OCR        TextRecognizer
	PDF        PDFTextReader
	Generator  llm.Generator
	Executor   *resilience.Executor
	Limiter    *rate.Limiter
	Journal    repository.JournalRepository
	Metrics    *metrics.ProcessorMetrics
}

// Outcome is the result of processing one file.
type Outcome struct {
	RunID      string
	Data       entity.ExtractedData
	Method     constants.Method // method that produced Data
	Source     string
	Confidence float32
	Warnings   []string
}

type Processor struct {
	deps   Deps
	logger *slog.Logger
}

func NewProcessor(deps Deps, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Executor == nil {
		deps.Executor = resilience.NewExecutor(resilience.DefaultConfig(), logger)
	}
	if deps.Limiter == nil {
		deps.Limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Processor{deps: deps, logger: logger}
}

// ProcessFile reads path and processes it.
func (p *Processor) ProcessFile(ctx context.Context, path string, method constants.Method) (Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("read file: %w", err)
	}
	return p.ProcessBytes(ctx, data, path, method)
}

// ProcessBytes runs one document through extraction and normalization.
//
// MethodAuto asks the extraction model first when one is configured and
// falls back to the text layer / OCR path if generation or normalization
// fails. MethodLLM never falls back. Spreadsheets ignore the method.
func (p *Processor) ProcessBytes(ctx context.Context, data []byte, filename string, method constants.Method) (out Outcome, err error) {
	if method == "" {
		method = constants.MethodAuto
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	format := constants.MapExtToFormat(filepath.Ext(filename))

	ctx = common.WithContentHash(ctx, hash)

	if p.deps.Metrics != nil {
		p.deps.Metrics.StartDocument()
	}
	start := time.Now()

	// the journal row id, when there is one, is the run id
	runID := uuid.NewString()
	var journalID uuid.UUID
	if p.deps.Journal != nil {
		run, jerr := p.deps.Journal.Start(ctx, hash, filename, string(format), string(method))
		if jerr != nil {
			p.logger.Warn("pipeline.journal.start_failed", "content_hash", hash, "error", jerr)
		} else {
			journalID = run.ID
			runID = run.ID.String()
		}
	}
	ctx = common.WithRunID(ctx, runID)
	logger := common.LoggerWithRun(ctx, p.logger)

	defer func() {
		out.RunID = runID
		items := len(out.Data.Products)
		if p.deps.Metrics != nil {
			p.deps.Metrics.FinishDocument(string(method), time.Since(start), items, err)
		}
		p.finishJournal(ctx, journalID, out, err, logger)
		if err != nil {
			logger.Error("pipeline.process.failed", "file", filename, "kind", common.ErrorKind(err), "error", err,
				"elapsed_ms", time.Since(start).Milliseconds())
			return
		}
		logger.Info("pipeline.process.ok",
			"file", filename,
			"method", out.Method,
			"source", out.Source,
			"invoices", len(out.Data.Invoices),
			"customers", len(out.Data.Customers),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}()

	switch format {
	case constants.SPREADSHEET:
		return p.spreadsheet(data, filename)
	case constants.PLAINTEXT, constants.PDF, constants.IMAGE:
	default:
		return Outcome{}, common.NewAppError(common.CodeUnsupportedInput,
			fmt.Sprintf("unsupported file type %q", filepath.Ext(filename)), common.ErrUnsupportedInput)
	}

	switch method {
	case constants.MethodRegex:
		return p.regex(ctx, data, filename, format)
	case constants.MethodLLM:
		if p.deps.Generator == nil {
			return Outcome{}, common.NewAppError(common.CodeInvalidInput, "method llm requires an extraction model", common.ErrInvalidInput)
		}
		return p.model(ctx, data, filename, format)
	case constants.MethodAuto:
		if p.deps.Generator == nil {
			return p.regex(ctx, data, filename, format)
		}
		res, lerr := p.model(ctx, data, filename, format)
		if lerr == nil {
			return res, nil
		}
		logger.Warn("pipeline.fallback", "from", constants.MethodLLM, "to", constants.MethodRegex, "error", lerr)
		if p.deps.Metrics != nil {
			p.deps.Metrics.Fallback(string(constants.MethodLLM), string(constants.MethodRegex))
		}
		res, err := p.regex(ctx, data, filename, format)
		if err != nil {
			return Outcome{}, err
		}
		res.Warnings = append(res.Warnings, "extraction model failed: "+lerr.Error())
		return res, nil
	default:
		return Outcome{}, common.NewAppError(common.CodeInvalidInput, fmt.Sprintf("unknown method %q", method), common.ErrInvalidInput)
	}
}

func (p *Processor) spreadsheet(data []byte, filename string) (Outcome, error) {
	rows, err := sheet.ToRows(data, filename)
	if err != nil {
		return Outcome{}, err
	}
	res, err := p.deps.Normalizer.NormalizeRows(rows)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Data: res, Method: constants.MethodRegex, Source: SourceSheet, Confidence: 1}, nil
}

// regex obtains text (plain text, PDF text layer, or OCR) and runs the pattern path.
func (p *Processor) regex(ctx context.Context, data []byte, filename string, format constants.FileFormat) (Outcome, error) {
	text, source, conf, warnings, err := p.text(ctx, data, filename, format)
	if err != nil {
		return Outcome{}, err
	}
	res, err := p.deps.Normalizer.NormalizeText(text)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Data: res, Method: constants.MethodRegex, Source: source, Confidence: conf, Warnings: warnings}, nil
}

func (p *Processor) text(ctx context.Context, data []byte, filename string, format constants.FileFormat) (string, string, float32, []string, error) {
	switch format {
	case constants.PLAINTEXT:
		s, err := textenc.DecodeString(data)
		if err != nil {
			return "", "", 0, nil, err
		}
		if strings.TrimSpace(s) == "" {
			return "", "", 0, nil, common.NoTextExtracted(SourcePlain)
		}
		return s, SourcePlain, 1, nil, nil

	case constants.PDF:
		if p.deps.PDF != nil {
			res, err := p.deps.PDF.ExtractText(ctx, data)
			if err == nil && res.HasText() {
				return res.Text, SourcePDFText, 1, nil, nil
			}
			if err != nil {
				p.logger.Warn("pipeline.pdftext.failed", "error", err)
			}
		}
		if p.deps.OCR == nil {
			return "", "", 0, nil, common.NoTextExtracted(SourcePDFText)
		}
		res, err := p.deps.OCR.RecognizePDF(ctx, data)
		if err != nil {
			return "", "", 0, nil, fmt.Errorf("ocr pdf: %w", err)
		}
		return ocrText(res)

	default:
		if p.deps.OCR == nil {
			return "", "", 0, nil, common.NoTextExtracted(SourceOCR)
		}
		res, err := p.deps.OCR.RecognizeText(ctx, data, filename)
		if err != nil {
			return "", "", 0, nil, fmt.Errorf("ocr image: %w", err)
		}
		return ocrText(res)
	}
}

func ocrText(res ocr.Result) (string, string, float32, []string, error) {
	text := ocr.Normalize(res.Text)
	if strings.TrimSpace(text) == "" {
		return "", "", 0, res.Warnings, common.NoTextExtracted(SourceOCR)
	}
	return text, SourceOCR, res.Confidence, res.Warnings, nil
}

// model asks the extraction model and normalizes its reply. Transport
// failures and malformed replies are retried by the executor; every attempt
// waits for the rate limiter.
func (p *Processor) model(ctx context.Context, data []byte, filename string, format constants.FileFormat) (Outcome, error) {
	req := llm.GenerateRequest{
		Prompt:   llm.BuildPrompt(),
		MIMEType: llm.DetectMIME(filename, data),
		Filename: filepath.Base(filename),
	}
	switch format {
	case constants.IMAGE:
		req.Document = data
	case constants.PDF:
		// scanned PDFs carry no text for the model; the caller falls back to OCR
		if p.deps.PDF == nil {
			return Outcome{}, common.NoTextExtracted(SourcePDFText)
		}
		res, err := p.deps.PDF.ExtractText(ctx, data)
		if err != nil {
			return Outcome{}, err
		}
		if !res.HasText() {
			return Outcome{}, common.NoTextExtracted(SourcePDFText)
		}
		req.Text = res.Text
	default:
		s, err := textenc.DecodeString(data)
		if err != nil {
			return Outcome{}, err
		}
		req.Text = s
	}

	gen := p.deps.Generator
	var res entity.ExtractedData
	err := p.deps.Executor.Execute(ctx, "llm.generate."+gen.Name(), func(ctx context.Context) error {
		if err := p.deps.Limiter.Wait(ctx); err != nil {
			return err
		}
		raw, err := gen.Generate(ctx, req)
		if err != nil {
			return err
		}
		res, err = p.deps.Normalizer.NormalizeMachine(raw)
		return err
	}, classifyModel)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Data: res, Method: constants.MethodLLM, Source: SourceLLM + ":" + gen.Name()}, nil
}

// classifyModel extends llm.Classify: a malformed reply is worth asking
// again, but says nothing about the endpoint's health.
func classifyModel(err error) resilience.ErrorClassification {
	if errors.Is(err, common.ErrMalformedMachineResponse) {
		return resilience.ErrorClassification{Retryable: true}
	}
	if errors.Is(err, common.ErrNoProductsFound) || errors.Is(err, common.ErrSchemaViolation) ||
		errors.Is(err, common.ErrRelationshipViolation) {
		return resilience.ErrorClassification{}
	}
	return llm.Classify(err)
}

func (p *Processor) finishJournal(ctx context.Context, id uuid.UUID, out Outcome, err error, logger *slog.Logger) {
	if p.deps.Journal == nil || id == uuid.Nil {
		return
	}
	// the run context may already be cancelled; the journal row must still close
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var jerr error
	if err != nil {
		jerr = p.deps.Journal.FinishFailure(jctx, id, common.ErrorKind(err), err.Error())
	} else {
		jerr = p.deps.Journal.FinishSuccess(jctx, id, string(out.Method), repository.Counts{
			Invoices:  len(out.Data.Invoices),
			Products:  len(out.Data.Products),
			Customers: len(out.Data.Customers),
		})
	}
	if jerr != nil {
		logger.Warn("pipeline.journal.finish_failed", "run_id", id, "error", jerr)
	}
}
