package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/SwipeAI/constants"
	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/llm"
	"github.com/saikiran76/SwipeAI/internal/metrics"
	"github.com/saikiran76/SwipeAI/internal/ocr"
	"github.com/saikiran76/SwipeAI/internal/pdftext"
	"github.com/saikiran76/SwipeAI/internal/pipeline"
	"github.com/saikiran76/SwipeAI/internal/repository"
	"github.com/saikiran76/SwipeAI/internal/resilience"
)

const modelReply = `{"Invoice number":"INV-9","Date":"2024-02-02","Tax amount":"18","Party name":"Globex",
"Product names":["Lamp"],"Unit Amount":["100"],"Quantity":["1"]}`

type fakeOCR struct {
	text  string
	err   error
	calls atomic.Int32
}

func (f *fakeOCR) RecognizeText(context.Context, []byte, string) (ocr.Result, error) {
	f.calls.Add(1)
	return ocr.Result{Text: f.text, Confidence: 0.9}, f.err
}

func (f *fakeOCR) RecognizePDF(context.Context, []byte) (ocr.Result, error) {
	f.calls.Add(1)
	return ocr.Result{Text: f.text, Confidence: 0.8, Warnings: []string{"page 2: blank"}}, f.err
}

type fakePDF struct{ text string }

func (f fakePDF) ExtractText(context.Context, []byte) (pdftext.Result, error) {
	return pdftext.Result{Text: f.text, Pages: 1, Method: "pdf-text"}, nil
}

// scriptedGenerator replies from a script, repeating the last entry.
type scriptedGenerator struct {
	replies []string
	errs    []error
	calls   atomic.Int32
	last    llm.GenerateRequest
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	i := int(g.calls.Add(1)) - 1
	g.last = req
	var err error
	if len(g.errs) > 0 {
		err = g.errs[min(i, len(g.errs)-1)]
	}
	if err != nil {
		return "", err
	}
	return g.replies[min(i, len(g.replies)-1)], nil
}

type mockJournal struct{ mock.Mock }

func (m *mockJournal) EnsureSchema(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockJournal) Start(ctx context.Context, hash, path, format, method string) (*repository.Run, error) {
	args := m.Called(ctx, hash, path, format, method)
	run, _ := args.Get(0).(*repository.Run)
	return run, args.Error(1)
}

func (m *mockJournal) FinishSuccess(ctx context.Context, id uuid.UUID, method string, counts repository.Counts) error {
	return m.Called(ctx, id, method, counts).Error(0)
}

func (m *mockJournal) FinishFailure(ctx context.Context, id uuid.UUID, code, message string) error {
	return m.Called(ctx, id, code, message).Error(0)
}

func (m *mockJournal) LatestSucceeded(ctx context.Context, hash string) (*repository.Run, error) {
	args := m.Called(ctx, hash)
	run, _ := args.Get(0).(*repository.Run)
	return run, args.Error(1)
}

func fastExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2,
	}, nil)
}

func newProcessor(t *testing.T, deps pipeline.Deps) *pipeline.Processor {
	t.Helper()
	if deps.Normalizer == nil {
		deps.Normalizer = newNormalizer(t, true)
	}
	if deps.Executor == nil {
		deps.Executor = fastExecutor()
	}
	return pipeline.NewProcessor(deps, nil)
}

func TestProcess_ScannedImageUsesOCR(t *testing.T) {
	o := &fakeOCR{text: invoiceText}
	p := newProcessor(t, pipeline.Deps{OCR: o})

	out, err := p.ProcessBytes(context.Background(), []byte("png"), "bill.png", constants.MethodAuto)
	require.NoError(t, err)
	assert.Equal(t, constants.MethodRegex, out.Method)
	assert.Equal(t, pipeline.SourceOCR, out.Source)
	assert.InDelta(t, 0.9, out.Confidence, 1e-6)
	assert.NotEmpty(t, out.RunID)
	require.Len(t, out.Data.Products, 1)
	assert.Contains(t, out.Data.Invoices[0].SerialNumber, "INV-1001")
}

func TestProcess_PDFTextLayerSkipsOCR(t *testing.T) {
	o := &fakeOCR{text: "should not be used"}
	p := newProcessor(t, pipeline.Deps{OCR: o, PDF: fakePDF{text: invoiceText}})

	out, err := p.ProcessBytes(context.Background(), []byte("%PDF"), "bill.pdf", constants.MethodRegex)
	require.NoError(t, err)
	assert.Equal(t, pipeline.SourcePDFText, out.Source)
	assert.Zero(t, o.calls.Load())
}

func TestProcess_ScannedPDFFallsBackToOCR(t *testing.T) {
	o := &fakeOCR{text: invoiceText}
	p := newProcessor(t, pipeline.Deps{OCR: o, PDF: fakePDF{text: "  "}})

	out, err := p.ProcessBytes(context.Background(), []byte("%PDF"), "scan.pdf", constants.MethodRegex)
	require.NoError(t, err)
	assert.Equal(t, pipeline.SourceOCR, out.Source)
	assert.Equal(t, []string{"page 2: blank"}, out.Warnings)
}

func TestProcess_ModelRetriesMalformedReply(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"sorry, no JSON here", modelReply}}
	p := newProcessor(t, pipeline.Deps{Generator: gen})

	out, err := p.ProcessBytes(context.Background(), []byte("jpeg"), "photo.jpg", constants.MethodLLM)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gen.calls.Load())
	assert.Equal(t, constants.MethodLLM, out.Method)
	assert.Equal(t, "llm:scripted", out.Source)
	assert.Equal(t, "Globex", out.Data.Customers[0].Name)
	assert.Equal(t, "118.00", out.Data.Products[0].PriceWithTax)
	assert.Equal(t, []byte("jpeg"), gen.last.Document)
}

func TestProcess_AutoFallsBackToOCRWhenModelFails(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{&llm.HTTPStatusError{Provider: "scripted", StatusCode: 400}}}
	o := &fakeOCR{text: invoiceText}
	m := metrics.NewProcessorMetrics("test")
	p := newProcessor(t, pipeline.Deps{Generator: gen, OCR: o, Metrics: m})

	out, err := p.ProcessBytes(context.Background(), []byte("png"), "bill.png", constants.MethodAuto)
	require.NoError(t, err)
	assert.Equal(t, int32(1), gen.calls.Load(), "4xx is not retried")
	assert.Equal(t, constants.MethodRegex, out.Method)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "extraction model failed")
}

func TestProcess_LLMMethodWithoutModel(t *testing.T) {
	p := newProcessor(t, pipeline.Deps{})
	_, err := p.ProcessBytes(context.Background(), []byte("x"), "a.png", constants.MethodLLM)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestProcess_Spreadsheet(t *testing.T) {
	csv := "Customer Name,Product,Qty,Unit Price,Total Amount\nAcme,Bolt,10,2.50,25.00\nAcme,Nut,5,1.00,5.00\n"
	p := newProcessor(t, pipeline.Deps{})

	out, err := p.ProcessBytes(context.Background(), []byte(csv), "orders.csv", constants.MethodLLM)
	require.NoError(t, err)
	assert.Equal(t, pipeline.SourceSheet, out.Source)
	require.Len(t, out.Data.Customers, 1)
	assert.Equal(t, "30.00", out.Data.Customers[0].TotalPurchaseAmount)
}

func TestProcess_PlainText(t *testing.T) {
	p := newProcessor(t, pipeline.Deps{})
	out, err := p.ProcessBytes(context.Background(), []byte(invoiceText), "bill.txt", constants.MethodRegex)
	require.NoError(t, err)
	assert.Equal(t, pipeline.SourcePlain, out.Source)
}

func TestProcess_UnsupportedType(t *testing.T) {
	p := newProcessor(t, pipeline.Deps{})
	_, err := p.ProcessBytes(context.Background(), []byte("x"), "archive.zip", constants.MethodAuto)
	assert.ErrorIs(t, err, common.ErrUnsupportedInput)
}

func TestProcess_JournalRecordsOutcome(t *testing.T) {
	runID := uuid.New()
	j := &mockJournal{}
	j.On("Start", mock.Anything, mock.AnythingOfType("string"), "bill.png", "IMAGE", "regex").
		Return(&repository.Run{ID: runID}, nil).Twice()
	j.On("FinishSuccess", mock.Anything, runID, "regex", repository.Counts{Invoices: 1, Products: 1, Customers: 1}).
		Return(nil).Once()
	j.On("FinishFailure", mock.Anything, runID, common.CodeNoTextExtracted, mock.Anything).
		Return(nil).Once()

	o := &fakeOCR{text: invoiceText}
	p := newProcessor(t, pipeline.Deps{OCR: o, Journal: j})

	out, err := p.ProcessBytes(context.Background(), []byte("png"), "bill.png", constants.MethodRegex)
	require.NoError(t, err)
	assert.Equal(t, runID.String(), out.RunID)

	o.text = ""
	_, err = p.ProcessBytes(context.Background(), []byte("png"), "bill.png", constants.MethodRegex)
	assert.ErrorIs(t, err, common.ErrNoTextExtracted)

	j.AssertExpectations(t)
}

func TestProcess_LogsCarryJournalRunID(t *testing.T) {
	runID := uuid.New()
	j := &mockJournal{}
	j.On("Start", mock.Anything, mock.AnythingOfType("string"), "bill.png", "IMAGE", "regex").
		Return(&repository.Run{ID: runID}, nil).Once()
	j.On("FinishSuccess", mock.Anything, runID, "regex", mock.Anything).Return(nil).Once()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := pipeline.NewProcessor(pipeline.Deps{
		OCR:        &fakeOCR{text: invoiceText},
		Journal:    j,
		Normalizer: newNormalizer(t, true),
		Executor:   fastExecutor(),
	}, logger)

	out, err := p.ProcessBytes(context.Background(), []byte("png"), "bill.png", constants.MethodRegex)
	require.NoError(t, err)
	require.Equal(t, runID.String(), out.RunID)

	var sawFinal bool
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		if rec["msg"] != "pipeline.process.ok" {
			continue
		}
		sawFinal = true
		assert.Equal(t, out.RunID, rec["run_id"])
	}
	assert.True(t, sawFinal)
	j.AssertExpectations(t)
}

func TestProcess_OCRFailureIsWrapped(t *testing.T) {
	boom := errors.New("tesseract missing")
	p := newProcessor(t, pipeline.Deps{OCR: &fakeOCR{err: boom}})
	_, err := p.ProcessBytes(context.Background(), []byte("png"), "bill.png", constants.MethodRegex)
	assert.ErrorIs(t, err, boom)
}
