// Package pipeline turns raw extraction output into a validated invoice graph.
//
// Normalizer is the pure part: text, machine responses and spreadsheet rows
// in, ExtractedData out. Processor drives the collaborators (PDF text layer,
// OCR, extraction model, spreadsheet decoder) for a file and owns the
// caller-level policy: bounded model retries and the fallback to OCR.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saikiran76/SwipeAI/constants"
	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/extract"
	"github.com/saikiran76/SwipeAI/internal/idgen"
	"github.com/saikiran76/SwipeAI/internal/llm"
	"github.com/saikiran76/SwipeAI/internal/relations"
	"github.com/saikiran76/SwipeAI/internal/schema"
	"github.com/saikiran76/SwipeAI/internal/segment"
	"github.com/saikiran76/SwipeAI/internal/tax"
)

// Input is one raw input and the kind that says how to read it.
type Input struct {
	Kind constants.SourceKind
	Text string       // TEXT and MACHINE
	Rows []entity.Row // ROWS
}

type NormalizerConfig struct {
	Patterns *extract.PatternSet // nil selects the built-in tables
	Strict   bool
	// NewIDs returns the id namespace of one run; nil selects uuid-based ids.
	NewIDs func() *idgen.IDs
	Now    func() time.Time
}

type Normalizer struct {
	cfg       NormalizerConfig
	extractor *extract.Extractor
	segmenter *segment.Segmenter
	validator *schema.Validator
	logger    *slog.Logger
}

func NewNormalizer(cfg NormalizerConfig, logger *slog.Logger) (*Normalizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Patterns == nil {
		cfg.Patterns = extract.DefaultPatterns()
	}
	if cfg.NewIDs == nil {
		cfg.NewIDs = func() *idgen.IDs { return idgen.New(nil) }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	v, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("schema validator: %w", err)
	}
	return &Normalizer{
		cfg:       cfg,
		extractor: extract.New(cfg.Patterns, extract.WithClock(cfg.Now)),
		segmenter: segment.New(cfg.Patterns.Segment),
		validator: v,
		logger:    logger,
	}, nil
}

// Normalize is the single entry point of the core.
func (n *Normalizer) Normalize(in Input) (entity.ExtractedData, error) {
	switch in.Kind {
	case constants.TEXT:
		return n.NormalizeText(in.Text)
	case constants.MACHINE:
		return n.NormalizeMachine(in.Text)
	case constants.ROWS:
		return n.NormalizeRows(in.Rows)
	default:
		return entity.ExtractedData{}, common.NewAppError(common.CodeUnsupportedInput,
			fmt.Sprintf("unknown source kind %q", in.Kind), common.ErrUnsupportedInput)
	}
}

// NormalizeText runs the pattern path over a line-oriented corpus.
func (n *Normalizer) NormalizeText(text string) (entity.ExtractedData, error) {
	lines := extract.SplitLines(text)
	if len(lines) == 0 {
		return entity.ExtractedData{}, common.NoTextExtracted("text input")
	}

	doc := n.extractor.Fields(lines)
	items := n.segmenter.Segment(lines)
	if len(items) == 0 {
		return entity.ExtractedData{}, common.NoProductsFound("no line items found in document text")
	}

	out := n.builder().BuildDocument(doc, tax.Allocate(items, aggregate(doc)))
	if err := n.validate(&out); err != nil {
		return entity.ExtractedData{}, err
	}
	n.logger.Debug("pipeline.normalize.ok", "kind", constants.TEXT, "lines", len(lines), "items", len(items))
	return out, nil
}

// NormalizeMachine parses a model reply. A reply that already has the graph
// shape is validated strictly and returned as is.
func (n *Normalizer) NormalizeMachine(raw string) (entity.ExtractedData, error) {
	resp, err := llm.Normalize(raw)
	if err != nil {
		return entity.ExtractedData{}, err
	}

	if resp.Graph != nil {
		out := *resp.Graph
		if err := n.validator.Strict(&out); err != nil {
			return entity.ExtractedData{}, err
		}
		n.logger.Debug("pipeline.normalize.ok", "kind", constants.MACHINE, "shape", "graph", "invoices", len(out.Invoices))
		return out, nil
	}

	doc := resp.Record.Document()
	if doc.Date == "" || strings.EqualFold(doc.Date, extract.Unknown) {
		doc.Date = n.cfg.Now().Format("2006-01-02")
	}
	items := resp.Record.LineItems()
	if len(items) == 0 {
		return entity.ExtractedData{}, common.NoProductsFound("machine response lists no products")
	}

	out := n.builder().BuildDocument(doc, tax.Allocate(items, aggregate(doc)))
	if err := n.validate(&out); err != nil {
		return entity.ExtractedData{}, err
	}
	n.logger.Debug("pipeline.normalize.ok", "kind", constants.MACHINE, "shape", "record", "items", len(items))
	return out, nil
}

// NormalizeRows links decoded spreadsheet rows.
func (n *Normalizer) NormalizeRows(rows []entity.Row) (entity.ExtractedData, error) {
	if len(rows) == 0 {
		return entity.ExtractedData{}, common.NoProductsFound("spreadsheet has no rows")
	}
	out := n.builder().BuildRows(rows)
	if err := n.validate(&out); err != nil {
		return entity.ExtractedData{}, err
	}
	n.logger.Debug("pipeline.normalize.ok", "kind", constants.ROWS, "rows", len(rows), "customers", len(out.Customers))
	return out, nil
}

func (n *Normalizer) builder() *relations.Builder {
	return relations.New(n.cfg.NewIDs(), relations.WithClock(n.cfg.Now))
}

func (n *Normalizer) validate(data *entity.ExtractedData) error {
	if n.cfg.Strict {
		return n.validator.Strict(data)
	}
	return n.validator.Lenient(data)
}

func aggregate(doc entity.DocumentFields) tax.Aggregate {
	return tax.Aggregate{
		TaxAmount:      doc.TaxAmount,
		TaxRate:        doc.TaxRate,
		DiscountAmount: doc.DiscountAmount,
		DiscountRate:   doc.DiscountRate,
	}
}
