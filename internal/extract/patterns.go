package extract

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatternsYAML []byte

// Field names used as keys in the pattern file.
const (
	FieldInvoiceNumber  = "invoice_number"
	FieldDate           = "date"
	FieldTotalAmount    = "total_amount"
	FieldTaxAmount      = "tax_amount"
	FieldTaxRate        = "tax_rate"
	FieldDiscountAmount = "discount_amount"
	FieldDiscountRate   = "discount_rate"
	FieldPartyName      = "party_name"
	FieldPhoneNumber    = "phone_number"
	FieldEmail          = "email"
	FieldAddress        = "address"
)

// Pattern is one labelled regular expression. Group 1 carries the value.
type Pattern struct {
	Label string
	Re    *regexp.Regexp
}

// SegmentPatterns drive the line-item segmenter.
type SegmentPatterns struct {
	Headers []Pattern
	End     []Pattern
	Columns []string
}

// PatternSet is the immutable configuration of the field extractors.
type PatternSet struct {
	fields  map[string][]Pattern
	Segment SegmentPatterns
}

// Field returns the ordered patterns for a field name.
func (p *PatternSet) Field(name string) []Pattern {
	return p.fields[name]
}

type patternSpec struct {
	Label   string `yaml:"label"`
	Pattern string `yaml:"pattern"`
}

type patternFile struct {
	Fields  map[string][]patternSpec `yaml:"fields"`
	Segment struct {
		Headers []patternSpec `yaml:"headers"`
		End     []patternSpec `yaml:"end"`
		Columns []string      `yaml:"columns"`
	} `yaml:"segment"`
}

var (
	defaultOnce sync.Once
	defaultSet  *PatternSet
)

// DefaultPatterns returns the built-in pattern tables.
func DefaultPatterns() *PatternSet {
	defaultOnce.Do(func() {
		var pf patternFile
		if err := yaml.Unmarshal(defaultPatternsYAML, &pf); err != nil {
			panic(fmt.Sprintf("extract: default patterns: %v", err))
		}
		set, err := compile(pf, nil)
		if err != nil {
			panic(fmt.Sprintf("extract: default patterns: %v", err))
		}
		defaultSet = set
	})
	return defaultSet
}

// LoadPatterns reads a YAML pattern file and overlays it on the defaults.
// A field or segment list present in the file replaces the default list
// entirely; absent ones keep the defaults.
func LoadPatterns(r io.Reader) (*PatternSet, error) {
	var pf patternFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}
	return compile(pf, DefaultPatterns())
}

// LoadPatternsFile is LoadPatterns over a file path. An empty path yields the defaults.
func LoadPatternsFile(path string) (*PatternSet, error) {
	if path == "" {
		return DefaultPatterns(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open patterns file: %w", err)
	}
	defer f.Close()
	return LoadPatterns(f)
}

func compile(pf patternFile, base *PatternSet) (*PatternSet, error) {
	out := &PatternSet{fields: map[string][]Pattern{}}
	if base != nil {
		for k, v := range base.fields {
			out.fields[k] = v
		}
		out.Segment = base.Segment
	}

	for name, specs := range pf.Fields {
		ps, err := compileList(name, specs)
		if err != nil {
			return nil, err
		}
		out.fields[name] = ps
	}
	if len(pf.Segment.Headers) > 0 {
		ps, err := compileList("segment.headers", pf.Segment.Headers)
		if err != nil {
			return nil, err
		}
		out.Segment.Headers = ps
	}
	if len(pf.Segment.End) > 0 {
		ps, err := compileList("segment.end", pf.Segment.End)
		if err != nil {
			return nil, err
		}
		out.Segment.End = ps
	}
	if len(pf.Segment.Columns) > 0 {
		out.Segment.Columns = append([]string(nil), pf.Segment.Columns...)
	}
	return out, nil
}

func compileList(name string, specs []patternSpec) ([]Pattern, error) {
	out := make([]Pattern, 0, len(specs))
	for i, s := range specs {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %s[%d] %q: %w", name, i, s.Label, err)
		}
		out = append(out, Pattern{Label: s.Label, Re: re})
	}
	return out, nil
}
