// Package extract finds document-level invoice fields in OCR or PDF text.
//
// Every extractor scans the lines top to bottom and returns the value of the
// first line that matches any of the field's patterns. Nothing here returns an
// error: a field that is not found yields its sentinel.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saikiran76/SwipeAI/internal/entity"
)

// Unknown is the sentinel for string fields that were not found.
const Unknown = "unknown"

// Extractor applies a PatternSet to a line corpus.
type Extractor struct {
	patterns *PatternSet
	now      func() time.Time
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithClock fixes the clock used for the date fallback.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// New builds an Extractor. A nil PatternSet selects DefaultPatterns.
func New(patterns *PatternSet, opts ...Option) *Extractor {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	e := &Extractor{patterns: patterns, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Patterns exposes the configuration the extractor was built with.
func (e *Extractor) Patterns() *PatternSet { return e.patterns }

// SplitLines turns raw text into trimmed, non-empty lines.
func SplitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(strings.Trim(l, "\f"))
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Fields runs every extractor over lines.
func (e *Extractor) Fields(lines []string) entity.DocumentFields {
	return entity.DocumentFields{
		InvoiceNumber:  e.InvoiceNumber(lines),
		Date:           e.Date(lines),
		TotalAmount:    e.TotalAmount(lines),
		TaxAmount:      e.TaxAmount(lines),
		TaxRate:        e.TaxRate(lines),
		DiscountAmount: e.DiscountAmount(lines),
		DiscountRate:   e.DiscountRate(lines),
		PartyName:      e.PartyName(lines),
		PhoneNumber:    e.PhoneNumber(lines),
		Email:          e.Email(lines),
		Address:        e.Address(lines),
	}
}

func (e *Extractor) InvoiceNumber(lines []string) string {
	if v, ok := e.first(FieldInvoiceNumber, lines); ok {
		return v
	}
	return Unknown
}

// Date falls back to today's date (YYYY-MM-DD) when no date is printed.
func (e *Extractor) Date(lines []string) string {
	if v, ok := e.first(FieldDate, lines); ok {
		return v
	}
	return e.now().Format("2006-01-02")
}

func (e *Extractor) TotalAmount(lines []string) decimal.Decimal {
	return e.number(FieldTotalAmount, lines)
}

func (e *Extractor) TaxAmount(lines []string) decimal.Decimal {
	return e.number(FieldTaxAmount, lines)
}

// TaxRate returns the percentage, so 18% is 18.
func (e *Extractor) TaxRate(lines []string) decimal.Decimal {
	return e.number(FieldTaxRate, lines)
}

func (e *Extractor) DiscountAmount(lines []string) decimal.Decimal {
	return e.number(FieldDiscountAmount, lines)
}

func (e *Extractor) DiscountRate(lines []string) decimal.Decimal {
	return e.number(FieldDiscountRate, lines)
}

func (e *Extractor) PartyName(lines []string) string {
	if v, ok := e.first(FieldPartyName, lines); ok {
		return v
	}
	return Unknown
}

// PhoneNumber, Email and Address are optional contact fields; "" when absent.
func (e *Extractor) PhoneNumber(lines []string) string {
	v, _ := e.first(FieldPhoneNumber, lines)
	return v
}

func (e *Extractor) Email(lines []string) string {
	v, _ := e.first(FieldEmail, lines)
	return v
}

func (e *Extractor) Address(lines []string) string {
	v, _ := e.first(FieldAddress, lines)
	return v
}

// first implements first-match-wins: the outer loop is over lines, so an
// earlier line matching a weaker pattern beats a later line matching a
// stronger one.
func (e *Extractor) first(field string, lines []string) (string, bool) {
	patterns := e.patterns.Field(field)
	for _, line := range lines {
		for _, p := range patterns {
			m := p.Re.FindStringSubmatch(line)
			if len(m) < 2 {
				continue
			}
			if v := strings.TrimSpace(m[1]); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func (e *Extractor) number(field string, lines []string) decimal.Decimal {
	v, ok := e.first(field, lines)
	if !ok {
		return decimal.Zero
	}
	return ParseAmount(v)
}

var reNumber = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// ParseAmount parses the first number in s. Thousands separators, currency
// marks and a trailing percent sign are ignored. Unparseable input yields zero.
func ParseAmount(s string) decimal.Decimal {
	m := reNumber.FindString(s)
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}
