// Package segment locates the line-item table in document text and splits it
// into per-product records.
package segment

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/extract"
)

// UnknownProduct names a line whose description is empty once numbers are removed.
const UnknownProduct = entity.UnknownProduct

var (
	// numeric token: 1,234.56 | 1234.56 | 12
	reToken = regexp.MustCompile(`\b(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?\b`)
	// fallback: decimals with a mandatory fraction
	reFraction = regexp.MustCompile(`[\d,]+\.\d+`)
	reSpaces   = regexp.MustCompile(`\s+`)
)

// Segmenter splits a line corpus into line items.
type Segmenter struct {
	headers []extract.Pattern
	end     []extract.Pattern
	columns []string
}

// New builds a Segmenter from the segment section of a PatternSet.
func New(p extract.SegmentPatterns) *Segmenter {
	return &Segmenter{headers: p.Headers, end: p.End, columns: p.Columns}
}

// Segment returns the line items found after the first section header.
// It returns an empty slice when there is no header or no parseable line;
// deciding whether that is fatal is up to the caller.
func (s *Segmenter) Segment(lines []string) []entity.LineItem {
	items := []entity.LineItem{}

	start := s.sectionStart(lines)
	if start < 0 {
		return items
	}

	next := start + 1
	if next < len(lines) && s.isColumnHeader(lines[next]) {
		next++
	}

	for i := next; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		// a number-free row under the header is a column row such as
		// "Qty Rate Tax Amount", not the end of the table
		if i == start+1 && !reToken.MatchString(line) {
			continue
		}
		if s.isSectionEnd(line) {
			break
		}
		if line == "" {
			continue
		}
		if item, ok := parseLine(line); ok {
			items = append(items, item)
		}
	}
	return items
}

// sectionStart honours header priority: the first pattern that matches any
// line decides, even if a lower-priority header appears earlier.
func (s *Segmenter) sectionStart(lines []string) int {
	for _, h := range s.headers {
		for i, line := range lines {
			if h.Re.MatchString(line) {
				return i
			}
		}
	}
	return -1
}

func (s *Segmenter) isColumnHeader(line string) bool {
	if len(s.columns) == 0 {
		return false
	}
	tokens := strings.Fields(line)
	for _, col := range s.columns {
		found := false
		for _, tok := range tokens {
			if tok == col || extract.IsSimilar(tok, col) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *Segmenter) isSectionEnd(line string) bool {
	for _, p := range s.end {
		if p.Re.MatchString(line) {
			return true
		}
	}
	return false
}

func parseLine(line string) (entity.LineItem, bool) {
	spans := reToken.FindAllStringIndex(line, -1)

	// A leading integer followed by three more numbers is a row serial, not a quantity.
	var serial [][]int
	if len(spans) >= 4 && spans[0][0] == 0 && !strings.Contains(line[spans[0][0]:spans[0][1]], ".") {
		serial, spans = spans[:1], spans[1:]
	}

	if len(spans) >= 2 {
		qtySpan := spans[0]
		amounts := spans[1:]
		amountSpan := amounts[len(amounts)-1]

		qty := parseNumber(line[qtySpan[0]:qtySpan[1]])
		amount := parseNumber(line[amountSpan[0]:amountSpan[1]])
		remove := append([][]int{qtySpan, amountSpan}, serial...)

		var unit decimal.Decimal
		if len(amounts) >= 2 {
			unitSpan := amounts[len(amounts)-2]
			unit = parseNumber(line[unitSpan[0]:unitSpan[1]])
			remove = append(remove, unitSpan)
		} else if qty.IsPositive() {
			unit = amount.DivRound(qty, 2)
		}

		return entity.LineItem{
			Name:      describe(line, remove),
			Quantity:  qty,
			UnitPrice: unit,
			Amount:    amount,
		}, true
	}

	fractions := reFraction.FindAllStringIndex(line, -1)
	if len(fractions) == 0 && len(spans) == 1 {
		// a lone whole number is the line amount
		fractions = spans
	}
	if len(fractions) == 0 {
		return entity.LineItem{}, false
	}
	amountSpan := fractions[len(fractions)-1]
	amount := parseNumber(line[amountSpan[0]:amountSpan[1]])
	remove := [][]int{amountSpan}
	unit := amount
	if len(fractions) >= 2 {
		unitSpan := fractions[len(fractions)-2]
		unit = parseNumber(line[unitSpan[0]:unitSpan[1]])
		remove = append(remove, unitSpan)
	}
	return entity.LineItem{
		Name:      describe(line, remove),
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: unit,
		Amount:    amount,
	}, true
}

// describe blanks the given spans out of line and tidies what is left.
func describe(line string, spans [][]int) string {
	b := []byte(line)
	for _, sp := range spans {
		for i := sp[0]; i < sp[1]; i++ {
			b[i] = ' '
		}
	}
	name := reSpaces.ReplaceAllString(string(b), " ")
	name = strings.Trim(name, " -|:,")
	if name == "" {
		return UnknownProduct
	}
	return name
}

func parseNumber(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}
