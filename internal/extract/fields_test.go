package extract_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/SwipeAI/internal/extract"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestExtractor_InvoiceAndTotal(t *testing.T) {
	lines := extract.SplitLines(`
		TAX INVOICE
		INVOICE NO: INV-1001
		DESCRIPTION QTY PRICE AMOUNT
		Widget 2 500.00 1000.00
		TOTAL AMOUNT: Rs. 1,180.00
	`)

	e := extract.New(nil)
	assert.Equal(t, "INV-1001", e.InvoiceNumber(lines))
	assert.True(t, dec("1180").Equal(e.TotalAmount(lines)), "got %s", e.TotalAmount(lines))
	assert.Equal(t, extract.Unknown, e.PartyName(lines))
	assert.Equal(t, "", e.PhoneNumber(lines))
}

func TestExtractor_FirstMatchingLineWins(t *testing.T) {
	lines := []string{"BILL NO: B-7", "INVOICE NO: I-9"}
	assert.Equal(t, "B-7", extract.New(nil).InvoiceNumber(lines))
}

func TestExtractor_SubtotalIsNotTotal(t *testing.T) {
	lines := []string{"SUBTOTAL: 1,000.00", "TOTAL: 1,180.00"}
	assert.True(t, dec("1180").Equal(extract.New(nil).TotalAmount(lines)))
}

func TestExtractor_Date(t *testing.T) {
	fixed := time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC)
	e := extract.New(nil, extract.WithClock(func() time.Time { return fixed }))

	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"month name", []string{"Date: March 3, 2024"}, "March 3, 2024"},
		{"day month year", []string{"Date: 12 Mar 2024"}, "12 Mar 2024"},
		{"numeric", []string{"Invoice Date: 12/01/2024"}, "12/01/2024"},
		{"fallback to today", []string{"nothing here"}, "2024-05-17"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Date(tt.lines))
		})
	}
}

func TestExtractor_TaxLabelsAreSynonyms(t *testing.T) {
	e := extract.New(nil)

	tests := []struct {
		line       string
		wantRate   string
		wantAmount string
	}{
		{"IGST 18% Rs. 180.00", "18", "180"},
		{"CGST 9% Rs. 45.50", "9", "45.5"},
		{"SGST 9% Rs. 45", "9", "45"},
		{"GST @ 12.5%", "12.5", "0"},
		{"TAX RATE: 5%", "5", "0"},
		{"TOTAL TAX: 2,340.75", "0", "2340.75"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			lines := []string{tt.line}
			assert.True(t, dec(tt.wantRate).Equal(e.TaxRate(lines)), "rate %s", e.TaxRate(lines))
			assert.True(t, dec(tt.wantAmount).Equal(e.TaxAmount(lines)), "amount %s", e.TaxAmount(lines))
		})
	}
}

func TestExtractor_PartyAndContact(t *testing.T) {
	lines := extract.SplitLines("CUSTOMER NAME: Acme Corp\nPHONE: +919876543210\nEmail: billing@acme.example\nAddress: 12 MG Road, Pune")
	f := extract.New(nil).Fields(lines)

	assert.Equal(t, "Acme Corp", f.PartyName)
	assert.Equal(t, "+919876543210", f.PhoneNumber)
	assert.Equal(t, "billing@acme.example", f.Email)
	assert.Equal(t, "12 MG Road, Pune", f.Address)
}

func TestExtractor_DiscountFields(t *testing.T) {
	lines := []string{"Discount 10%", "DISCOUNT: 100.00"}
	e := extract.New(nil)
	assert.True(t, dec("10").Equal(e.DiscountRate(lines)))
	assert.True(t, dec("100").Equal(e.DiscountAmount(lines)))
}

func TestParseAmount(t *testing.T) {
	tests := map[string]string{
		"1,180.00": "1180",
		"Rs. 99.5": "99.5",
		"18%":      "18",
		"-12.40":   "-12.4",
		"abc":      "0",
		"":         "0",
		"7.":       "7",
	}
	for in, want := range tests {
		assert.True(t, dec(want).Equal(extract.ParseAmount(in)), "ParseAmount(%q) = %s", in, extract.ParseAmount(in))
	}
}

func TestIsSimilar(t *testing.T) {
	assert.True(t, extract.IsSimilar("QTY:", "Qty"))
	assert.True(t, extract.IsSimilar("Pri-ce", "price"))
	assert.True(t, extract.IsSimilar("AMOUNT", "Amount"))
	assert.False(t, extract.IsSimilar("Qty", "Price"))
}

func TestLoadPatterns_OverlaysDefaults(t *testing.T) {
	yml := `
fields:
  invoice_number:
    - {label: ref, pattern: '(?i)REF[:\s]*(\w+)'}
`
	set, err := extract.LoadPatterns(strings.NewReader(yml))
	require.NoError(t, err)

	e := extract.New(set)
	lines := []string{"REF: X1", "INVOICE NO: I-9", "TOTAL: 10.00"}
	assert.Equal(t, "X1", e.InvoiceNumber(lines))
	assert.True(t, dec("10").Equal(e.TotalAmount(lines)), "defaults kept for other fields")
	assert.Equal(t, []string{"Qty", "Price", "Amount"}, set.Segment.Columns)
}

func TestLoadPatterns_RejectsBadRegex(t *testing.T) {
	yml := `
fields:
  date:
    - {label: broken, pattern: '(unclosed'}
`
	_, err := extract.LoadPatterns(strings.NewReader(yml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
