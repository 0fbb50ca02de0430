package constants

import (
	"sort"
	"strings"
)

// Column is a canonical spreadsheet column name.
type Column string

const (
	ColInvoiceDate     Column = "Invoice Date"
	ColInvoiceNumber   Column = "Invoice Number"
	ColCustomerName    Column = "Customer Name"
	ColPartyName       Column = "Party Name"
	ColCustomerPhone   Column = "Customer Phone"
	ColCustomerEmail   Column = "Customer Email"
	ColCustomerAddress Column = "Customer Address"
	ColProductName     Column = "Product Name"
	ColQuantity        Column = "Quantity"
	ColUnitPrice       Column = "Unit Price"
	ColTaxRate         Column = "Tax Rate"
	ColTaxAmount       Column = "Tax Amount"
	ColDiscount        Column = "Discount"
	ColTotalAmount     Column = "Total Amount"
)

var allColumns = []Column{
	ColInvoiceDate, ColInvoiceNumber, ColCustomerName, ColPartyName, ColCustomerPhone,
	ColCustomerEmail, ColCustomerAddress, ColProductName, ColQuantity, ColUnitPrice,
	ColTaxRate, ColTaxAmount, ColDiscount, ColTotalAmount,
}

// header synonyms, keyed by lowercased trimmed header text
var headerSynonyms = map[string]Column{
	"invoice date":     ColInvoiceDate,
	"date":             ColInvoiceDate,
	"invoice number":   ColInvoiceNumber,
	"invoice no":       ColInvoiceNumber,
	"number":           ColInvoiceNumber,
	"customer name":    ColCustomerName,
	"name":             ColCustomerName,
	"customer":         ColPartyName,
	"party name":       ColPartyName,
	"customer phone":   ColCustomerPhone,
	"phone":            ColCustomerPhone,
	"mobile":           ColCustomerPhone,
	"customer email":   ColCustomerEmail,
	"email":            ColCustomerEmail,
	"customer address": ColCustomerAddress,
	"address":          ColCustomerAddress,
	"product name":     ColProductName,
	"product":          ColProductName,
	"item":             ColProductName,
	"quantity":         ColQuantity,
	"qty":              ColQuantity,
	"unit price":       ColUnitPrice,
	"price":            ColUnitPrice,
	"rate":             ColUnitPrice,
	"tax rate":         ColTaxRate,
	"tax %":            ColTaxRate,
	"gst %":            ColTaxRate,
	"tax amount":       ColTaxAmount,
	"tax":              ColTaxAmount,
	"discount":         ColDiscount,
	"total amount":     ColTotalAmount,
	"total":            ColTotalAmount,
	"net amount":       ColTotalAmount,
}

// CanonicalizeHeader maps a raw spreadsheet header to its canonical column.
// Exact synonyms win; otherwise a letters-only comparison against the canonical
// names and then the synonym keys tolerates punctuation and OCR noise.
func CanonicalizeHeader(input string) (Column, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	if col, ok := headerSynonyms[normalized]; ok {
		return col, true
	}

	letters := LettersOnly(normalized)
	if letters == "" {
		return "", false
	}
	if strings.Contains(normalized, "%") && (letters == "tax" || letters == "gst") {
		return ColTaxRate, true
	}
	for _, col := range allColumns {
		if letters == LettersOnly(strings.ToLower(string(col))) {
			return col, true
		}
	}
	keys := make([]string, 0, len(headerSynonyms))
	for k := range headerSynonyms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if letters == LettersOnly(key) {
			return headerSynonyms[key], true
		}
	}
	return "", false
}

// LettersOnly lowercases s and keeps only the letters a-z. Header and key
// matching compares on this form.
func LettersOnly(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
