package entity

import "github.com/shopspring/decimal"

// Placeholder names used when a source gives no usable value.
const (
	UnknownProduct  = "Unknown Product"
	UnknownCustomer = "Unknown Customer"
)

// DocumentFields holds the document-level scalars found by the field extractors
// or the machine-response normalizer. Absent values carry their sentinel.
type DocumentFields struct {
	InvoiceNumber  string
	Date           string
	TotalAmount    decimal.Decimal
	TaxAmount      decimal.Decimal
	TaxRate        decimal.Decimal
	DiscountAmount decimal.Decimal
	DiscountRate   decimal.Decimal
	PartyName      string
	CompanyName    string
	PhoneNumber    string
	Email          string
	Address        string
}

// LineItem is a segmented product line before allocation.
// Amount is the pre-tax line amount.
type LineItem struct {
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal

	// Per-line figures reported by the source, zero when unknown.
	Discount decimal.Decimal
	Tax      decimal.Decimal
}

// PricedLine is a line item after discount and tax allocation.
type PricedLine struct {
	Name           string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountRate   decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	PriceWithTax   decimal.Decimal
}

// Row is one decoded spreadsheet row keyed by its original header text.
type Row map[string]any
