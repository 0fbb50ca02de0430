package llm

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/extract"
	"github.com/saikiran76/SwipeAI/internal/tax"
)

// Keys of the record the extraction prompt asks for.
const (
	KeyInvoiceNumber = "Invoice number"
	KeyDate          = "Date"
	KeyTotalAmount   = "Total amount"
	KeyTaxAmount     = "Tax amount"
	KeyTaxRate       = "Tax rate"
	KeyDiscount      = "Discount"
	KeyPartyName     = "Party name"
	KeyCompanyName   = "Company name"
	KeyPhoneNumber   = "Phone number"

	KeyProductNames    = "Product names"
	KeyUnitAmount      = "Unit Amount"
	KeyQuantity        = "Quantity"
	KeyPriceWithTax    = "Price with tax"
	KeyDiscountPerItem = "Discount per item"
	KeyTaxPerItem      = "Tax per item"
)

type field struct {
	Key     string
	Default string
	Aliases []string
}

var scalarFields = []field{
	{KeyInvoiceNumber, extract.Unknown, []string{"Invoice no", "Invoice ID", "Serial number", "Bill number"}},
	{KeyDate, extract.Unknown, []string{"Invoice date", "Bill date"}},
	{KeyTotalAmount, "0", []string{"Total", "Grand total", "Amount payable"}},
	{KeyTaxAmount, "0", []string{"Total tax", "Tax", "GST"}},
	{KeyTaxRate, "0", []string{"Tax percent", "GST rate"}},
	{KeyDiscount, "0", []string{"Total discount", "Discount amount"}},
	{KeyPartyName, extract.Unknown, []string{"Customer name", "Customer", "Buyer", "Bill to"}},
	{KeyCompanyName, extract.Unknown, []string{"Seller", "Vendor", "Company"}},
	{KeyPhoneNumber, extract.Unknown, []string{"Phone", "Mobile", "Contact"}},
}

// Per-item fields share one length after normalization.
var itemFields = []field{
	{KeyProductNames, extract.Unknown, []string{"Product name", "Products", "Items", "Item names"}},
	{KeyUnitAmount, "0", []string{"Unit price", "Rate", "Price"}},
	{KeyQuantity, "0", []string{"Qty", "Quantities"}},
	{KeyPriceWithTax, "0", []string{"Amount", "Total price", "Line total"}},
	{KeyDiscountPerItem, "0", []string{"Item discount", "Discounts"}},
	{KeyTaxPerItem, "0", []string{"Item tax", "Taxes"}},
}

// Record is the flat shape requested from the extraction service: scalar
// document fields plus parallel per-item arrays of equal length.
type Record struct {
	Scalars map[string]string
	Items   map[string][]string
}

// Len is the common length of the per-item arrays.
func (r Record) Len() int {
	return len(r.Items[KeyProductNames])
}

// MarshalJSON renders the record with its original key names.
func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Scalars)+len(r.Items))
	for k, v := range r.Scalars {
		m[k] = v
	}
	for k, v := range r.Items {
		m[k] = v
	}
	return json.Marshal(m)
}

// Document converts the scalar fields. Sentinels are kept for invoice number,
// date and party name; an unknown phone becomes empty.
func (r Record) Document() entity.DocumentFields {
	f := entity.DocumentFields{
		InvoiceNumber: r.Scalars[KeyInvoiceNumber],
		Date:          r.Scalars[KeyDate],
		TotalAmount:   extract.ParseAmount(r.Scalars[KeyTotalAmount]),
		TaxRate:       extract.ParseAmount(r.Scalars[KeyTaxRate]),
		PartyName:     r.Scalars[KeyPartyName],
		CompanyName:   r.Scalars[KeyCompanyName],
		PhoneNumber:   r.Scalars[KeyPhoneNumber],
	}
	if f.PhoneNumber == extract.Unknown {
		f.PhoneNumber = ""
	}

	taxStr := r.Scalars[KeyTaxAmount]
	if strings.Contains(taxStr, "%") {
		amount, rate := tax.ParseTaxInfo(taxStr)
		f.TaxAmount = amount
		if f.TaxRate.IsZero() {
			f.TaxRate = rate
		}
	} else {
		f.TaxAmount = extract.ParseAmount(taxStr)
	}

	disc := r.Scalars[KeyDiscount]
	if strings.Contains(disc, "%") {
		f.DiscountRate = extract.ParseAmount(disc)
	} else {
		f.DiscountAmount = extract.ParseAmount(disc)
	}
	return f
}

// LineItems converts the per-item arrays. Quantity defaults to 1. When no
// unit amount is given the pre-tax amount is backed out of the price with tax.
func (r Record) LineItems() []entity.LineItem {
	n := r.Len()
	items := make([]entity.LineItem, 0, n)
	for i := 0; i < n; i++ {
		name := strings.TrimSpace(r.Items[KeyProductNames][i])
		if name == "" || name == extract.Unknown {
			name = entity.UnknownProduct
		}
		qty := extract.ParseAmount(r.Items[KeyQuantity][i])
		if !qty.IsPositive() {
			qty = decimal.NewFromInt(1)
		}
		unit := extract.ParseAmount(r.Items[KeyUnitAmount][i])
		gross := extract.ParseAmount(r.Items[KeyPriceWithTax][i])
		disc := extract.ParseAmount(r.Items[KeyDiscountPerItem][i])
		lineTax := extract.ParseAmount(r.Items[KeyTaxPerItem][i])

		amount := unit.Mul(qty)
		if !unit.IsPositive() && gross.IsPositive() {
			amount = gross.Sub(lineTax).Add(disc)
			unit = amount.Div(qty)
		}
		items = append(items, entity.LineItem{
			Name:      name,
			Quantity:  qty,
			UnitPrice: unit,
			Amount:    amount,
			Discount:  disc,
			Tax:       lineTax,
		})
	}
	return items
}
