// Package relations stitches extracted fields and priced lines into the
// {invoices, products, customers} graph. It is the only place ids are minted.
package relations

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/extract"
	"github.com/saikiran76/SwipeAI/internal/idgen"
	"github.com/saikiran76/SwipeAI/internal/tax"
)

// DefaultPhone is used when a customer has no phone number.
const DefaultPhone = "0000000000"

// Builder assembles the invoice graph of one document and mints its ids.
type Builder struct {
	ids *idgen.IDs
	now func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock fixes the clock used for missing spreadsheet dates.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// New returns a Builder minting ids from ids; nil selects uuid-based ids.
func New(ids *idgen.IDs, opts ...Option) *Builder {
	if ids == nil {
		ids = idgen.New(nil)
	}
	b := &Builder{ids: ids, now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

// BuildDocument links one document: one customer, and one product plus one
// invoice per line. The customer total is the document total, or the sum of
// the lines when the document prints none.
func (b *Builder) BuildDocument(doc entity.DocumentFields, lines []entity.PricedLine) entity.ExtractedData {
	out := entity.Empty()

	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.PriceWithTax)
	}
	total := doc.TotalAmount
	if !total.IsPositive() {
		total = sum
	}

	cust := entity.Customer{
		ID:                  b.ids.Customer(),
		Name:                customerName(doc.PartyName),
		PhoneNumber:         orDefault(doc.PhoneNumber, DefaultPhone),
		Email:               doc.Email,
		Address:             doc.Address,
		TotalPurchaseAmount: money(total),
	}
	out.Customers = append(out.Customers, cust)

	for i, l := range lines {
		prod := product(b.ids.Product(), l)
		out.Products = append(out.Products, prod)
		out.Invoices = append(out.Invoices, entity.Invoice{
			ID:           b.ids.Invoice(),
			SerialNumber: serial(doc.InvoiceNumber, i),
			CustomerID:   cust.ID,
			ProductID:    prod.ID,
			Quantity:     prod.Quantity,
			TaxRate:      prod.TaxRate,
			TaxAmount:    prod.TaxAmount,
			TotalAmount:  prod.PriceWithTax,
			Date:         doc.Date,
			CustomerName: cust.Name,
			ProductName:  prod.Name,
		})
	}
	return out
}

func product(id string, l entity.PricedLine) entity.Product {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		name = entity.UnknownProduct
	}
	return entity.Product{
		ID:              id,
		Name:            name,
		Quantity:        l.Quantity.InexactFloat64(),
		UnitPrice:       money(l.UnitPrice),
		DiscountRate:    money(l.DiscountRate),
		DiscountAmount:  money(l.DiscountAmount),
		DiscountDisplay: tax.FormatTaxString(l.DiscountRate, l.DiscountAmount),
		TaxRate:         money(l.TaxRate),
		TaxAmount:       money(l.TaxAmount),
		TaxDisplay:      tax.FormatTaxString(l.TaxRate, l.TaxAmount),
		PriceWithTax:    money(l.PriceWithTax),
	}
}

func serial(invoiceNumber string, i int) string {
	inv := strings.TrimSpace(invoiceNumber)
	if inv == "" || inv == extract.Unknown {
		return fmt.Sprintf("INV-%04d", i+1)
	}
	return fmt.Sprintf("%s-%d", inv, i+1)
}

func customerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == extract.Unknown || name == "-" {
		return entity.UnknownCustomer
	}
	return name
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" || v == extract.Unknown {
		return def
	}
	return v
}

func money(d decimal.Decimal) string {
	return tax.Round2(d).StringFixed(2)
}
