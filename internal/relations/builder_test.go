package relations_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/idgen"
	"github.com/saikiran76/SwipeAI/internal/relations"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newBuilder() *relations.Builder {
	fixed := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	return relations.New(idgen.New(idgen.Sequence()), relations.WithClock(func() time.Time { return fixed }))
}

func pricedLines() []entity.PricedLine {
	return []entity.PricedLine{
		{Name: "Widget", Quantity: d("2"), UnitPrice: d("300"), TaxRate: d("18"), TaxAmount: d("108"), PriceWithTax: d("708")},
		{Name: "Gadget", Quantity: d("1"), UnitPrice: d("400"), TaxRate: d("18"), TaxAmount: d("72"), PriceWithTax: d("472")},
	}
}

func TestBuildDocument_OneCustomerManyLines(t *testing.T) {
	doc := entity.DocumentFields{InvoiceNumber: "INV-1001", Date: "2024-01-05", TotalAmount: d("1180"), PartyName: "Acme Corp"}
	out := newBuilder().BuildDocument(doc, pricedLines())

	require.Len(t, out.Customers, 1)
	require.Len(t, out.Products, 2)
	require.Len(t, out.Invoices, 2)

	cust := out.Customers[0]
	assert.Equal(t, "CUST_1", cust.ID)
	assert.Equal(t, "Acme Corp", cust.Name)
	assert.Equal(t, relations.DefaultPhone, cust.PhoneNumber)
	assert.Equal(t, "1180.00", cust.TotalPurchaseAmount)

	for i, inv := range out.Invoices {
		assert.Equal(t, cust.ID, inv.CustomerID)
		assert.Equal(t, out.Products[i].ID, inv.ProductID)
		assert.Equal(t, out.Products[i].Name, inv.ProductName)
		assert.Equal(t, "2024-01-05", inv.Date)
	}
	assert.Equal(t, "INV-1001-1", out.Invoices[0].SerialNumber)
	assert.Equal(t, "INV-1001-2", out.Invoices[1].SerialNumber)

	p := out.Products[0]
	assert.Equal(t, 2.0, p.Quantity)
	assert.Equal(t, "300.00", p.UnitPrice)
	assert.Equal(t, "108.00", p.TaxAmount)
	assert.Equal(t, "18% (108.00)", p.TaxDisplay)
	assert.Equal(t, "", p.DiscountDisplay)
	assert.Equal(t, "708.00", out.Invoices[0].TotalAmount)
}

func TestBuildDocument_Sentinels(t *testing.T) {
	doc := entity.DocumentFields{InvoiceNumber: "unknown", PartyName: "unknown", PhoneNumber: "98450 12345"}
	out := newBuilder().BuildDocument(doc, pricedLines())

	assert.Equal(t, entity.UnknownCustomer, out.Customers[0].Name)
	assert.Equal(t, "98450 12345", out.Customers[0].PhoneNumber)
	assert.Equal(t, "1180.00", out.Customers[0].TotalPurchaseAmount, "sum of lines when no total is printed")
	assert.Equal(t, "INV-0001", out.Invoices[0].SerialNumber)
}

func TestBuildDocument_NoLines(t *testing.T) {
	out := newBuilder().BuildDocument(entity.DocumentFields{PartyName: "A"}, nil)
	assert.Len(t, out.Customers, 1)
	assert.NotNil(t, out.Products)
	assert.NotNil(t, out.Invoices)
	assert.Empty(t, out.Invoices)
}

func TestBuildRows_GroupsCustomersByName(t *testing.T) {
	rows := []entity.Row{
		{"Customer Name": "Acme", "Product Name": "Bolt", "Qty": "10", "Price": "2.5", "Total Amount": "100"},
		{"customer name": "Acme", "Product Name": "Nut", "Qty": "4", "Price": "1", "Total Amount": "250.50"},
		{"Customer Name": "Zenith", "Product Name": "Gear", "Qty": 1.0, "Price": 99.0},
	}
	out := newBuilder().BuildRows(rows)

	require.Len(t, out.Customers, 2)
	require.Len(t, out.Products, 3)
	require.Len(t, out.Invoices, 3)

	acme := out.Customers[0]
	assert.Equal(t, "Acme", acme.Name)
	assert.Equal(t, "350.50", acme.TotalPurchaseAmount)
	assert.Equal(t, acme.ID, out.Invoices[0].CustomerID)
	assert.Equal(t, acme.ID, out.Invoices[1].CustomerID)

	zenith := out.Customers[1]
	assert.Equal(t, zenith.ID, out.Invoices[2].CustomerID)
	assert.Equal(t, "99.00", zenith.TotalPurchaseAmount, "falls back to computed price")
}

func TestBuildRows_DefaultsAndPricing(t *testing.T) {
	rows := []entity.Row{
		{"Product": "Lamp", "Quantity": "2", "Unit Price": "50", "Tax %": "10", "Discount": "10"},
	}
	out := newBuilder().BuildRows(rows)

	require.Len(t, out.Invoices, 1)
	inv := out.Invoices[0]
	assert.Equal(t, entity.UnknownCustomer, inv.CustomerName)
	assert.Equal(t, "INV-0001", inv.SerialNumber)
	assert.Equal(t, "2024-03-09", inv.Date)

	p := out.Products[0]
	assert.Equal(t, "Lamp", p.Name)
	assert.Equal(t, "10.00", p.DiscountAmount)
	// (100 - 10) * 10%
	assert.Equal(t, "9.00", p.TaxAmount)
	assert.Equal(t, "99.00", p.PriceWithTax)
	assert.Equal(t, "10.00", p.TaxRate)

	c := out.Customers[0]
	assert.Equal(t, relations.DefaultPhone, c.PhoneNumber)
	assert.Equal(t, "", c.Email)
	assert.Equal(t, "", c.Address)
}

func TestBuildRows_Empty(t *testing.T) {
	out := newBuilder().BuildRows(nil)
	assert.Equal(t, entity.Empty(), out)
}
