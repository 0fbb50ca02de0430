package relations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/saikiran76/SwipeAI/constants"
	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/extract"
	"github.com/saikiran76/SwipeAI/internal/tax"
)

// BuildRows links spreadsheet rows. Rows are grouped into customers by name;
// every row yields one product and one invoice. A customer's total is the sum
// of its invoice totals, where an invoice total is the row's Total Amount or,
// when that is blank, the computed price with tax.
func (b *Builder) BuildRows(rows []entity.Row) entity.ExtractedData {
	out := entity.Empty()
	byName := make(map[string]int)
	totals := make(map[string]decimal.Decimal)

	for r, raw := range rows {
		row := canonicalRow(raw)

		name := row[constants.ColCustomerName]
		if name == "" {
			name = row[constants.ColPartyName]
		}
		name = customerName(name)

		idx, ok := byName[name]
		if !ok {
			idx = len(out.Customers)
			byName[name] = idx
			out.Customers = append(out.Customers, entity.Customer{
				ID:          b.ids.Customer(),
				Name:        name,
				PhoneNumber: orDefault(row[constants.ColCustomerPhone], DefaultPhone),
				Email:       row[constants.ColCustomerEmail],
				Address:     row[constants.ColCustomerAddress],
			})
		}
		cust := out.Customers[idx]

		line := priceRow(row)
		prod := product(b.ids.Product(), line)
		out.Products = append(out.Products, prod)

		total := extract.ParseAmount(row[constants.ColTotalAmount])
		if row[constants.ColTotalAmount] == "" {
			total = line.PriceWithTax
		}
		totals[cust.ID] = totals[cust.ID].Add(total)

		serialNo := row[constants.ColInvoiceNumber]
		if serialNo == "" {
			serialNo = fmt.Sprintf("INV-%04d", r+1)
		}
		date := row[constants.ColInvoiceDate]
		if date == "" {
			date = b.now().Format("2006-01-02")
		}

		out.Invoices = append(out.Invoices, entity.Invoice{
			ID:           b.ids.Invoice(),
			SerialNumber: serialNo,
			CustomerID:   cust.ID,
			ProductID:    prod.ID,
			Quantity:     prod.Quantity,
			TaxRate:      prod.TaxRate,
			TaxAmount:    prod.TaxAmount,
			TotalAmount:  money(total),
			Date:         date,
			CustomerName: cust.Name,
			ProductName:  prod.Name,
		})
	}

	for i := range out.Customers {
		out.Customers[i].TotalPurchaseAmount = money(totals[out.Customers[i].ID])
	}
	return out
}

// priceRow runs one row through the allocator so row pricing follows the
// same discount-then-tax rule as documents.
func priceRow(row map[constants.Column]string) entity.PricedLine {
	qty := extract.ParseAmount(row[constants.ColQuantity])
	unit := extract.ParseAmount(row[constants.ColUnitPrice])

	agg := tax.Aggregate{TaxRate: extract.ParseAmount(row[constants.ColTaxRate])}
	item := entity.LineItem{
		Name:      orDefault(row[constants.ColProductName], entity.UnknownProduct),
		Quantity:  qty,
		UnitPrice: unit,
		Amount:    unit.Mul(qty),
		Tax:       extract.ParseAmount(row[constants.ColTaxAmount]),
	}
	if disc := row[constants.ColDiscount]; strings.Contains(disc, "%") {
		agg.DiscountRate = extract.ParseAmount(disc)
	} else {
		item.Discount = extract.ParseAmount(disc)
	}
	return tax.Allocate([]entity.LineItem{item}, agg)[0]
}

// canonicalRow re-keys a row by canonical column. Headers are visited in
// sorted order and the first non-empty value per column wins.
func canonicalRow(raw entity.Row) map[constants.Column]string {
	headers := make([]string, 0, len(raw))
	for h := range raw {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	out := make(map[constants.Column]string, len(headers))
	for _, h := range headers {
		col, ok := constants.CanonicalizeHeader(h)
		if !ok {
			continue
		}
		if v := cellString(raw[h]); v != "" && out[col] == "" {
			out[col] = v
		}
	}
	return out
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return decimal.NewFromFloat(t).String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
