// Package tax distributes document-level tax and discount over line items and
// renders the display strings shown next to each product.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/saikiran76/SwipeAI/internal/entity"
)

var hundred = decimal.NewFromInt(100)

// Aggregate holds the document-level figures to distribute. Rates are percentages.
type Aggregate struct {
	TaxAmount      decimal.Decimal
	TaxRate        decimal.Decimal
	DiscountAmount decimal.Decimal
	DiscountRate   decimal.Decimal
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Distribute splits total over weights in proportion to each weight's share,
// rounding every share independently. The rounded shares may differ from total
// by up to one cent per weight. A zero or negative weight sum yields zeros.
func Distribute(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(weights))
	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	for i, w := range weights {
		if !sum.IsPositive() {
			out[i] = decimal.Zero
			continue
		}
		out[i] = Round2(w.Div(sum).Mul(total))
	}
	return out
}

// Allocate applies discount first, then tax, to every item.
//
// Per-line figures reported by the source win over document-level ones. A
// document-level amount is shared in proportion to each line's basis; a
// document-level rate alone is applied to each line's basis directly.
func Allocate(items []entity.LineItem, agg Aggregate) []entity.PricedLine {
	n := len(items)
	basis := make([]decimal.Decimal, n)
	for i, it := range items {
		basis[i] = it.Amount
		if basis[i].IsZero() {
			basis[i] = it.UnitPrice.Mul(it.Quantity)
		}
	}

	discounts := share(items, basis, agg.DiscountAmount, agg.DiscountRate, func(it entity.LineItem) decimal.Decimal { return it.Discount })

	taxable := make([]decimal.Decimal, n)
	for i := range basis {
		taxable[i] = basis[i].Sub(discounts[i])
	}
	taxes := share(items, taxable, agg.TaxAmount, agg.TaxRate, func(it entity.LineItem) decimal.Decimal { return it.Tax })

	out := make([]entity.PricedLine, n)
	for i, it := range items {
		out[i] = entity.PricedLine{
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPrice:      Round2(it.UnitPrice),
			DiscountAmount: discounts[i],
			DiscountRate:   effectiveRate(agg.DiscountRate, discounts[i], basis[i]),
			TaxAmount:      taxes[i],
			TaxRate:        effectiveRate(agg.TaxRate, taxes[i], taxable[i]),
			PriceWithTax:   Round2(taxable[i].Add(taxes[i])),
		}
	}
	return out
}

func share(items []entity.LineItem, basis []decimal.Decimal, amount, rate decimal.Decimal, reported func(entity.LineItem) decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(items))
	anyReported := false
	for i, it := range items {
		out[i] = Round2(reported(it))
		if !out[i].IsZero() {
			anyReported = true
		}
	}
	switch {
	case anyReported:
		return out
	case amount.IsPositive():
		return Distribute(amount, basis)
	case rate.IsPositive():
		for i, b := range basis {
			out[i] = Round2(b.Mul(rate).Div(hundred))
		}
		return out
	default:
		return out
	}
}

// effectiveRate keeps the document rate when known, else derives it from the line.
func effectiveRate(docRate, amount, basis decimal.Decimal) decimal.Decimal {
	if docRate.IsPositive() {
		return docRate
	}
	if amount.IsZero() || !basis.IsPositive() {
		return decimal.Zero
	}
	return Round2(amount.Div(basis).Mul(hundred))
}
