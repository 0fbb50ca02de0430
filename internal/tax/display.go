package tax

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatTaxString renders "{rate}% ({amount})", "{rate}%", "{amount}" or ""
// depending on which of rate and amount are positive.
func FormatTaxString(rate, amount decimal.Decimal) string {
	switch {
	case rate.IsPositive() && amount.IsPositive():
		return fmt.Sprintf("%s%% (%s)", rate.String(), amount.StringFixed(2))
	case rate.IsPositive():
		return rate.String() + "%"
	case amount.IsPositive():
		return amount.StringFixed(2)
	default:
		return ""
	}
}

var (
	// 18% (180.00) | 18%
	reRateFirst = regexp.MustCompile(`^([\d.]+)\s*%\s*(?:\(\s*([\d,]*\.?\d+)\s*\))?$`)
	// 8,115.25 (18%) | 180.00
	reAmountFirst = regexp.MustCompile(`^([\d,]*\.?\d+)\s*(?:\(\s*([\d.]+)\s*%\s*\))?$`)
)

// ParseTaxInfo reverses FormatTaxString and also accepts the amount-first
// form "8,115.25 (18%)". Unrecognised input yields zeros.
func ParseTaxInfo(s string) (amount, rate decimal.Decimal) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, decimal.Zero
	}
	if m := reRateFirst.FindStringSubmatch(s); m != nil {
		return num(m[2]), num(m[1])
	}
	if m := reAmountFirst.FindStringSubmatch(s); m != nil {
		return num(m[1]), num(m[2])
	}
	return decimal.Zero, decimal.Zero
}

func num(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
