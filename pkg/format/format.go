// Package format renders raw market numbers as display strings.
//
// All functions are pure and total: NaN and infinities render as "NaN" and "∞"
// instead of panicking. Rounding is decimal (half away from zero), so values such
// as 1.005 round the way a reader expects rather than the way binary floats do.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	currencySymbol     = "$"
	minCurrencyPlaces  = 2
	maxCurrencyPlaces  = 2
	maxSubDollarPlaces = 6
	groupedPlaces      = 3
)

type suffix struct {
	exp  int32
	mark string
}

// Ordered from largest to smallest; the first threshold the value reaches wins.
var largeSuffixes = []suffix{
	{exp: 12, mark: "T"},
	{exp: 9, mark: "B"},
	{exp: 6, mark: "M"},
	{exp: 3, mark: "K"},
}

// Currency formats amount as US dollars with comma grouping. Amounts of at least
// one dollar keep exactly two decimals; smaller amounts keep up to six so that
// low-priced assets do not collapse to $0.00.
func Currency(amount float64) string {
	if s, ok := nonFinite(amount); ok {
		return currencySymbol + s
	}
	maxPlaces := int32(maxCurrencyPlaces)
	if amount < 1 {
		maxPlaces = maxSubDollarPlaces
	}
	d := decimal.NewFromFloat(amount).Round(maxPlaces)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + currencySymbol + fixedGrouped(d, minCurrencyPlaces, maxPlaces)
}

// LargeNumber abbreviates amount with K, M, B or T and two decimals. Values below
// one thousand are grouped without a suffix.
func LargeNumber(amount float64) string {
	if s, ok := nonFinite(amount); ok {
		return currencySymbol + s
	}
	for _, sfx := range largeSuffixes {
		if amount >= math.Pow10(int(sfx.exp)) {
			scaled := decimal.NewFromFloat(amount).Shift(-sfx.exp)
			return currencySymbol + scaled.StringFixed(2) + sfx.mark
		}
	}
	return currencySymbol + Grouped(amount)
}

// Percentage renders value with two fixed decimals and a trailing percent sign.
// Gain/loss styling is left to the caller.
func Percentage(value float64) string {
	if s, ok := nonFinite(value); ok {
		return s + "%"
	}
	return decimal.NewFromFloat(value).StringFixed(2) + "%"
}

// Grouped renders value with thousands separators and at most three decimals,
// dropping trailing zeros.
func Grouped(value float64) string {
	if s, ok := nonFinite(value); ok {
		return s
	}
	d := decimal.NewFromFloat(value).Round(groupedPlaces)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + fixedGrouped(d, 0, groupedPlaces)
}

// Supply renders an optional supply figure, returning fallback when the provider
// reported none.
func Supply(value *float64, fallback string) string {
	if value == nil {
		return fallback
	}
	return Grouped(*value)
}

// Rank renders a market cap rank as "#n".
func Rank(rank int) string {
	if rank <= 0 {
		return "-"
	}
	return "#" + Grouped(float64(rank))
}

// fixedGrouped prints a non-negative decimal with between minPlaces and maxPlaces
// fractional digits and groups the integer part.
func fixedGrouped(d decimal.Decimal, minPlaces, maxPlaces int32) string {
	s := d.StringFixed(maxPlaces)
	intPart, frac, _ := strings.Cut(s, ".")
	for int32(len(frac)) > minPlaces && strings.HasSuffix(frac, "0") {
		frac = frac[:len(frac)-1]
	}
	out := groupDigits(intPart)
	if frac != "" {
		out += "." + frac
	}
	return out
}

func groupDigits(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "∞", true
	case math.IsInf(v, -1):
		return "-∞", true
	}
	return "", false
}
