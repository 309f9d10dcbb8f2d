// Package money formats amounts for display.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var maxGrouped = decimal.NewFromInt(math.MaxInt64)

// Formatter renders amounts with two decimals and locale digit grouping.
type Formatter struct {
	p       *message.Printer
	decimal string // locale decimal separator
}

// NewFormatter creates a Formatter for a BCP-47 locale such as "id-ID" or "en-US".
// Unknown locales fall back to English.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	// 1.5 prints as "1" + separator + "5".
	sample := p.Sprint(number.Decimal(1.5, number.Scale(1)))
	sep := strings.TrimSuffix(strings.TrimPrefix(sample, "1"), "5")
	if sep == "" {
		sep = "."
	}
	return &Formatter{p: p, decimal: sep}
}

// Format renders d, e.g. "1.000.000,00" for id-ID. The whole part is grouped
// as an integer so no cents are lost to float conversion.
func (f *Formatter) Format(d decimal.Decimal) string {
	d = d.Round(2)
	whole := d.Truncate(0)
	cents := d.Sub(whole).Abs().StringFixed(2)[2:]

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + f.group(whole.Abs()) + f.decimal + cents
}

// group renders a non-negative whole number with locale grouping. Numbers past
// the int64 range print ungrouped.
func (f *Formatter) group(whole decimal.Decimal) string {
	if whole.GreaterThan(maxGrouped) {
		return whole.String()
	}
	return f.p.Sprint(number.Decimal(whole.IntPart()))
}

// Accounting renders negatives in parentheses, e.g. "(250,00)".
func (f *Formatter) Accounting(d decimal.Decimal) string {
	if d.IsNegative() {
		return "(" + f.Format(d.Abs()) + ")"
	}
	return f.Format(d)
}
