package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	numberPattern  = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	percentPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)

	maxPercent = decimal.NewFromInt(100)
)

// ExtractPercent returns the discount in a loosely formatted description
// such as "25% off" or "desconto de 12,5%". A number followed by "%" wins
// over other numbers in the text (years, quantities); without one the
// first number is used. A comma is accepted as decimal separator. Zero is
// returned when no digits occur or the value is not a percentage between
// 0 and 100.
func ExtractPercent(s string) decimal.Decimal {
	var m string
	if sub := percentPattern.FindStringSubmatch(s); sub != nil {
		m = sub[1]
	} else {
		m = numberPattern.FindString(s)
	}
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.Replace(m, ",", ".", 1))
	if err != nil || d.GreaterThan(maxPercent) {
		return decimal.Zero
	}
	return d
}
