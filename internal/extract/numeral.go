package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-fields/internal/fragment"
)

// numeralRe finds digit runs that may carry '.' or ',' separators
var numeralRe = regexp.MustCompile(`\d(?:[\d.,]*\d)?`)

var wholeNumeralRe = regexp.MustCompile(`^\d(?:[\d.,]*\d)?$`)

// parseAmount converts a numeral with a decimal comma or point. Anything
// that isn't a single decimal number after normalizing the comma, such as
// "1.234,56", is reported as no value.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if !wholeNumeralRe.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// lastNumeral returns the rightmost numeral-shaped substring of s
func lastNumeral(s string) (string, bool) {
	all := numeralRe.FindAllString(s, -1)
	if len(all) == 0 {
		return "", false
	}
	return all[len(all)-1], true
}

// following returns the fragment after position i in the sequence. The
// sequence order is the OCR reading order; this is the only place that
// assumes "next in sequence" means "next on the receipt".
func following(fragments []fragment.Fragment, i int) (fragment.Fragment, bool) {
	if i < 0 || i+1 >= len(fragments) {
		return fragment.Fragment{}, false
	}
	return fragments[i+1], true
}
