package fragment

import (
	"math"
	"regexp"
	"strings"
)

// DefaultRowTolerance is the vertical distance in pixels under which two
// fragments are considered to sit on the same printed row
const DefaultRowTolerance = 10.0

var numericAmountRe = regexp.MustCompile(`^\d+,\d{2}$`)

// SameRow reports whether the top-left corners of a and b are vertically
// closer than tolerance
func SameRow(a, b Fragment, tolerance float64) bool {
	return math.Abs(a.Box.TopLeft().Y-b.Box.TopLeft().Y) < tolerance
}

// RightOf reports whether a starts past the right edge of b
func RightOf(a, b Fragment) bool {
	return a.Box.TopLeft().X > b.Box.TopRight().X
}

// IsNumericAmount reports whether text is a comma-decimal currency amount
// such as "78,50". Plain integers and dotted numbers are rejected so that
// item and receipt codes don't pass as money.
func IsNumericAmount(text string) bool {
	return numericAmountRe.MatchString(strings.TrimSpace(text))
}
