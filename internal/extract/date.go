package extract

import (
	"regexp"

	"github.com/zombor/receipt-fields/internal/fragment"
)

var dateRe = regexp.MustCompile(`\b\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}\b`)

// ReceiptDate returns the first date-shaped substring in sequence order.
// The value is the raw text; it is not parsed into a calendar date.
func ReceiptDate(fragments []fragment.Fragment, _ Config) (string, bool) {
	for _, frag := range fragments {
		if m := dateRe.FindString(frag.Text); m != "" {
			return m, true
		}
	}
	return "", false
}
