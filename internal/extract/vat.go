package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-fields/internal/fragment"
)

var (
	vatLabelRe  = regexp.MustCompile(`%(\d+)`)
	vatInlineRe = regexp.MustCompile(`%(\d+)[^\d]*(\d+,\d+)`)
	rowAmountRe = regexp.MustCompile(`\d+,\d{2}`)
)

// VATBreakdown collects per-rate VAT amounts. Every detection is added, so
// a rate seen in several fragments sums up. Three strategies run
// independently over the whole sequence:
//
//   - a "%rate ... amount" pair inside a single fragment
//   - for a bare "%rate" label, the text of the fragments on the same row
//     to its right, or failing that the next fragment if it is an amount
//   - a fragment containing '*' followed by an amount fragment, attributed
//     to the rate label in the '*' fragment or the one just before it
//
// The last strategy can fire for a value already taken by the second one;
// both detections are kept and summed.
func VATBreakdown(fragments []fragment.Fragment, cfg Config) Breakdown {
	var b Breakdown

	for i, frag := range fragments {
		if !vatLabelRe.MatchString(frag.Text) {
			continue
		}
		if m := vatInlineRe.FindStringSubmatch(frag.Text); m != nil {
			if amount, ok := parseAmount(m[2]); ok {
				b.Add(m[1], amount)
			}
			continue
		}
		rate := lastRate(frag.Text)
		if amount, ok := rowAmount(fragments, i, cfg.RowTolerance); ok {
			b.Add(rate, amount)
			continue
		}
		if next, ok := following(fragments, i); ok && fragment.IsNumericAmount(next.Text) {
			if amount, ok := parseAmount(next.Text); ok {
				b.Add(rate, amount)
			}
		}
	}

	for i, frag := range fragments {
		star := strings.LastIndex(frag.Text, "*")
		if star < 0 {
			continue
		}
		next, ok := following(fragments, i)
		if !ok || !fragment.IsNumericAmount(next.Text) {
			continue
		}
		rate, ok := splitValueRate(fragments, i)
		if !ok {
			continue
		}
		head := strings.TrimSpace(frag.Text[star+1:])
		if head != "" && !allDigitsRe.MatchString(head) {
			continue
		}
		if amount, ok := parseAmount(head + strings.TrimSpace(next.Text)); ok {
			b.Add(rate, amount)
		}
	}

	return b
}

// rowAmount concatenates the fragments sitting on the same row as the label
// at position i and to its right, then takes the first amount in that text.
// Concatenation without separators rejoins values the OCR split in two.
func rowAmount(fragments []fragment.Fragment, i int, tolerance float64) (decimal.Decimal, bool) {
	label := fragments[i]
	var row strings.Builder
	for j, other := range fragments {
		if j == i {
			continue
		}
		if fragment.SameRow(other, label, tolerance) && fragment.RightOf(other, label) {
			row.WriteString(strings.TrimSpace(other.Text))
		}
	}
	m := rowAmountRe.FindString(row.String())
	if m == "" {
		return decimal.Zero, false
	}
	return parseAmount(m)
}

// splitValueRate finds the rate for a '*' split value at position i: the
// label in the same fragment, else in the fragment right before it
func splitValueRate(fragments []fragment.Fragment, i int) (string, bool) {
	if rate := lastRate(fragments[i].Text); rate != "" {
		return rate, true
	}
	if i > 0 {
		if rate := lastRate(fragments[i-1].Text); rate != "" {
			return rate, true
		}
	}
	return "", false
}

func lastRate(text string) string {
	all := vatLabelRe.FindAllStringSubmatch(text, -1)
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1][1]
}
