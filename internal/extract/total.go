package extract

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-fields/internal/fragment"
)

// GrandTotal finds the first total-keyword fragment that yields a numeral,
// either its own rightmost numeral or the verbatim text of the next fragment
func GrandTotal(fragments []fragment.Fragment, cfg Config) (decimal.Decimal, bool) {
	f := newFolder(cfg.Language)
	totals := f.foldAll(cfg.TotalKeywords)
	excluded := append(f.foldAll(cfg.SubtotalKeywords), f.foldAll(cfg.VATTotalKeywords)...)

	for i, frag := range fragments {
		text := f.fold(frag.Text)
		if !containsAny(text, totals) || containsAny(text, excluded) {
			continue
		}

		if n, ok := lastNumeral(frag.Text); ok {
			if amount, ok := parseAmount(n); ok {
				return amount, true
			}
		}

		next, ok := following(fragments, i)
		if !ok {
			continue
		}
		if amount, ok := parseAmount(strings.TrimPrefix(strings.TrimSpace(next.Text), "*")); ok {
			return amount, true
		}
	}
	return decimal.Zero, false
}

// VATTotal finds the first VAT-total fragment whose last numeral parses
func VATTotal(fragments []fragment.Fragment, cfg Config) (decimal.Decimal, bool) {
	f := newFolder(cfg.Language)
	keywords := f.foldAll(cfg.VATTotalKeywords)

	for _, frag := range fragments {
		if !containsAny(f.fold(frag.Text), keywords) {
			continue
		}
		n, ok := lastNumeral(frag.Text)
		if !ok {
			continue
		}
		if amount, ok := parseAmount(n); ok {
			return amount, true
		}
	}
	return decimal.Zero, false
}
