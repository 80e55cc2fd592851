package extract

import (
	"strings"

	"github.com/zombor/receipt-fields/internal/fragment"
)

// CompanyName returns the first of the leading fragments that carries a
// legal-entity marker, falling back to the very first fragment
func CompanyName(fragments []fragment.Fragment, cfg Config) (string, bool) {
	if len(fragments) == 0 {
		return "", false
	}

	f := newFolder(cfg.Language)
	markers := f.foldAll(cfg.LegalEntityMarkers)

	limit := min(cfg.CompanyScanLimit, len(fragments))
	for _, frag := range fragments[:max(limit, 0)] {
		text := strings.TrimSpace(frag.Text)
		if text == "" {
			continue
		}
		if containsAny(f.fold(text), markers) {
			return text, true
		}
	}

	first := strings.TrimSpace(fragments[0].Text)
	if first == "" {
		return "", false
	}
	return first, true
}
