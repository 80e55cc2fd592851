package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/zombor/receipt-fields/internal/fragment"
)

var allDigitsRe = regexp.MustCompile(`^\d+$`)

func keywordAlternation(keywords []string) string {
	sorted := make([]string, len(keywords))
	copy(sorted, keywords)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, k := range sorted {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return strings.Join(quoted, "|")
}

// receiptNumberPatterns builds the trigger and same-fragment patterns from
// the folded keywords. Longer keywords come first so "FIŞ NO" wins over
// "FIŞ" at the same position. Trigger-only words never take digits from
// their own fragment.
func receiptNumberPatterns(keywords, triggers []string) (trigger, inline *regexp.Regexp) {
	all := append(append([]string{}, keywords...), triggers...)
	if len(all) == 0 {
		return nil, nil
	}
	trigger = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(?:` + keywordAlternation(all) + `)(?:[^\p{L}\p{N}]|$)`)
	if len(keywords) > 0 {
		inline = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(?:` + keywordAlternation(keywords) + `)[^\p{L}\p{N}]*(\d+)`)
	}
	return trigger, inline
}

// ReceiptNumber finds a receipt-number keyword and takes the digit run after
// it in the same fragment, or the next fragment when that one is all digits
func ReceiptNumber(fragments []fragment.Fragment, cfg Config) (string, bool) {
	f := newFolder(cfg.Language)
	trigger, inline := receiptNumberPatterns(f.foldAll(cfg.ReceiptNumberKeywords), f.foldAll(cfg.ReceiptNumberTriggers))
	if trigger == nil {
		return "", false
	}

	for i, frag := range fragments {
		text := f.fold(frag.Text)
		if inline != nil {
			if m := inline.FindStringSubmatch(text); m != nil {
				return m[1], true
			}
		}
		if !trigger.MatchString(text) {
			continue
		}
		next, ok := following(fragments, i)
		if !ok {
			continue
		}
		if candidate := strings.TrimSpace(next.Text); allDigitsRe.MatchString(candidate) {
			return candidate, true
		}
	}
	return "", false
}
