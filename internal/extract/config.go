package extract

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zombor/receipt-fields/internal/fragment"
)

// Config holds the keyword vocabulary and tolerances used by the matchers.
// Keywords are compared after folding both sides with fold, so they may be
// written in any case.
type Config struct {
	// Language drives upper-casing of fragment text (Turkish dotted İ etc.)
	Language language.Tag

	// CompanyScanLimit is how many leading fragments are searched for a
	// legal-entity marker
	CompanyScanLimit int

	LegalEntityMarkers    []string
	ReceiptNumberKeywords []string
	// ReceiptNumberTriggers only announce a number in the next fragment;
	// digits after them in the same fragment are not taken (TEL NO, VERGİ NO)
	ReceiptNumberTriggers []string
	TotalKeywords         []string
	SubtotalKeywords      []string
	VATTotalKeywords      []string

	// RowTolerance is the same-row threshold in pixels
	RowTolerance float64
}

// DefaultConfig returns the vocabulary tuned for Turkish retail receipts
// with English fallbacks
func DefaultConfig() Config {
	return Config{
		Language:              language.Turkish,
		CompanyScanLimit:      5,
		LegalEntityMarkers:    []string{"TİC.", "SAN.", "LTD.", "A.Ş.", "ŞTİ.", "INC.", "CO.", "LLC", "GMBH"},
		ReceiptNumberKeywords: []string{"FİŞ NO", "NO FİŞ", "FATURA NO", "FİŞ"},
		ReceiptNumberTriggers: []string{"NO"},
		TotalKeywords:         []string{"TOPLAM", "TOTAL"},
		SubtotalKeywords:      []string{"ARA TOPLAM", "ARATOPLAM", "SUBTOTAL", "SUB TOTAL"},
		VATTotalKeywords:      []string{"TOPKDV", "TOP KDV", "TOPLAM KDV", "KDV TOPLAM", "TOTAL VAT", "VAT TOTAL"},
		RowTolerance:          fragment.DefaultRowTolerance,
	}
}

// Validate checks the config for values that would make a matcher useless
func (c Config) Validate() error {
	if c.CompanyScanLimit < 0 {
		return fmt.Errorf("company scan limit must not be negative, got %d", c.CompanyScanLimit)
	}
	if c.RowTolerance <= 0 {
		return fmt.Errorf("row tolerance must be positive, got %v", c.RowTolerance)
	}
	if len(c.TotalKeywords) == 0 {
		return fmt.Errorf("at least one total keyword is required")
	}
	return nil
}

// dotless maps the Turkish capital dotted I onto plain I so OCR output that
// lost the dot still matches
var dotless = strings.NewReplacer("İ", "I")

// folder upper-cases text for keyword comparison. It is not safe for
// concurrent use; each matcher call builds its own.
type folder struct {
	caser cases.Caser
}

func newFolder(tag language.Tag) *folder {
	return &folder{caser: cases.Upper(tag)}
}

func (f *folder) fold(s string) string {
	return dotless.Replace(f.caser.String(s))
}

func (f *folder) foldAll(words []string) []string {
	folded := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		folded = append(folded, f.fold(w))
	}
	return folded
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
