// Package ocr holds the text detection and recognition collaborators. Each
// engine turns an image (or the first page of a PDF) into raw fragments in
// reading order; nothing here interprets the text.
package ocr

import (
	"fmt"
	"strings"

	"github.com/zombor/receipt-fields/internal/fragment"
)

// Engine defines the interface for OCR operations
type Engine interface {
	// Recognize returns the text fragments found in an image/PDF, in the
	// order the engine reads them
	Recognize(imageData []byte, contentType string) ([]fragment.Raw, error)
	// Close closes the engine and releases resources
	Close() error
}

// Preprocess selects the pixel transform applied before recognition
type Preprocess string

const (
	PreprocessNone      Preprocess = "none"
	PreprocessGrayscale Preprocess = "grayscale"
	PreprocessContrast  Preprocess = "contrast"
	PreprocessBinarize  Preprocess = "binarize"
)

// ParsePreprocess validates a preprocess mode name
func ParsePreprocess(s string) (Preprocess, error) {
	switch p := Preprocess(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PreprocessNone:
		return PreprocessNone, nil
	case PreprocessGrayscale, PreprocessContrast, PreprocessBinarize:
		return p, nil
	default:
		return "", fmt.Errorf("unknown preprocess mode %q", s)
	}
}

// Options are shared by all engines
type Options struct {
	// Languages are ISO 639-1 codes such as "tr" and "en"
	Languages []string
	// MaxImageSize bounds the longest image side in pixels; 0 keeps the size
	MaxImageSize int
	Preprocess   Preprocess
}

// DefaultOptions matches the settings receipts were tuned on
func DefaultOptions() Options {
	return Options{
		Languages:    []string{"tr", "en"},
		MaxImageSize: 1000,
		Preprocess:   PreprocessNone,
	}
}

var tesseractCodes = map[string]string{
	"en": "eng",
	"tr": "tur",
	"fr": "fra",
	"de": "deu",
	"es": "spa",
	"it": "ita",
}

// tesseractLanguages maps ISO 639-1 codes onto Tesseract traineddata names.
// Unknown codes are passed through so "eng+osd" style names still work.
func tesseractLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if code, ok := tesseractCodes[l]; ok {
			out = append(out, code)
			continue
		}
		out = append(out, l)
	}
	if len(out) == 0 {
		out = append(out, "eng")
	}
	return out
}

var languageNames = map[string]string{
	"en": "English",
	"tr": "Turkish",
	"fr": "French",
	"de": "German",
	"es": "Spanish",
	"it": "Italian",
}

// languageHint describes the expected languages for LLM prompts
func languageHint(langs []string) string {
	names := make([]string, 0, len(langs))
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if name, ok := languageNames[l]; ok {
			names = append(names, name)
		} else if l != "" {
			names = append(names, l)
		}
	}
	if len(names) == 0 {
		return "any language"
	}
	return strings.Join(names, " and ")
}
