//go:build !tesseract

package ocr

import (
	"errors"

	"github.com/zombor/receipt-fields/internal/fragment"
)

// ErrTesseractUnavailable is returned when the binary was built without the
// tesseract tag (libtesseract is a cgo dependency)
var ErrTesseractUnavailable = errors.New("tesseract support not compiled in; rebuild with -tags tesseract")

// Tesseract is a placeholder when built without tesseract support
type Tesseract struct{}

// NewTesseract always fails without the tesseract build tag
func NewTesseract(opts Options) (*Tesseract, error) {
	return nil, ErrTesseractUnavailable
}

// Recognize always fails without the tesseract build tag
func (t *Tesseract) Recognize(imageData []byte, contentType string) ([]fragment.Raw, error) {
	return nil, ErrTesseractUnavailable
}

// Close is a no-op
func (t *Tesseract) Close() error {
	return nil
}
