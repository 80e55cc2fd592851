//go:build tesseract

package ocr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/zombor/receipt-fields/internal/fragment"
)

// Tesseract implements the Engine interface with a local Tesseract install.
// It reports one fragment per text line with Tesseract's own confidence.
type Tesseract struct {
	mu     sync.Mutex // gosseract clients are not safe for concurrent use
	client *gosseract.Client
	opts   Options
}

// NewTesseract creates a Tesseract Engine for the configured languages
func NewTesseract(opts Options) (*Tesseract, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(tesseractLanguages(opts.Languages)...); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting tesseract language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting page segmentation mode: %w", err)
	}
	return &Tesseract{client: client, opts: opts}, nil
}

// Recognize runs Tesseract over the image and returns line fragments
func (t *Tesseract) Recognize(imageData []byte, contentType string) ([]fragment.Raw, error) {
	pngData, err := prepareImageData(imageData, contentType, t.opts)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(pngData); err != nil {
		return nil, fmt.Errorf("setting image: %w", err)
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	raw := make([]fragment.Raw, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		r := b.Box
		raw = append(raw, fragment.Raw{
			Box:        fragment.Rect(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy())),
			Text:       text,
			Confidence: b.Confidence / 100,
		})
	}
	return raw, nil
}

// Close releases the Tesseract client
func (t *Tesseract) Close() error {
	return t.client.Close()
}
