package fragment

import "math"

// Point is a pixel coordinate in the source image
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is a bounding quadrilateral in fixed winding order:
// top-left, top-right, bottom-right, bottom-left
type Quad [4]Point

// TopLeft returns the first corner
func (q Quad) TopLeft() Point { return q[0] }

// TopRight returns the second corner
func (q Quad) TopRight() Point { return q[1] }

// BottomRight returns the third corner
func (q Quad) BottomRight() Point { return q[2] }

// BottomLeft returns the fourth corner
func (q Quad) BottomLeft() Point { return q[3] }

// Rect builds an axis-aligned quad from a rectangle
func Rect(x, y, width, height float64) Quad {
	return Quad{
		{X: x, Y: y},
		{X: x + width, Y: y},
		{X: x + width, Y: y + height},
		{X: x, Y: y + height},
	}
}

// Raw is one tuple as returned by an OCR engine
type Raw struct {
	Box        Quad    `json:"box"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Fragment is one recognized text span. Index is the position in the
// OCR engine's output and stands in for reading order.
type Fragment struct {
	Index      int     `json:"index"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Quad    `json:"box"`
}

// Normalize converts raw OCR output into fragments indexed by input position.
// The order is never changed.
func Normalize(raw []Raw) []Fragment {
	fragments := make([]Fragment, 0, len(raw))
	for i, r := range raw {
		fragments = append(fragments, Fragment{
			Index:      i,
			Text:       r.Text,
			Confidence: clamp(r.Confidence),
			Box:        r.Box,
		})
	}
	return fragments
}

// FilterByConfidence keeps fragments whose confidence is at least threshold.
// Original indices are preserved, not renumbered.
func FilterByConfidence(fragments []Fragment, threshold float64) []Fragment {
	kept := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		if f.Confidence >= threshold {
			kept = append(kept, f)
		}
	}
	return kept
}

// Texts returns the fragment texts in sequence order
func Texts(fragments []Fragment) []string {
	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}
	return texts
}

func clamp(c float64) float64 {
	if c < 0 || math.IsNaN(c) {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
