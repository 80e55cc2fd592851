package ocr

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zombor/receipt-fields/internal/fragment"
)

// fragmentPrompt is the shared prompt used by all LLM engines. The model is
// asked to behave like a text detector, not to interpret the receipt.
const fragmentPrompt = `You are an OCR engine. Detect every piece of printed text in this receipt image, expected to be in %s.

For each text fragment return:
- "text": the exact characters as printed, without corrections or translation. Keep decimal commas, '*' and '%%' signs.
- "box": the four corners in pixels as [[x,y],[x,y],[x,y],[x,y]] in the order top-left, top-right, bottom-right, bottom-left.
- "confidence": your confidence in the recognized text between 0 and 1.

List fragments in reading order: top to bottom, left to right within a line. Do not merge text that is visually separated on the same line.

Return ONLY a valid JSON array in this exact format:
[
  {"text": "ACME LTD.", "box": [[12,8],[180,8],[180,30],[12,30]], "confidence": 0.97}
]

Important:
- Do not include any text before or after the JSON
- Do not use markdown code blocks
- Return [] if the image contains no text`

type llmFragment struct {
	Text       string      `json:"text"`
	Box        [][]float64 `json:"box"`
	Confidence *float64    `json:"confidence"`
}

// parseFragmentsJSON parses the JSON array returned by an LLM engine
func parseFragmentsJSON(text string) ([]fragment.Raw, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "[")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	endIdx := strings.LastIndex(text, "]")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON array in response")
	}
	text = text[startIdx : endIdx+1]

	var items []llmFragment
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	raw := make([]fragment.Raw, 0, len(items))
	for _, it := range items {
		// Models that can't score themselves leave confidence out
		confidence := 1.0
		if it.Confidence != nil {
			confidence = *it.Confidence
		}
		raw = append(raw, fragment.Raw{
			Box:        quadFromPoints(it.Box),
			Text:       it.Text,
			Confidence: confidence,
		})
	}
	return raw, nil
}

// quadFromPoints accepts four [x,y] corners; anything else yields an empty box
func quadFromPoints(points [][]float64) fragment.Quad {
	var q fragment.Quad
	if len(points) != 4 {
		return q
	}
	for i, p := range points {
		if len(p) != 2 {
			return fragment.Quad{}
		}
		q[i] = fragment.Point{X: p[0], Y: p[1]}
	}
	return q
}
