// Package receipt persists scanned receipts and their extracted fields and
// serves them over HTTP.
package receipt

import (
	"errors"
	"time"

	"github.com/zombor/receipt-fields/internal/extract"
	"github.com/zombor/receipt-fields/internal/fragment"
)

// ErrNotFound is returned when a receipt or batch does not exist
var ErrNotFound = errors.New("not found")

// Receipt is one scanned receipt with the fields extracted from it
type Receipt struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	Filename     string `json:"filename"` // path in storage
	ContentType  string `json:"content_type"`
	BatchID      string `json:"batch_id,omitempty"`
	// MinConfidence is the threshold the fields were extracted with
	MinConfidence float64 `json:"min_confidence"`
	// Fragments holds every recognized fragment, including the ones below
	// MinConfidence, so the listing can show what was dropped
	Fragments []fragment.Fragment `json:"fragments"`
	Fields    extract.Record      `json:"fields"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// FailedFile is an upload of a batch that could not be scanned
type FailedFile struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// Batch groups receipts uploaded together
type Batch struct {
	ID         string       `json:"id"`
	ReceiptIDs []string     `json:"receipt_ids"` // in upload order
	Failed     []FailedFile `json:"failed,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
