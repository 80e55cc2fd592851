package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is the structured result for one receipt. Absent fields are nil,
// never zero.
type Record struct {
	CompanyName    *string   `json:"company_name"`
	ReceiptDate    *string   `json:"receipt_date"` // raw matched substring
	ReceiptNumber  *string   `json:"receipt_number"`
	VATTotal       *float64  `json:"vat_total"`
	GrandTotal     *float64  `json:"grand_total"`
	VATBreakdown   Breakdown `json:"vat_breakdown"`
	RawText        []string  `json:"raw_text"`
	SourceFileName string    `json:"source_file_name"`
}

// Breakdown maps VAT rate labels ("18") to accumulated amounts. Rates keep
// the order in which they were first seen and amounts add up on repeat.
type Breakdown struct {
	rates   []string
	amounts map[string]decimal.Decimal
}

// Add accumulates amount under rate
func (b *Breakdown) Add(rate string, amount decimal.Decimal) {
	if b.amounts == nil {
		b.amounts = make(map[string]decimal.Decimal)
	}
	current, ok := b.amounts[rate]
	if !ok {
		b.rates = append(b.rates, rate)
	}
	b.amounts[rate] = current.Add(amount)
}

// Merge adds every entry of other into b
func (b *Breakdown) Merge(other Breakdown) {
	for _, rate := range other.rates {
		b.Add(rate, other.amounts[rate])
	}
}

// Len returns the number of distinct rates
func (b Breakdown) Len() int {
	return len(b.rates)
}

// Rates returns the rate labels in insertion order
func (b Breakdown) Rates() []string {
	rates := make([]string, len(b.rates))
	copy(rates, b.rates)
	return rates
}

// Amount returns the accumulated amount for rate
func (b Breakdown) Amount(rate string) (float64, bool) {
	d, ok := b.amounts[rate]
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// Decimal returns the exact accumulated amount for rate, zero if unknown
func (b Breakdown) Decimal(rate string) decimal.Decimal {
	return b.amounts[rate]
}

// Map returns a plain copy of the breakdown
func (b Breakdown) Map() map[string]float64 {
	m := make(map[string]float64, len(b.rates))
	for _, rate := range b.rates {
		m[rate] = b.amounts[rate].InexactFloat64()
	}
	return m
}

// String renders "%rate: amount" pairs, comma-joined in insertion order
func (b Breakdown) String() string {
	parts := make([]string, 0, len(b.rates))
	for _, rate := range b.rates {
		parts = append(parts, fmt.Sprintf("%%%s: %s", rate, b.amounts[rate].StringFixed(2)))
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON encodes the breakdown as a JSON object of rate to amount,
// keys in insertion order, e.g. {"18":22.50,"8":5.00}
func (b Breakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rate := range b.rates {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(rate)
		if err != nil {
			return nil, fmt.Errorf("marshaling vat rate %q: %w", rate, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(b.amounts[rate].StringFixed(2))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object written by MarshalJSON, keeping key order
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	*b = Breakdown{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return fmt.Errorf("unmarshaling vat breakdown: expected object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("unmarshaling vat breakdown: %w", err)
		}
		rate, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unmarshaling vat breakdown: unexpected key %v", tok)
		}
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("unmarshaling vat breakdown rate %s: %w", rate, err)
		}
		amount, err := decimal.NewFromString(n.String())
		if err != nil {
			return fmt.Errorf("unmarshaling vat breakdown rate %s: %w", rate, err)
		}
		b.Add(rate, amount)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("unmarshaling vat breakdown: %w", err)
	}
	return nil
}
