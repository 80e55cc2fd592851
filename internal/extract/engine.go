// Package extract turns a receipt's OCR fragments into a structured record.
//
// Each field has its own matcher that scans the whole fragment sequence on
// its own, so matchers can be tested and reordered freely. Every field
// except the VAT breakdown takes the first match and ignores later ones.
package extract

import (
	"log/slog"

	"github.com/zombor/receipt-fields/internal/fragment"
)

// Extract runs every matcher over fragments and assembles the record.
// It never fails: fields that no matcher fills are left nil.
func Extract(fragments []fragment.Fragment, cfg Config) Record {
	record := Record{
		RawText:      fragment.Texts(fragments),
		VATBreakdown: VATBreakdown(fragments, cfg),
	}

	if v, ok := CompanyName(fragments, cfg); ok {
		record.CompanyName = &v
	}
	if v, ok := ReceiptDate(fragments, cfg); ok {
		record.ReceiptDate = &v
	}
	if v, ok := ReceiptNumber(fragments, cfg); ok {
		record.ReceiptNumber = &v
	}
	if v, ok := VATTotal(fragments, cfg); ok {
		f := v.InexactFloat64()
		record.VATTotal = &f
	}
	if v, ok := GrandTotal(fragments, cfg); ok {
		f := v.InexactFloat64()
		record.GrandTotal = &f
	}

	slog.Debug("Extracted receipt fields",
		"fragments", len(fragments),
		"company_name", deref(record.CompanyName),
		"receipt_date", deref(record.ReceiptDate),
		"receipt_number", deref(record.ReceiptNumber),
		"vat_rates", record.VATBreakdown.Len(),
	)

	return record
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
