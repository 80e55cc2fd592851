// Package batch runs extraction over many receipts and flattens the results
// into a table for display or export.
package batch

import (
	"strconv"
	"strings"

	"github.com/zombor/receipt-fields/internal/extract"
)

// Columns are the header names of the exported table, in column order
var Columns = []string{
	"Fiş No",
	"Firma Unvanı",
	"Fiş Tarihi",
	"TOPKDV",
	"Toplam Tutar",
	"Ham Metin",
	"Dosya Adı",
	"KDV Detayları",
}

// Row is one receipt with its VAT breakdown flattened to a display string
type Row struct {
	ReceiptNumber  *string  `json:"receipt_number"`
	CompanyName    *string  `json:"company_name"`
	ReceiptDate    *string  `json:"receipt_date"`
	VATTotal       *float64 `json:"vat_total"`
	GrandTotal     *float64 `json:"grand_total"`
	RawText        string   `json:"raw_text"`
	SourceFileName string   `json:"source_file_name"`
	VATDetails     string   `json:"vat_details"`
}

// Table is the batch view: one row per receipt in input order plus the
// VAT breakdowns of all receipts merged together
type Table struct {
	Rows      []Row             `json:"rows"`
	VATTotals extract.Breakdown `json:"vat_totals"`
}

// Aggregate flattens records into a table. No deduplication or cross-record
// matching is done.
func Aggregate(records []extract.Record) Table {
	table := Table{Rows: make([]Row, 0, len(records))}
	for _, r := range records {
		table.Rows = append(table.Rows, Row{
			ReceiptNumber:  r.ReceiptNumber,
			CompanyName:    r.CompanyName,
			ReceiptDate:    r.ReceiptDate,
			VATTotal:       r.VATTotal,
			GrandTotal:     r.GrandTotal,
			RawText:        strings.Join(r.RawText, "\n"),
			SourceFileName: r.SourceFileName,
			VATDetails:     r.VATBreakdown.String(),
		})
		table.VATTotals.Merge(r.VATBreakdown)
	}
	return table
}

// Strings renders the row in Columns order; absent fields are empty
func (r Row) Strings() []string {
	return []string{
		str(r.ReceiptNumber),
		str(r.CompanyName),
		str(r.ReceiptDate),
		money(r.VATTotal),
		money(r.GrandTotal),
		r.RawText,
		r.SourceFileName,
		r.VATDetails,
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func money(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}
