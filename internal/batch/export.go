package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/zombor/receipt-fields/internal/fragment"
)

// SheetName is the single worksheet written by WriteXLSX
const SheetName = "Receipts"

// WriteCSV writes the table with a header row
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row.Strings()); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the table as a one-sheet workbook. Amounts are stored as
// numbers so they can be summed in a spreadsheet.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("locating row %d: %w", i, err)
		}
		values := []interface{}{
			nullable(row.ReceiptNumber),
			nullable(row.CompanyName),
			nullable(row.ReceiptDate),
			number(row.VATTotal),
			number(row.GrandTotal),
			row.RawText,
			row.SourceFileName,
			row.VATDetails,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteFragmentsCSV lists each fragment with its recognition confidence
func WriteFragmentsCSV(w io.Writer, fragments []fragment.Fragment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "text", "pred_confidence"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, f := range fragments {
		record := []string{
			strconv.Itoa(f.Index),
			f.Text,
			strconv.FormatFloat(f.Confidence, 'f', 4, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func number(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
