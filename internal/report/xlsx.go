package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"invomatch/internal/domain"
	"invomatch/internal/pipeline"
	"invomatch/internal/record"
)

const (
	summarySheet   = "Summary"
	lineItemsSheet = "Line Items"
	issuesSheet    = "Discrepancies"
)

// WriteXLSX renders one reconciliation result as a workbook: a side-by-side
// field summary, both documents' line items, and the discrepancy list.
func WriteXLSX(w io.Writer, result *pipeline.MatchResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeSummary(f, result); err != nil {
		return err
	}
	if err := writeLineItems(f, result); err != nil {
		return err
	}
	if err := writeDiscrepancies(f, result.Verdict); err != nil {
		return err
	}

	// excelize names the initial sheet "Sheet1"; ours replace it.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.Write(w)
}

func writeSummary(f *excelize.File, result *pipeline.MatchResult) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Field", "Invoice", "Purchase Order"},
		{"Status", string(result.Verdict.Status), ""},
		{"Document Number", fieldText(result.Invoice.DocumentNumber), fieldText(result.PurchaseOrder.DocumentNumber)},
		{"Date", dateText(result.Invoice.DocumentDate), dateText(result.PurchaseOrder.DocumentDate)},
		{"Vendor", fieldText(result.Invoice.VendorName), fieldText(result.PurchaseOrder.VendorName)},
		{"Subtotal", amountText(result.Invoice.Subtotal), amountText(result.PurchaseOrder.Subtotal)},
		{"Tax", amountText(result.Invoice.Tax), amountText(result.PurchaseOrder.Tax)},
		{"Total", amountText(result.Invoice.Total), amountText(result.PurchaseOrder.Total)},
	}
	return writeRows(f, summarySheet, rows)
}

func writeLineItems(f *excelize.File, result *pipeline.MatchResult) error {
	if _, err := f.NewSheet(lineItemsSheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Document", "#", "Description", "Quantity", "Unit Price", "Line Total"},
	}
	rows = append(rows, itemRows("Invoice", result.Invoice.LineItems)...)
	rows = append(rows, itemRows("Purchase Order", result.PurchaseOrder.LineItems)...)
	return writeRows(f, lineItemsSheet, rows)
}

func itemRows(label string, items []record.CanonicalLineItem) [][]interface{} {
	rows := make([][]interface{}, 0, len(items))
	for i, item := range items {
		rows = append(rows, []interface{}{
			label,
			i + 1,
			item.Description.String(),
			item.Quantity.String(),
			item.UnitPrice.String(),
			item.LineTotal.String(),
		})
	}
	return rows
}

func writeDiscrepancies(f *excelize.File, verdict domain.MatchVerdict) error {
	if _, err := f.NewSheet(issuesSheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Field", "Kind", "Invoice Value", "PO Value", "Delta", "Message"},
	}
	for _, d := range verdict.Discrepancies {
		rows = append(rows, []interface{}{
			d.Field, string(d.Kind), d.InvoiceValue, d.POValue, d.Delta, d.Message,
		})
	}
	return writeRows(f, issuesSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func fieldText(t record.TextField) string {
	return incompleteText(t.Status, t.String())
}

func dateText(d record.DateField) string {
	return incompleteText(d.Status, d.String())
}

func amountText(a record.AmountField) string {
	return incompleteText(a.Status, a.String())
}

func incompleteText(status record.FieldStatus, val string) string {
	switch status {
	case record.FieldAbsent:
		return "—"
	case record.FieldUnparsable:
		return val + " (unparsed)"
	default:
		return val
	}
}
