package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invomatch/internal/domain"
	"invomatch/internal/match"
	"invomatch/internal/pipeline"
	"invomatch/internal/record"
)

func sampleResult() *pipeline.MatchResult {
	inv := record.Normalize(&record.Extracted{
		Kind:           domain.KindInvoice,
		DocumentNumber: record.Present("INV-001"),
		DocumentDate:   record.Present("2024-03-15"),
		VendorName:     record.Present("Acme Corp"),
		Subtotal:       record.Present("100.00"),
		Total:          record.Present("118.00"),
		LineItems: []record.ExtractedLineItem{{
			Description: record.Present("Widget A"),
			Quantity:    record.Present("2"),
			UnitPrice:   record.Present("50.00"),
			LineTotal:   record.Present("100.00"),
		}},
	})
	po := record.Normalize(&record.Extracted{
		Kind:           domain.KindPurchaseOrder,
		DocumentNumber: record.Present("INV-001"),
		DocumentDate:   record.Present("2024-03-15"),
		VendorName:     record.Present("Acme Corp"),
		Subtotal:       record.Present("100.00"),
		Total:          record.Present("120.00"),
		LineItems: []record.ExtractedLineItem{{
			Description: record.Present("Widget A"),
			Quantity:    record.Present("2"),
			UnitPrice:   record.Present("50.00"),
			LineTotal:   record.Present("100.00"),
		}},
	})
	verdict := match.NewMatcher().Match(inv, po)
	return &pipeline.MatchResult{Invoice: inv, PurchaseOrder: po, Verdict: verdict}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleResult()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.ElementsMatch(t, []string{summarySheet, lineItemsSheet, issuesSheet}, f.GetSheetList())

	status, err := f.GetCellValue(summarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusNeedsReview), status)

	number, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "INV-001", number)

	// One discrepancy row under the header: the 2.00 total delta.
	rows, err := f.GetRows(issuesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "total", rows[1][0])
}

func TestWriteXLSXMarksIncompleteFields(t *testing.T) {
	result := sampleResult()
	result.Invoice.Tax = record.AmountField{Status: record.FieldUnparsable, Raw: "N/A"}
	result.PurchaseOrder.Tax = record.AmountField{Status: record.FieldAbsent}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, result))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	invTax, err := f.GetCellValue(summarySheet, "B7")
	require.NoError(t, err)
	assert.Equal(t, "N/A (unparsed)", invTax)
}
