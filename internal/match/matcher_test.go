package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invomatch/internal/domain"
	"invomatch/internal/record"
)

func canonical(kind domain.DocumentKind) *record.Canonical {
	return record.Normalize(&record.Extracted{
		Kind:           kind,
		DocumentNumber: record.Present("PO-42"),
		DocumentDate:   record.Present("2024-03-15"),
		VendorName:     record.Present("Acme Corp"),
		Subtotal:       record.Present("1000.00"),
		Tax:            record.Present("180.00"),
		Total:          record.Present("1180.00"),
		LineItems: []record.ExtractedLineItem{
			{
				Description: record.Present("Widget A"),
				Quantity:    record.Present("2"),
				UnitPrice:   record.Present("500.00"),
				LineTotal:   record.Present("1000.00"),
			},
		},
	})
}

func TestMatchIdenticalIsApproved(t *testing.T) {
	m := NewMatcher()
	verdict := m.Match(canonical(domain.KindInvoice), canonical(domain.KindPurchaseOrder))
	assert.Equal(t, domain.StatusApproved, verdict.Status)
	assert.Empty(t, verdict.Discrepancies)
}

func TestMatchToleranceBoundary(t *testing.T) {
	m := NewMatcher(WithAmountTolerance(0.01))

	// Exactly at tolerance: passes.
	inv := canonical(domain.KindInvoice)
	po := canonical(domain.KindPurchaseOrder)
	inv.Total.Cents = po.Total.Cents + 1
	verdict := m.Match(inv, po)
	assert.Equal(t, domain.StatusApproved, verdict.Status)

	// One cent beyond: flagged.
	inv.Total.Cents = po.Total.Cents + 2
	verdict = m.Match(inv, po)
	require.Equal(t, domain.StatusNeedsReview, verdict.Status)
	require.Len(t, verdict.Discrepancies, 1)
	d := verdict.Discrepancies[0]
	assert.Equal(t, "total", d.Field)
	assert.Equal(t, domain.DiscrepancyAmountMismatch, d.Kind)
	assert.Equal(t, "0.02", d.Delta)
}

func TestMatchTextCaseAndWhitespaceInsensitive(t *testing.T) {
	inv := canonical(domain.KindInvoice)
	po := canonical(domain.KindPurchaseOrder)
	inv.VendorName.Value = "ACME corp"
	po.VendorName.Value = "Acme Corp"

	verdict := NewMatcher().Match(inv, po)
	assert.Equal(t, domain.StatusApproved, verdict.Status)
}

func TestMatchTextMismatch(t *testing.T) {
	inv := canonical(domain.KindInvoice)
	po := canonical(domain.KindPurchaseOrder)
	inv.DocumentNumber.Value = "PO-43"

	verdict := NewMatcher().Match(inv, po)
	require.Len(t, verdict.Discrepancies, 1)
	assert.Equal(t, "document_number", verdict.Discrepancies[0].Field)
	assert.Equal(t, domain.DiscrepancyTextMismatch, verdict.Discrepancies[0].Kind)
}

func TestMatchDateMismatch(t *testing.T) {
	inv := canonical(domain.KindInvoice)
	po := canonical(domain.KindPurchaseOrder)
	po.DocumentDate = record.Normalize(&record.Extracted{
		DocumentDate: record.Present("2024-03-16"),
	}).DocumentDate

	verdict := NewMatcher().Match(inv, po)
	require.Len(t, verdict.Discrepancies, 1)
	assert.Equal(t, domain.DiscrepancyDateMismatch, verdict.Discrepancies[0].Kind)
	assert.Equal(t, "2024-03-15", verdict.Discrepancies[0].InvoiceValue)
	assert.Equal(t, "2024-03-16", verdict.Discrepancies[0].POValue)
}

func TestMatchIncompleteData(t *testing.T) {
	inv := canonical(domain.KindInvoice)
	po := canonical(domain.KindPurchaseOrder)
	inv.Subtotal = record.AmountField{Status: record.FieldAbsent}

	verdict := NewMatcher().Match(inv, po)
	require.Len(t, verdict.Discrepancies, 1)
	d := verdict.Discrepancies[0]
	assert.Equal(t, "subtotal", d.Field)
	assert.Equal(t, domain.DiscrepancyIncompleteData, d.Kind)
	assert.Equal(t, "(missing)", d.InvoiceValue)
}

func TestMatchUnparsableIsIncomplete(t *testing.T) {
	inv := canonical(domain.KindInvoice)
	po := canonical(domain.KindPurchaseOrder)
	inv.Tax = record.AmountField{Status: record.FieldUnparsable, Raw: "N/A"}

	verdict := NewMatcher().Match(inv, po)
	require.Len(t, verdict.Discrepancies, 1)
	assert.Equal(t, domain.DiscrepancyIncompleteData, verdict.Discrepancies[0].Kind)
	assert.Contains(t, verdict.Discrepancies[0].InvoiceValue, "unparsable")
}

func TestMatchBothAbsentIsEqual(t *testing.T) {
	inv := canonical(domain.KindInvoice)
	po := canonical(domain.KindPurchaseOrder)
	inv.Tax = record.AmountField{Status: record.FieldAbsent}
	po.Tax = record.AmountField{Status: record.FieldAbsent}

	verdict := NewMatcher().Match(inv, po)
	assert.Equal(t, domain.StatusApproved, verdict.Status)
}

func TestMatchEmptyRecords(t *testing.T) {
	inv := record.Normalize(&record.Extracted{Kind: domain.KindInvoice})
	po := record.Normalize(&record.Extracted{Kind: domain.KindPurchaseOrder})

	// Nothing extracted on either side: nothing to reconcile.
	verdict := NewMatcher().Match(inv, po)
	assert.Equal(t, domain.StatusApproved, verdict.Status)
	assert.Empty(t, verdict.Discrepancies)
}

func TestMatchAmbiguousDateAgreement(t *testing.T) {
	// Both documents print the same ambiguous date: whichever reading is
	// right, it is the same on both sides.
	inv := canonical(domain.KindInvoice)
	po := canonical(domain.KindPurchaseOrder)
	inv.DocumentDate = record.Normalize(&record.Extracted{DocumentDate: record.Present("03/04/2024")}).DocumentDate
	po.DocumentDate = record.Normalize(&record.Extracted{DocumentDate: record.Present("03/04/2024")}).DocumentDate

	verdict := NewMatcher().Match(inv, po)
	assert.Equal(t, domain.StatusApproved, verdict.Status)
}

func TestMatchAmbiguousDateAgainstExplicitDateNeedsReview(t *testing.T) {
	// 03/04/2024 read day-first equals 2024-04-03, but only under that
	// guess; the month-first reading would be 2024-03-04. Not safe to pass
	// silently.
	inv := canonical(domain.KindInvoice)
	po := canonical(domain.KindPurchaseOrder)
	inv.DocumentDate = record.Normalize(&record.Extracted{DocumentDate: record.Present("03/04/2024")}).DocumentDate
	po.DocumentDate = record.Normalize(&record.Extracted{DocumentDate: record.Present("2024-04-03")}).DocumentDate
	require.True(t, inv.DocumentDate.LowConfidence)
	require.True(t, inv.DocumentDate.Value.Equal(po.DocumentDate.Value))

	verdict := NewMatcher().Match(inv, po)
	require.Equal(t, domain.StatusNeedsReview, verdict.Status)
	require.Len(t, verdict.Discrepancies, 1)
	d := verdict.Discrepancies[0]
	assert.Equal(t, "document_date", d.Field)
	assert.Equal(t, domain.DiscrepancyIncompleteData, d.Kind)
	assert.Contains(t, d.Message, "day-first")
}

// discrepancyKinds maps a verdict to its multiset of kinds, optionally
// translating sides so a reversed run can be compared against a forward one.
func discrepancyKinds(v domain.MatchVerdict, swapSides bool) []domain.DiscrepancyKind {
	kinds := make([]domain.DiscrepancyKind, 0, len(v.Discrepancies))
	for _, d := range v.Discrepancies {
		k := d.Kind
		if swapSides {
			switch k {
			case domain.DiscrepancyExtraLineItem:
				k = domain.DiscrepancyMissingLineItem
			case domain.DiscrepancyMissingLineItem:
				k = domain.DiscrepancyExtraLineItem
			}
		}
		kinds = append(kinds, k)
	}
	return kinds
}

func TestMatchSymmetry(t *testing.T) {
	// An asymmetric pair: extra invoice line item, unparsable invoice
	// total, vendor mismatch.
	a := canonical(domain.KindInvoice)
	a.LineItems = append(a.LineItems, record.Normalize(&record.Extracted{
		LineItems: []record.ExtractedLineItem{{
			Description: record.Present("Rush delivery fee"),
			Quantity:    record.Present("1"),
			UnitPrice:   record.Present("15.00"),
			LineTotal:   record.Present("15.00"),
		}},
	}).LineItems...)
	a.Total = record.AmountField{Status: record.FieldUnparsable, Raw: "??"}
	b := canonical(domain.KindPurchaseOrder)
	b.VendorName.Value = "Other Corp"

	forward := NewMatcher().Match(a, b)
	reverse := NewMatcher().Match(b, a)

	assert.Equal(t, forward.Status, reverse.Status)
	assert.ElementsMatch(t, discrepancyKinds(forward, false), discrepancyKinds(reverse, true))

	// Field-level values swap sides on the shared fields.
	byField := func(v domain.MatchVerdict, field string) domain.Discrepancy {
		for _, d := range v.Discrepancies {
			if d.Field == field {
				return d
			}
		}
		t.Fatalf("no discrepancy for %s", field)
		return domain.Discrepancy{}
	}
	fv := byField(forward, "vendor_name")
	rv := byField(reverse, "vendor_name")
	assert.Equal(t, fv.InvoiceValue, rv.POValue)
	assert.Equal(t, fv.POValue, rv.InvoiceValue)

	ft := byField(forward, "total")
	rt := byField(reverse, "total")
	assert.Equal(t, ft.InvoiceValue, rt.POValue)
	assert.Equal(t, ft.POValue, rt.InvoiceValue)
}

func TestMatchDiscrepancyOrderIsStable(t *testing.T) {
	inv := canonical(domain.KindInvoice)
	po := canonical(domain.KindPurchaseOrder)
	inv.DocumentNumber.Value = "X"
	inv.VendorName.Value = "Y"
	inv.Total.Cents += 500

	verdict := NewMatcher().Match(inv, po)
	require.Len(t, verdict.Discrepancies, 3)
	assert.Equal(t, "document_number", verdict.Discrepancies[0].Field)
	assert.Equal(t, "vendor_name", verdict.Discrepancies[1].Field)
	assert.Equal(t, "total", verdict.Discrepancies[2].Field)
}
