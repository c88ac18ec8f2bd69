package match

import (
	"fmt"
	"strings"
	"time"

	"invomatch/internal/domain"
	"invomatch/internal/record"
)

const (
	defaultAmountToleranceCents = 1
	descriptionMatchThreshold   = 0.55
)

// Matcher compares two canonical records field by field. It never fails:
// incompleteness on either side is itself a reportable discrepancy, so every
// run that reaches the matcher ends with an explicit verdict.
type Matcher struct {
	toleranceCents int64
}

// Option customizes a Matcher.
type Option func(*Matcher)

// WithAmountTolerance sets the absolute tolerance, in currency units, under
// which two amounts are considered equal.
func WithAmountTolerance(units float64) Option {
	return func(m *Matcher) {
		m.toleranceCents = int64(units * 100)
	}
}

// NewMatcher creates a Matcher with a 0.01 currency-unit tolerance unless
// overridden.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{toleranceCents: defaultAmountToleranceCents}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match compares an invoice against a purchase order and produces a verdict.
// Discrepancies are emitted in a fixed field order so output is reproducible:
// document number, date, vendor, subtotal, tax, total, then line items in
// invoice order.
func (m *Matcher) Match(invoice, po *record.Canonical) domain.MatchVerdict {
	discrepancies := []domain.Discrepancy{}

	if d := compareText("document_number", invoice.DocumentNumber, po.DocumentNumber); d != nil {
		discrepancies = append(discrepancies, *d)
	}
	if d := compareDate("document_date", invoice.DocumentDate, po.DocumentDate); d != nil {
		discrepancies = append(discrepancies, *d)
	}
	if d := compareText("vendor_name", invoice.VendorName, po.VendorName); d != nil {
		discrepancies = append(discrepancies, *d)
	}
	if d := m.compareAmount("subtotal", invoice.Subtotal, po.Subtotal); d != nil {
		discrepancies = append(discrepancies, *d)
	}
	if d := m.compareAmount("tax", invoice.Tax, po.Tax); d != nil {
		discrepancies = append(discrepancies, *d)
	}
	if d := m.compareAmount("total", invoice.Total, po.Total); d != nil {
		discrepancies = append(discrepancies, *d)
	}
	discrepancies = append(discrepancies, m.compareLineItems(invoice.LineItems, po.LineItems)...)

	status := domain.StatusApproved
	if len(discrepancies) > 0 {
		status = domain.StatusNeedsReview
	}
	return domain.MatchVerdict{Status: status, Discrepancies: discrepancies}
}

func compareText(field string, inv, po record.TextField) *domain.Discrepancy {
	if d := incomplete(field, inv.Status, po.Status, inv.String(), po.String()); d != nil {
		return d
	}
	if textEqual(inv.Value, po.Value) {
		return nil
	}
	return &domain.Discrepancy{
		Field:        field,
		Kind:         domain.DiscrepancyTextMismatch,
		InvoiceValue: inv.Value,
		POValue:      po.Value,
		Message:      fmt.Sprintf("%s differs: invoice %q vs PO %q", field, inv.Value, po.Value),
	}
}

func compareDate(field string, inv, po record.DateField) *domain.Discrepancy {
	if d := incomplete(field, inv.Status, po.Status, inv.String(), po.String()); d != nil {
		return d
	}
	if inv.Value.Equal(po.Value) {
		// An ambiguously-read date only counts as equal when the
		// month-first reading would agree too. When it would not, the
		// match hinges entirely on the day-first guess.
		if (inv.LowConfidence || po.LowConfidence) && !alternateReading(inv).Equal(alternateReading(po)) {
			return &domain.Discrepancy{
				Field:        field,
				Kind:         domain.DiscrepancyIncompleteData,
				InvoiceValue: inv.Raw,
				POValue:      po.Raw,
				Message:      fmt.Sprintf("%s matches only under a day-first reading: invoice %q vs PO %q", field, inv.Raw, po.Raw),
			}
		}
		return nil
	}
	return &domain.Discrepancy{
		Field:        field,
		Kind:         domain.DiscrepancyDateMismatch,
		InvoiceValue: inv.String(),
		POValue:      po.String(),
		Message:      fmt.Sprintf("%s differs: invoice %s vs PO %s", field, inv.String(), po.String()),
	}
}

// alternateReading swaps day and month for a low-confidence date. Ambiguity
// implies both components are valid months, so the swap is always a real date.
func alternateReading(d record.DateField) time.Time {
	if !d.LowConfidence {
		return d.Value
	}
	return time.Date(d.Value.Year(), time.Month(d.Value.Day()), int(d.Value.Month()), 0, 0, 0, 0, time.UTC)
}

func (m *Matcher) compareAmount(field string, inv, po record.AmountField) *domain.Discrepancy {
	if d := incomplete(field, inv.Status, po.Status, inv.String(), po.String()); d != nil {
		return d
	}
	delta := inv.Cents - po.Cents
	if delta < 0 {
		delta = -delta
	}
	if delta <= m.toleranceCents {
		return nil
	}
	return &domain.Discrepancy{
		Field:        field,
		Kind:         domain.DiscrepancyAmountMismatch,
		InvoiceValue: inv.String(),
		POValue:      po.String(),
		Delta:        centsString(delta),
		Message:      fmt.Sprintf("%s differs by %s: invoice %s vs PO %s", field, centsString(delta), inv.String(), po.String()),
	}
}

// incomplete reports an IncompleteData discrepancy when either side is absent
// or unparsable. Both sides absent compare as equal: neither document carries
// the field, so there is nothing to reconcile.
func incomplete(field string, invStatus, poStatus record.FieldStatus, invVal, poVal string) *domain.Discrepancy {
	if invStatus == record.FieldAbsent && poStatus == record.FieldAbsent {
		return nil
	}
	if invStatus == record.FieldPresent && poStatus == record.FieldPresent {
		return nil
	}
	return &domain.Discrepancy{
		Field:        field,
		Kind:         domain.DiscrepancyIncompleteData,
		InvoiceValue: describeIncomplete(invStatus, invVal),
		POValue:      describeIncomplete(poStatus, poVal),
		Message:      fmt.Sprintf("%s could not be compared: invoice %s, PO %s", field, describeIncomplete(invStatus, invVal), describeIncomplete(poStatus, poVal)),
	}
}

func describeIncomplete(status record.FieldStatus, val string) string {
	switch status {
	case record.FieldAbsent:
		return "(missing)"
	case record.FieldUnparsable:
		return fmt.Sprintf("(unparsable: %q)", val)
	default:
		return val
	}
}

func textEqual(a, b string) bool {
	return strings.EqualFold(
		strings.Join(strings.Fields(a), " "),
		strings.Join(strings.Fields(b), " "),
	)
}

func centsString(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
