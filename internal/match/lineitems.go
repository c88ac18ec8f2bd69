package match

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"

	"invomatch/internal/domain"
	"invomatch/internal/record"
)

// compareLineItems pairs invoice items with PO items by best-effort
// description similarity, falling back to position, then compares each pair.
// Unpaired items on either side are reported as extra/missing.
func (m *Matcher) compareLineItems(inv, po []record.CanonicalLineItem) []domain.Discrepancy {
	pairs, extraInv, missingPO := pairItems(inv, po)

	var out []domain.Discrepancy
	for _, p := range pairs {
		out = append(out, m.compareItem(p.invIdx, &inv[p.invIdx], &po[p.poIdx])...)
	}
	for _, idx := range extraInv {
		out = append(out, domain.Discrepancy{
			Field:        fmt.Sprintf("line_items[%d]", idx),
			Kind:         domain.DiscrepancyExtraLineItem,
			InvoiceValue: inv[idx].Description.String(),
			POValue:      "(missing)",
			Message:      fmt.Sprintf("invoice line item %q has no purchase order counterpart", inv[idx].Description.String()),
		})
	}
	for _, idx := range missingPO {
		out = append(out, domain.Discrepancy{
			Field:        fmt.Sprintf("line_items[po:%d]", idx),
			Kind:         domain.DiscrepancyMissingLineItem,
			InvoiceValue: "(missing)",
			POValue:      po[idx].Description.String(),
			Message:      fmt.Sprintf("purchase order line item %q does not appear on the invoice", po[idx].Description.String()),
		})
	}
	return out
}

type itemPair struct {
	invIdx int
	poIdx  int
}

// pairItems runs a greedy assignment: each invoice item claims the most
// similar unclaimed PO item above the similarity threshold; leftovers are
// paired by position when both sides still have an unclaimed item at the
// same index.
func pairItems(inv, po []record.CanonicalLineItem) (pairs []itemPair, extraInv, missingPO []int) {
	claimed := make([]bool, len(po))
	paired := make([]int, len(inv))
	for i := range paired {
		paired[i] = -1
	}

	for i := range inv {
		best, bestScore := -1, 0.0
		for j := range po {
			if claimed[j] {
				continue
			}
			score := descriptionSimilarity(inv[i].Description, po[j].Description)
			if score > bestScore {
				best, bestScore = j, score
			}
		}
		if best >= 0 && bestScore >= descriptionMatchThreshold {
			paired[i] = best
			claimed[best] = true
		}
	}

	// Positional fallback for items the similarity pass left unpaired.
	for i := range inv {
		if paired[i] == -1 && i < len(po) && !claimed[i] {
			paired[i] = i
			claimed[i] = true
		}
	}

	for i, j := range paired {
		if j >= 0 {
			pairs = append(pairs, itemPair{invIdx: i, poIdx: j})
		} else {
			extraInv = append(extraInv, i)
		}
	}
	for j := range po {
		if !claimed[j] {
			missingPO = append(missingPO, j)
		}
	}
	return pairs, extraInv, missingPO
}

func descriptionSimilarity(a, b record.TextField) float64 {
	if a.Status != record.FieldPresent || b.Status != record.FieldPresent {
		return 0
	}
	return levenshtein.Similarity(strings.ToLower(a.Value), strings.ToLower(b.Value), nil)
}

func (m *Matcher) compareItem(idx int, inv, po *record.CanonicalLineItem) []domain.Discrepancy {
	var out []domain.Discrepancy
	prefix := fmt.Sprintf("line_items[%d]", idx)

	if d := m.compareItemQuantity(prefix+".quantity", inv.Quantity, po.Quantity); d != nil {
		out = append(out, *d)
	}
	if d := m.compareAmount(prefix+".unit_price", inv.UnitPrice, po.UnitPrice); d != nil {
		out = append(out, *d)
	}
	if d := m.compareAmount(prefix+".line_total", inv.LineTotal, po.LineTotal); d != nil {
		out = append(out, *d)
	}

	// quantity × unit price ≈ line total, checked on the invoice side when
	// all three factors parsed.
	if inv.Quantity.Status == record.FieldPresent &&
		inv.UnitPrice.Status == record.FieldPresent &&
		inv.LineTotal.Status == record.FieldPresent {
		expected := int64(inv.Quantity.Value*float64(inv.UnitPrice.Cents) + 0.5)
		delta := expected - inv.LineTotal.Cents
		if delta < 0 {
			delta = -delta
		}
		if delta > m.toleranceCents {
			out = append(out, domain.Discrepancy{
				Field:        prefix + ".line_total",
				Kind:         domain.DiscrepancyAmountMismatch,
				InvoiceValue: inv.LineTotal.String(),
				POValue:      po.LineTotal.String(),
				Delta:        centsString(delta),
				Message: fmt.Sprintf("%s: quantity × unit price is %s but line total reads %s",
					prefix, centsString(expected), inv.LineTotal.String()),
			})
		}
	}
	return out
}

func (m *Matcher) compareItemQuantity(field string, inv, po record.QuantityField) *domain.Discrepancy {
	if d := incomplete(field, inv.Status, po.Status, inv.String(), po.String()); d != nil {
		return d
	}
	if inv.Value == po.Value {
		return nil
	}
	return &domain.Discrepancy{
		Field:        field,
		Kind:         domain.DiscrepancyAmountMismatch,
		InvoiceValue: inv.String(),
		POValue:      po.String(),
		Message:      fmt.Sprintf("%s differs: invoice %s vs PO %s", field, inv.String(), po.String()),
	}
}
