package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Normalize coerces an extracted record into its canonical comparable form.
// It never fails and never drops a field: values that resist parsing are
// marked unparsable and flow downstream as incomplete data.
func Normalize(e *Extracted) *Canonical {
	c := &Canonical{
		Kind:           e.Kind,
		DocumentNumber: normalizeText(e.DocumentNumber),
		DocumentDate:   normalizeDate(e.DocumentDate),
		VendorName:     normalizeText(e.VendorName),
		Subtotal:       normalizeAmount(e.Subtotal),
		Tax:            normalizeAmount(e.Tax),
		Total:          normalizeAmount(e.Total),
	}
	for _, item := range e.LineItems {
		c.LineItems = append(c.LineItems, CanonicalLineItem{
			Description: normalizeText(item.Description),
			Quantity:    normalizeQuantity(item.Quantity),
			UnitPrice:   normalizeAmount(item.UnitPrice),
			LineTotal:   normalizeAmount(item.LineTotal),
		})
	}
	return c
}

func normalizeText(f Field) TextField {
	if f.Status != FieldPresent {
		return TextField{Status: FieldAbsent}
	}
	collapsed := strings.Join(strings.Fields(f.Raw), " ")
	if collapsed == "" {
		return TextField{Status: FieldAbsent}
	}
	return TextField{Status: FieldPresent, Value: collapsed, Raw: f.Raw}
}

func normalizeDate(f Field) DateField {
	if f.Status != FieldPresent {
		return DateField{Status: FieldAbsent}
	}
	t, ambiguous, ok := parseDate(f.Raw)
	if !ok {
		return DateField{Status: FieldUnparsable, Raw: f.Raw}
	}
	return DateField{Status: FieldPresent, Value: t, Raw: f.Raw, LowConfidence: ambiguous}
}

func normalizeAmount(f Field) AmountField {
	if f.Status != FieldPresent {
		return AmountField{Status: FieldAbsent}
	}
	cents, ok := parseAmountCents(f.Raw)
	if !ok {
		// Never default to zero: a zeroed amount would hide a real discrepancy.
		return AmountField{Status: FieldUnparsable, Raw: f.Raw}
	}
	return AmountField{Status: FieldPresent, Cents: cents, Raw: f.Raw}
}

func normalizeQuantity(f Field) QuantityField {
	if f.Status != FieldPresent {
		return QuantityField{Status: FieldAbsent}
	}
	s := strings.TrimSpace(f.Raw)
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return QuantityField{Status: FieldUnparsable, Raw: f.Raw}
	}
	return QuantityField{Status: FieldPresent, Value: v, Raw: f.Raw}
}

// textualLayouts cover month-name date forms commonly seen on invoices.
var textualLayouts = []string{
	"2 January 2006",
	"02 January 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2-Jan-2006",
	"02-Jan-2006",
}

// parseDate accepts ISO, day-first, month-first and textual month forms.
// For purely numeric dates where both leading components could be a month,
// a day-first reading is preferred and the result is flagged ambiguous.
func parseDate(raw string) (t time.Time, ambiguous bool, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false, false
	}

	for _, layout := range textualLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), false, true
		}
	}

	parts := splitDateParts(s)
	if len(parts) != 3 {
		return time.Time{}, false, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false, false
		}
		nums[i] = n
	}

	// Four-digit leading component means year-first (ISO-like).
	if len(parts[0]) == 4 {
		return makeDate(nums[0], nums[1], nums[2])
	}

	year := nums[2]
	if len(parts[2]) == 2 {
		year += 2000
	}
	a, b := nums[0], nums[1]
	switch {
	case a > 12 && b <= 12:
		// Day-first, unambiguous.
		return makeDate(year, b, a)
	case b > 12 && a <= 12:
		// Month-first, unambiguous.
		return makeDate(year, a, b)
	case a == b:
		return makeDate(year, b, a)
	default:
		// Both readings are valid months: assume day-first, flag it.
		t, _, ok := makeDate(year, b, a)
		return t, ok, ok
	}
}

func makeDate(year, month, day int) (time.Time, bool, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2200 {
		return time.Time{}, false, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject day overflow (e.g. 31-02 rolling into March).
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false, false
	}
	return t, false, true
}

func splitDateParts(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.' || r == ' '
	})
}

// parseAmountCents strips currency symbols, codes and thousands separators
// and parses the remainder to an exact cent count.
func parseAmountCents(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	// Keep digits, separators and sign; currency symbols and alphabetic
	// codes (USD, Rs, INR) are dropped.
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-':
			negative = true
		}
	}
	// Separators stranded at the edges come from abbreviations like "Rs.",
	// not from the number itself.
	s = strings.Trim(b.String(), ".,")
	if !strings.ContainsAny(s, "0123456789") {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// The later separator is the decimal point; the other groups thousands.
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastComma >= 0:
		// A lone comma followed by exactly 3 digits is a thousands separator;
		// 1-2 trailing digits read as a decimal comma.
		tail := len(s) - lastComma - 1
		if tail == 3 || strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		f = -f
	}
	return int64(math.Round(f * 100)), true
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func formatQuantity(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
