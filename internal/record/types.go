package record

import (
	"time"

	"invomatch/internal/domain"
)

// FieldStatus is the explicit presence state of a field. Absence and
// unparsability are first-class states so the matcher never has to guess
// from zero values.
type FieldStatus string

const (
	FieldPresent    FieldStatus = "present"
	FieldUnparsable FieldStatus = "unparsable"
	FieldAbsent     FieldStatus = "absent"
)

// Field is a loosely-typed extracted value prior to normalization.
type Field struct {
	Status FieldStatus `json:"status"`
	Raw    string      `json:"raw,omitempty"`
}

// Present wraps a raw extracted string. Empty strings count as absent:
// the extraction prompt uses "" for fields not found on the document.
func Present(raw string) Field {
	if raw == "" {
		return Absent()
	}
	return Field{Status: FieldPresent, Raw: raw}
}

// Absent marks a field the model did not produce.
func Absent() Field {
	return Field{Status: FieldAbsent}
}

// ExtractedLineItem is one loosely-typed line item.
type ExtractedLineItem struct {
	Description Field `json:"description"`
	Quantity    Field `json:"quantity"`
	UnitPrice   Field `json:"unit_price"`
	LineTotal   Field `json:"line_total"`
}

// Extracted is the raw structured record produced by the extraction client.
// Produced fields are a subset of the declared schema; nothing is fabricated.
type Extracted struct {
	Kind           domain.DocumentKind `json:"kind"`
	DocumentNumber Field               `json:"document_number"`
	DocumentDate   Field               `json:"document_date"`
	VendorName     Field               `json:"vendor_name"`
	LineItems      []ExtractedLineItem `json:"line_items"`
	Subtotal       Field               `json:"subtotal"`
	Tax            Field               `json:"tax"`
	Total          Field               `json:"total"`
}

// TextField is a normalized free-text value.
type TextField struct {
	Status FieldStatus `json:"status"`
	Value  string      `json:"value,omitempty"`
	Raw    string      `json:"raw,omitempty"`
}

// DateField is a calendar date. Value is midnight UTC of the document date.
// LowConfidence is set when the source representation was ambiguous
// (e.g. 03/04/2024) and a day-first reading was assumed.
type DateField struct {
	Status        FieldStatus `json:"status"`
	Value         time.Time   `json:"value,omitempty"`
	Raw           string      `json:"raw,omitempty"`
	LowConfidence bool        `json:"low_confidence,omitempty"`
}

// AmountField is a currency amount with fixed 2-decimal precision, held in
// cents to keep comparisons exact. The currency itself is assumed uniform
// across both documents; symbols are stripped during normalization.
type AmountField struct {
	Status FieldStatus `json:"status"`
	Cents  int64       `json:"cents,omitempty"`
	Raw    string      `json:"raw,omitempty"`
}

// QuantityField is a numeric quantity.
type QuantityField struct {
	Status FieldStatus `json:"status"`
	Value  float64     `json:"value,omitempty"`
	Raw    string      `json:"raw,omitempty"`
}

// CanonicalLineItem is a line item after type coercion.
type CanonicalLineItem struct {
	Description TextField     `json:"description"`
	Quantity    QuantityField `json:"quantity"`
	UnitPrice   AmountField   `json:"unit_price"`
	LineTotal   AmountField   `json:"line_total"`
}

// Canonical is the comparable form of an extracted record. Every field that
// was present in the Extracted record maps to exactly one typed value or an
// explicit unparsable marker; normalization never drops a field.
type Canonical struct {
	Kind           domain.DocumentKind `json:"kind"`
	DocumentNumber TextField           `json:"document_number"`
	DocumentDate   DateField           `json:"document_date"`
	VendorName     TextField           `json:"vendor_name"`
	LineItems      []CanonicalLineItem `json:"line_items"`
	Subtotal       AmountField         `json:"subtotal"`
	Tax            AmountField         `json:"tax"`
	Total          AmountField         `json:"total"`
}

// String renders the amount in plain 2-decimal form, or the raw text when
// the value did not parse.
func (a AmountField) String() string {
	switch a.Status {
	case FieldPresent:
		return formatCents(a.Cents)
	case FieldUnparsable:
		return a.Raw
	default:
		return ""
	}
}

// String renders the date in ISO form, or the raw text when unparsable.
func (d DateField) String() string {
	switch d.Status {
	case FieldPresent:
		return d.Value.Format("2006-01-02")
	case FieldUnparsable:
		return d.Raw
	default:
		return ""
	}
}

// String returns the normalized text value.
func (t TextField) String() string {
	if t.Status == FieldAbsent {
		return ""
	}
	return t.Value
}

// String renders the quantity, trimming a trailing ".00" for whole numbers.
func (q QuantityField) String() string {
	switch q.Status {
	case FieldPresent:
		return formatQuantity(q.Value)
	case FieldUnparsable:
		return q.Raw
	default:
		return ""
	}
}

// ToExtracted converts the canonical record back to its loose form, carrying
// the original raw values. Normalizing the result reproduces the canonical
// record exactly, which is what makes normalization idempotent.
func (c *Canonical) ToExtracted() *Extracted {
	e := &Extracted{
		Kind:           c.Kind,
		DocumentNumber: looseText(c.DocumentNumber),
		DocumentDate:   looseDate(c.DocumentDate),
		VendorName:     looseText(c.VendorName),
		Subtotal:       looseAmount(c.Subtotal),
		Tax:            looseAmount(c.Tax),
		Total:          looseAmount(c.Total),
	}
	for _, item := range c.LineItems {
		e.LineItems = append(e.LineItems, ExtractedLineItem{
			Description: looseText(item.Description),
			Quantity:    looseQuantity(item.Quantity),
			UnitPrice:   looseAmount(item.UnitPrice),
			LineTotal:   looseAmount(item.LineTotal),
		})
	}
	return e
}

func looseText(t TextField) Field {
	if t.Status == FieldAbsent {
		return Absent()
	}
	return Field{Status: FieldPresent, Raw: t.Raw}
}

func looseDate(d DateField) Field {
	if d.Status == FieldAbsent {
		return Absent()
	}
	return Field{Status: FieldPresent, Raw: d.Raw}
}

func looseAmount(a AmountField) Field {
	if a.Status == FieldAbsent {
		return Absent()
	}
	return Field{Status: FieldPresent, Raw: a.Raw}
}

func looseQuantity(q QuantityField) Field {
	if q.Status == FieldAbsent {
		return Absent()
	}
	return Field{Status: FieldPresent, Raw: q.Raw}
}
