package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"invomatch/internal/domain"
	"invomatch/internal/record"
)

// DecodeRecord validates the model's JSON against the field schema and maps
// it to an Extracted record. Unknown keys are ignored; missing keys become
// explicitly absent fields. Anything that fails to parse as the expected
// structure is an ErrExtractionParse: model output is untrusted input.
func DecodeRecord(raw []byte, kind domain.DocumentKind) (*record.Extracted, error) {
	if err := ValidateJSONAgainstSchema(BuildRecordJSONSchema(), raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionParse, err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionParse, err)
	}

	rec := &record.Extracted{
		Kind:           kind,
		DocumentNumber: fieldFrom(m, "document_number"),
		DocumentDate:   fieldFrom(m, "document_date"),
		VendorName:     fieldFrom(m, "vendor_name"),
		Subtotal:       fieldFrom(m, "subtotal"),
		Tax:            fieldFrom(m, "tax"),
		Total:          fieldFrom(m, "total"),
	}

	items, _ := m["line_items"].([]any)
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		rec.LineItems = append(rec.LineItems, record.ExtractedLineItem{
			Description: fieldFrom(obj, "description"),
			Quantity:    fieldFrom(obj, "quantity"),
			UnitPrice:   fieldFrom(obj, "unit_price"),
			LineTotal:   fieldFrom(obj, "line_total"),
		})
	}
	return rec, nil
}

// fieldFrom reads one scalar from the decoded JSON. Strings are trimmed;
// numbers (the model sometimes ignores the strings-only instruction) are
// reformatted; absent, null and empty values all map to the absent state.
func fieldFrom(m map[string]any, key string) record.Field {
	v, ok := m[key]
	if !ok || v == nil {
		return record.Absent()
	}
	switch t := v.(type) {
	case string:
		return record.Present(strings.TrimSpace(t))
	case float64:
		return record.Present(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return record.Absent()
	}
}
