package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildRecordJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// extraction response. Every field is optional, since absence is meaningful,
// but anything present must have the declared shape. Numbers are tolerated where
// the model ignores the strings-only instruction; the normalizer copes.
func BuildRecordJSONSchema() map[string]any {
	looseScalar := map[string]any{
		"type": []string{"string", "number"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_number": looseScalar,
			"document_date":   looseScalar,
			"vendor_name":     looseScalar,
			"line_items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"description": looseScalar,
						"quantity":    looseScalar,
						"unit_price":  looseScalar,
						"line_total":  looseScalar,
					},
				},
			},
			"subtotal": looseScalar,
			"tax":      looseScalar,
			"total":    looseScalar,
		},
	}
}

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
