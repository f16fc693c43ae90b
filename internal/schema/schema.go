// Package schema holds the JSON Schema of a parsed schedule and validates
// results against it before they are stored or returned.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const clockPattern = `^([01]\d|2[0-3]):[0-5]\d$`

// BuildResultJSONSchema returns the schema of a parse result as a generic map.
// When facilities is non-empty, company must be one of them or null.
func BuildResultJSONSchema(facilities []string) map[string]any {
	entry := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"start_time":      map[string]any{"type": "string", "pattern": clockPattern},
			"end_time":        map[string]any{"type": "string", "pattern": `^(([01]\d|2[0-3]):[0-5]\d)?$`},
			"duration":        map[string]any{"type": "string"},
			"surgeon":         map[string]any{"type": "string"},
			"procedure":       map[string]any{"type": "string"},
			"anesthesia":      map[string]any{"type": "string"},
			"tags":            map[string]any{"type": "string"},
			"mrn":             map[string]any{"type": "string"},
			"age":             map[string]any{"type": "string"},
			"sex":             map[string]any{"type": "string"},
			"gender_identity": map[string]any{"type": "string"},
		},
		"required": []string{
			"start_time", "end_time", "duration", "surgeon", "procedure",
			"anesthesia", "tags", "mrn", "age", "sex",
		},
	}

	company := map[string]any{"type": []string{"string", "null"}}
	if len(facilities) > 0 {
		enum := make([]any, 0, len(facilities)+1)
		for _, f := range facilities {
			enum = append(enum, f)
		}
		company["enum"] = append(enum, nil)
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"company": company,
			"or_sections": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "array", "items": entry},
			},
		},
		"required": []string{"company", "or_sections"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
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
