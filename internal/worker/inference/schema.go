package inference

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resultSchema constrains the payload crossing the worker/inference
// boundary: named fields with fixed semantic types, nothing extra.
func resultSchema() map[string]any {
	probability := map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"model_used":       map[string]any{"type": "string", "minLength": 1},
			"prediction":       map[string]any{"type": "string", "enum": []string{"REAL", "FAKE"}},
			"probability_fake": probability,
			"probability_real": probability,
			"confidence_score": probability,
		},
		"required": []string{"model_used", "prediction", "probability_fake", "probability_real", "confidence_score"},
	}
}

// compileResultSchema compiles the result schema once at client init.
func compileResultSchema() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(resultSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("inference_result.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	schema, err := compiler.Compile("inference_result.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validateResult checks data against the result schema.
func validateResult(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("result does not match schema: %w", err)
	}
	return nil
}
