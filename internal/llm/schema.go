package llm

// ResponseSchema returns the JSON Schema of a normalized Record. It is sent
// to providers that accept a structured-output constraint.
func ResponseSchema() map[string]any {
	props := make(map[string]any, len(scalarFields)+len(itemFields))
	required := make([]string, 0, len(scalarFields)+len(itemFields))
	for _, f := range scalarFields {
		props[f.Key] = map[string]any{"type": "string"}
		required = append(required, f.Key)
	}
	for _, f := range itemFields {
		props[f.Key] = map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		}
		required = append(required, f.Key)
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
