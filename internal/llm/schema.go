package llm

// CandidateSchemaName labels the candidate schema for providers that need a name.
const CandidateSchemaName = "candidate"

// BuildCandidateJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the provider as a structured output constraint and also use it locally to validate.
// Formats (email, phone) are checked by the validation stage, not here, so that the
// model's sentinel "N/A" always passes the structural contract.
func BuildCandidateJSONSchema() map[string]any {
	props := map[string]any{
		"name":  map[string]any{"type": "string"},
		"email": map[string]any{"type": "string"},
		"phone": map[string]any{"type": "string"},
		"companies": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"name", "email", "phone", "companies"},
	}
}
