package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Contract is a reply schema compiled once and shared by every extraction call.
type Contract struct {
	name   string
	raw    map[string]any
	schema *jsonschema.Schema
}

// CompileContract compiles schemaMap under Draft 2020-12.
func CompileContract(name string, schemaMap map[string]any) (*Contract, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	url := name + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Contract{name: name, raw: schemaMap, schema: schema}, nil
}

var candidateContract = sync.OnceValues(func() (*Contract, error) {
	return CompileContract(CandidateSchemaName, BuildCandidateJSONSchema())
})

// CandidateContract returns the compiled candidate record schema.
func CandidateContract() (*Contract, error) { return candidateContract() }

func (c *Contract) Name() string { return c.name }

// Schema is the JSON schema map sent to providers with the request.
func (c *Contract) Schema() map[string]any { return c.raw }

// Validate reports every location where data departs from the contract.
func (c *Contract) Validate(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("reply is not json: %w", err)
	}
	if err := c.schema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("reply does not match %s schema: %s", c.name, strings.Join(leafErrors(ve), "; "))
		}
		return fmt.Errorf("reply does not match %s schema: %w", c.name, err)
	}
	return nil
}

// ValidateJSONAgainstSchema compiles schemaMap and validates data in one go.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	c, err := CompileContract("schema", schemaMap)
	if err != nil {
		return err
	}
	return c.Validate(data)
}

// leafErrors flattens the cause tree to "location: message" lines.
func leafErrors(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{loc + ": " + ve.Message}
	}
	var out []string
	for _, c := range ve.Causes {
		out = append(out, leafErrors(c)...)
	}
	return out
}
