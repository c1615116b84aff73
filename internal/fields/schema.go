package fields

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/xeipuuv/gojsonschema"
)

const fieldSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["aadhaar_number", "name", "age", "gender"],
  "properties": {
    "aadhaar_number": {"type": "string", "pattern": "^[0-9]{12}$"},
    "name": {"type": "string", "minLength": 1, "maxLength": 200},
    "age": {"type": "integer", "minimum": 0, "maximum": 150},
    "gender": {"type": "string", "enum": ["Male", "Female", "Transgender"]}
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(fieldSchema))
})

// parseFields decodes a provider reply, normalizes the Aadhaar number and
// gender, and validates the result against the field schema.
func parseFields(raw string) (Fields, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Fields{}, &SchemaError{Problems: []string{"reply is not a JSON object: " + err.Error()}}
	}

	if v, ok := doc["aadhaar_number"].(string); ok {
		doc["aadhaar_number"] = stripSpaces(v)
	}
	if v, ok := doc["name"].(string); ok {
		doc["name"] = strings.TrimSpace(v)
	}
	if v, ok := doc["gender"].(string); ok {
		doc["gender"] = normalizeGender(v)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return Fields{}, &SchemaError{Problems: []string{err.Error()}}
	}

	schema, err := compiledSchema()
	if err != nil {
		return Fields{}, fmt.Errorf("compile field schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(normalized))
	if err != nil {
		return Fields{}, &SchemaError{Problems: []string{err.Error()}}
	}
	if !result.Valid() {
		problems := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			problems[i] = desc.String()
		}
		return Fields{}, &SchemaError{Problems: problems}
	}

	var f Fields
	if err := json.Unmarshal(normalized, &f); err != nil {
		return Fields{}, &SchemaError{Problems: []string{err.Error()}}
	}
	return f, nil
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, s)
}

func normalizeGender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return "Male"
	case "female", "f":
		return "Female"
	case "transgender", "t":
		return "Transgender"
	default:
		return strings.TrimSpace(s)
	}
}
