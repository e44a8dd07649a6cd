// Package validation checks entity rows against the JSON Schema derived from
// their persistence schema. Rows are validated before they are written.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/artpar/modelgate/core/convention"
)

// Error lists every rule a row violated.
type Error struct {
	Model   string
	Details []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s is not valid: %s", e.Model, strings.Join(e.Details, "; "))
}

// Validator validates rows of one schema.
type Validator struct {
	model  string
	schema *gojsonschema.Schema
}

// New compiles a validator for the derived schema.
func New(d *convention.Derived) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(JSONSchema(d)))
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", d.Name, err)
	}
	return &Validator{model: d.Name, schema: compiled}, nil
}

// Validate checks a complete row. Auto-increment keys may be absent.
func (v *Validator) Validate(row map[string]any) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(row))
	if err != nil {
		return fmt.Errorf("validate %s: %w", v.model, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, e.String())
	}
	return &Error{Model: v.model, Details: details}
}

// JSONSchema returns the JSON Schema document for rows of d.
func JSONSchema(d *convention.Derived) map[string]any {
	props := make(map[string]any)
	required := []string{}

	for _, c := range d.Columns() {
		typ, format := c.Kind.JSONType()

		p := map[string]any{}
		if c.Nullable {
			p["type"] = []string{typ, "null"}
		} else {
			p["type"] = typ
		}
		if format != "" && format != "int64" {
			p["format"] = format
		}
		if typ == "integer" {
			p["minimum"] = int64(math.MinInt64)
			p["maximum"] = int64(math.MaxInt64)
		}
		if c.Length > 0 && typ == "string" {
			p["maxLength"] = c.Length
		}
		props[c.Name] = p

		if !c.Nullable && !c.AutoIncrement {
			required = append(required, c.Name)
		}
	}

	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                d.Name,
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}
