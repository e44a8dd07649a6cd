package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/schema"
)

func testValidator(t *testing.T) *Validator {
	t.Helper()
	d := convention.Derive(schema.Definition{Name: "item"}, schema.Properties{
		{Name: "name", Type: "string", Length: 5, Required: true},
		{Name: "count", Type: "integer"},
		{Name: "active", Type: "boolean"},
		{Name: "ref", Type: "uuid"},
		{Name: "at", Type: "date"},
	})
	v, err := New(&d)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return v
}

func TestValidate_Valid(t *testing.T) {
	v := testValidator(t)

	rows := []map[string]any{
		{"name": "abc"},
		{"name": "abc", "count": float64(3), "active": true, "ref": "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"name": "abc", "count": nil, "at": "2024-01-02T03:04:05Z"},
		{"name": "abc", "count": json.Number("9223372036854775807")},
		{"id": int64(7), "name": "abcde"},
	}
	for _, row := range rows {
		if err := v.Validate(row); err != nil {
			t.Errorf("Validate(%v) = %v", row, err)
		}
	}
}

func TestValidate_Invalid(t *testing.T) {
	v := testValidator(t)

	tests := []struct {
		name string
		row  map[string]any
		want string
	}{
		{"missing required", map[string]any{}, "name"},
		{"null required", map[string]any{"name": nil}, "name"},
		{"too long", map[string]any{"name": "abcdef"}, "name"},
		{"not an integer", map[string]any{"name": "a", "count": 1.5}, "count"},
		{"wrong type", map[string]any{"name": "a", "active": "yes"}, "active"},
		{"bad date", map[string]any{"name": "a", "at": "yesterday"}, "at"},
		{"unknown field", map[string]any{"name": "a", "extra": 1}, "extra"},
		{"above int64", map[string]any{"name": "a", "count": json.Number("123456789012345678901234567890")}, "count"},
		{"below int64", map[string]any{"name": "a", "count": json.Number("-9223372036854775809")}, "count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.row)
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *Error", err)
			}
			if verr.Model != "Item" {
				t.Errorf("Model = %q", verr.Model)
			}
			if !strings.Contains(verr.Error(), tt.want) {
				t.Errorf("error %q should mention %q", verr.Error(), tt.want)
			}
		})
	}
}

func TestJSONSchema(t *testing.T) {
	d := convention.Derive(schema.Definition{Name: "item"}, schema.Properties{
		{Name: "name", Type: "string", Required: true},
	})

	s := JSONSchema(&d)
	required, _ := s["required"].([]string)
	if len(required) != 1 || required[0] != "name" {
		t.Errorf("required = %v, want [name]; auto-increment id must not be required", required)
	}
	props := s["properties"].(map[string]any)
	if _, ok := props["id"]; !ok {
		t.Error("implicit id should be described")
	}
}
