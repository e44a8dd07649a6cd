// Package query parses list and count filters from URL query parameters.
//
// Reserved parameters:
//
//	_limit=10            maximum number of rows, negative for no limit
//	_start=20            offset
//	_sort=name:DESC,id   sort order, ASC by default
//
// Any other parameter filters a field: name=v tests equality and name_<op>=v
// applies one of the operators below. _in and _nin take repeated values.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Operator is a filter comparison.
type Operator string

const (
	OpEq        Operator = "eq"
	OpNe        Operator = "ne"
	OpLt        Operator = "lt"
	OpLte       Operator = "lte"
	OpGt        Operator = "gt"
	OpGte       Operator = "gte"
	OpContains  Operator = "contains"
	OpContainsS Operator = "containss"
	OpIn        Operator = "in"
	OpNin       Operator = "nin"
)

// suffix operators, longest first so "_containss" is not read as "_contains".
var suffixes = []Operator{OpContainsS, OpContains, OpLte, OpGte, OpNin, OpNe, OpLt, OpGt, OpIn}

// Multi reports whether the operator takes a list of values.
func (o Operator) Multi() bool {
	return o == OpIn || o == OpNin
}

// Condition is a single field filter.
type Condition struct {
	Field  string
	Op     Operator
	Values []string
}

// Value returns the first value.
func (c Condition) Value() string {
	if len(c.Values) == 0 {
		return ""
	}
	return c.Values[0]
}

// Sort is one ordering term.
type Sort struct {
	Field string
	Desc  bool
}

// Query is a parsed filter.
type Query struct {
	Conditions []Condition
	Sort       []Sort

	// Limit is the maximum number of rows; negative means no limit.
	Limit  int
	Offset int
}

// Empty returns a query with no conditions and no limit.
func Empty() Query {
	return Query{Limit: -1}
}

// Parse reads a Query from URL values. Conditions are ordered by parameter
// name so the generated SQL is stable.
func Parse(values url.Values) (Query, error) {
	q := Empty()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		vals := values[key]
		if len(vals) == 0 {
			continue
		}

		switch key {
		case "_limit":
			n, err := strconv.Atoi(vals[0])
			if err != nil {
				return Query{}, fmt.Errorf("_limit: %q is not an integer", vals[0])
			}
			q.Limit = n
			continue
		case "_start":
			n, err := strconv.Atoi(vals[0])
			if err != nil || n < 0 {
				return Query{}, fmt.Errorf("_start: %q is not a non-negative integer", vals[0])
			}
			q.Offset = n
			continue
		case "_sort":
			s, err := parseSort(vals[0])
			if err != nil {
				return Query{}, err
			}
			q.Sort = s
			continue
		}

		field, op := splitKey(strings.TrimSuffix(key, "[]"))
		if field == "" {
			return Query{}, fmt.Errorf("%s: missing field name", key)
		}
		if !op.Multi() {
			vals = vals[:1]
		}
		q.Conditions = append(q.Conditions, Condition{Field: field, Op: op, Values: vals})
	}

	return q, nil
}

func splitKey(key string) (string, Operator) {
	for _, op := range suffixes {
		if suffix := "_" + string(op); strings.HasSuffix(key, suffix) {
			return strings.TrimSuffix(key, suffix), op
		}
	}
	return key, OpEq
}

func parseSort(raw string) ([]Sort, error) {
	var out []Sort
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		field, dir, _ := strings.Cut(part, ":")
		s := Sort{Field: strings.TrimSpace(field)}
		switch strings.ToUpper(strings.TrimSpace(dir)) {
		case "", "ASC":
		case "DESC":
			s.Desc = true
		default:
			return nil, fmt.Errorf("_sort: invalid direction %q", dir)
		}
		out = append(out, s)
	}
	return out, nil
}

// Param describes a filter query parameter for API documentation.
type Param struct {
	Name   string
	Type   string
	Format string
	Array  bool
	Desc   string
}

// Params returns the documented filter parameters.
func Params() []Param {
	return []Param{
		{Name: "_limit", Type: "integer", Desc: "Maximum number of results, negative for no limit"},
		{Name: "_sort", Type: "string", Desc: "Sort order, field:ASC or field:DESC, comma separated"},
		{Name: "_start", Type: "string", Desc: "Number of results to skip"},
		{Name: "_ne", Type: "string", Desc: "Not equal, used as <field>_ne"},
		{Name: "_lt", Type: "string", Desc: "Less than, used as <field>_lt"},
		{Name: "_lte", Type: "string", Desc: "Less than or equal, used as <field>_lte"},
		{Name: "_gt", Type: "string", Desc: "Greater than, used as <field>_gt"},
		{Name: "_gte", Type: "string", Desc: "Greater than or equal, used as <field>_gte"},
		{Name: "_contains", Type: "string", Desc: "Contains, case-insensitive, used as <field>_contains"},
		{Name: "_containss", Type: "string", Desc: "Contains, case-sensitive, used as <field>_containss"},
		{Name: "_in", Type: "string", Array: true, Desc: "Matches any of the values, used as <field>_in"},
		{Name: "_nin", Type: "string", Array: true, Desc: "Matches none of the values, used as <field>_nin"},
	}
}
