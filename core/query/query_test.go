package query

import (
	"net/url"
	"testing"
)

func TestParse(t *testing.T) {
	values := url.Values{
		"_limit":         {"10"},
		"_start":         {"5"},
		"_sort":          {"name:DESC, id"},
		"name_containss": {"Go"},
		"title_contains": {"go"},
		"price_gte":      {"3"},
		"status":         {"open"},
		"id_in[]":        {"1", "2", "3"},
		"kind_nin":       {"a", "b"},
		"age_ne":         {"40", "41"},
	}

	q, err := Parse(values)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if q.Limit != 10 || q.Offset != 5 {
		t.Errorf("Limit = %d, Offset = %d", q.Limit, q.Offset)
	}
	if len(q.Sort) != 2 || q.Sort[0] != (Sort{Field: "name", Desc: true}) || q.Sort[1] != (Sort{Field: "id"}) {
		t.Errorf("Sort = %+v", q.Sort)
	}

	want := map[string]Condition{
		"age":    {Field: "age", Op: OpNe, Values: []string{"40"}},
		"id":     {Field: "id", Op: OpIn, Values: []string{"1", "2", "3"}},
		"kind":   {Field: "kind", Op: OpNin, Values: []string{"a", "b"}},
		"name":   {Field: "name", Op: OpContainsS, Values: []string{"Go"}},
		"price":  {Field: "price", Op: OpGte, Values: []string{"3"}},
		"status": {Field: "status", Op: OpEq, Values: []string{"open"}},
		"title":  {Field: "title", Op: OpContains, Values: []string{"go"}},
	}
	if len(q.Conditions) != len(want) {
		t.Fatalf("Conditions = %+v", q.Conditions)
	}
	for _, c := range q.Conditions {
		w, ok := want[c.Field]
		if !ok {
			t.Errorf("unexpected condition %+v", c)
			continue
		}
		if c.Op != w.Op || len(c.Values) != len(w.Values) {
			t.Errorf("%s: got %+v, want %+v", c.Field, c, w)
			continue
		}
		for i := range w.Values {
			if c.Values[i] != w.Values[i] {
				t.Errorf("%s: Values = %v, want %v", c.Field, c.Values, w.Values)
			}
		}
	}
}

func TestParse_Empty(t *testing.T) {
	q, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if q.Limit != -1 || q.Offset != 0 || len(q.Conditions) != 0 {
		t.Errorf("empty query = %+v", q)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []url.Values{
		{"_limit": {"ten"}},
		{"_start": {"-1"}},
		{"_sort": {"name:SIDEWAYS"}},
		{"_ne": {"x"}},
	}
	for _, v := range tests {
		if _, err := Parse(v); err == nil {
			t.Errorf("Parse(%v) should fail", v)
		}
	}
}

func TestParams(t *testing.T) {
	params := Params()
	if len(params) != 12 {
		t.Fatalf("Params() = %d entries, want 12", len(params))
	}
	arrays := 0
	for _, p := range params {
		if p.Array {
			arrays++
		}
	}
	if arrays != 2 {
		t.Errorf("array params = %d, want 2 (_in, _nin)", arrays)
	}
}
