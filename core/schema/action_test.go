package schema

import "testing"

func TestParseOperation(t *testing.T) {
	for _, op := range Operations() {
		got, err := ParseOperation(op.String())
		if err != nil {
			t.Fatalf("ParseOperation(%q): %v", op.String(), err)
		}
		if got != op {
			t.Errorf("ParseOperation(%q) = %v, want %v", op.String(), got, op)
		}
	}

	if op, err := ParseOperation("FINDBYID"); err != nil || op != OpFindByID {
		t.Errorf("case-insensitive lookup failed: %v, %v", op, err)
	}

	if _, err := ParseOperation("truncate"); err == nil {
		t.Error("expected error for unknown operation")
	}
}

func TestOperationTraits(t *testing.T) {
	tests := []struct {
		op                 Operation
		id, body, filtered bool
	}{
		{OpCount, false, false, true},
		{OpFindByID, true, false, false},
		{OpUpdateByID, true, true, false},
		{OpDeleteByID, true, false, false},
		{OpFindAll, false, false, true},
		{OpCreate, false, true, false},
	}
	for _, tt := range tests {
		if tt.op.TakesID() != tt.id {
			t.Errorf("%v.TakesID() = %v", tt.op, tt.op.TakesID())
		}
		if tt.op.TakesBody() != tt.body {
			t.Errorf("%v.TakesBody() = %v", tt.op, tt.op.TakesBody())
		}
		if tt.op.TakesFilter() != tt.filtered {
			t.Errorf("%v.TakesFilter() = %v", tt.op, tt.op.TakesFilter())
		}
	}
}

func TestParseVerb(t *testing.T) {
	if v, err := ParseVerb("get"); err != nil || v != "GET" {
		t.Errorf("ParseVerb(get) = %q, %v", v, err)
	}
	if _, err := ParseVerb("trace"); err == nil {
		t.Error("expected error for unsupported verb")
	}
}
