package formatter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

var (
	columns = []string{"model", "path", "auth"}
	records = []map[string]any{
		{"model": "Post", "path": "/posts/{id}", "auth": true, "ignored": 1},
		{"model": "Comment", "path": "/comments", "auth": false},
	}
)

func TestDefaultRegistry(t *testing.T) {
	if got := strings.Join(List(), ","); got != "json,table,yaml" {
		t.Errorf("List() = %s", got)
	}
	if _, ok := Get("csv"); ok {
		t.Error("csv should not be registered")
	}
	if err := DefaultRegistry.Register(JSONFormatter{}); err == nil {
		t.Error("registering a name twice should fail")
	}
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (TableFormatter{}).FormatList(&buf, columns, records, FormatOptions{}); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if strings.Join(strings.Fields(lines[0]), " ") != "MODEL PATH AUTH" {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Join(strings.Fields(lines[2]), " ") != "Post /posts/{id} yes" {
		t.Errorf("row = %q", lines[2])
	}
	if strings.Contains(buf.String(), "ignored") {
		t.Error("columns not listed must not be printed")
	}
}

func TestTableFormatter_Options(t *testing.T) {
	var buf bytes.Buffer
	(TableFormatter{}).FormatList(&buf, []string{"path"}, records, FormatOptions{NoHeader: true, MaxWidth: 8})

	if got := strings.Fields(buf.String()); len(got) != 2 || got[0] != "/post..." {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	(TableFormatter{}).FormatList(&buf, columns, nil, FormatOptions{})
	if buf.String() != "No records found.\n" {
		t.Errorf("empty = %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).FormatList(&buf, columns, records, FormatOptions{Compact: true}); err != nil {
		t.Fatal(err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0]["model"] != "Post" || got[0]["auth"] != true {
		t.Errorf("got %v", got)
	}
	if _, ok := got[0]["ignored"]; ok {
		t.Error("unlisted column in output")
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (YAMLFormatter{}).FormatList(&buf, columns, records, FormatOptions{}); err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(buf.String(), "- model: Post\n  path: ") {
		t.Errorf("output =\n%s", buf.String())
	}

	var got []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0]["path"] != "/posts/{id}" || got[1]["auth"] != false {
		t.Errorf("got %v", got)
	}
}
