package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	doc := `
definition:
  name: post
  description: Blog posts

properties:
  id:     { type: integer, isId: true }
  title:  { type: string, length: 120, required: true }
  body:   text
  secret: { type: string, hidden: true }

relations:
  comments: { type: hasMany, model: comment }
  author:   { type: belongsTo, model: user, foreignKey: authorId, options: { as: writer } }

routes:
  - { route: /, method: create, handler: post, permission: authenticated }
`

	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if s.Definition.Name != "post" {
		t.Errorf("Name = %q, want %q", s.Definition.Name, "post")
	}
	if s.Definition.PluralName() != "posts" {
		t.Errorf("PluralName() = %q, want %q", s.Definition.PluralName(), "posts")
	}

	wantOrder := []string{"id", "title", "body", "secret"}
	if len(s.Properties) != len(wantOrder) {
		t.Fatalf("Properties has %d entries, want %d", len(s.Properties), len(wantOrder))
	}
	for i, name := range wantOrder {
		if s.Properties[i].Name != name {
			t.Errorf("Properties[%d] = %q, want %q", i, s.Properties[i].Name, name)
		}
	}

	title, _ := s.Properties.Get("title")
	if !title.Required || title.Length != 120 {
		t.Errorf("title = %+v, want required with length 120", title)
	}
	body, _ := s.Properties.Get("body")
	if body.Type != "text" {
		t.Errorf("body.Type = %q, want shorthand %q", body.Type, "text")
	}
	secret, _ := s.Properties.Get("secret")
	if !secret.Hidden {
		t.Error("secret should be hidden")
	}

	if len(s.Relations) != 2 {
		t.Fatalf("Relations has %d entries, want 2", len(s.Relations))
	}
	if s.Relations[0].Name != "comments" || s.Relations[1].Name != "author" {
		t.Errorf("relation order = %q, %q", s.Relations[0].Name, s.Relations[1].Name)
	}
	if s.Relations[1].ForeignKey != "authorId" {
		t.Errorf("ForeignKey = %q, want %q", s.Relations[1].ForeignKey, "authorId")
	}
	if s.Relations[1].Options["as"] != "writer" {
		t.Errorf("Options[as] = %v, want writer", s.Relations[1].Options["as"])
	}

	if len(s.Routes) != 1 {
		t.Fatalf("Routes has %d entries, want 1", len(s.Routes))
	}
	r := s.Routes[0]
	if r.Route != "/" || r.Method != "create" || r.Handler != "post" || r.Permission != PermissionAuthenticated {
		t.Errorf("route = %+v", r)
	}
}

func TestParse_JSON(t *testing.T) {
	doc := `{"definition": {"name": "tag", "plural": "tagz"}, "properties": {"label": {"type": "string"}}}`

	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Definition.PluralName() != "tagz" {
		t.Errorf("PluralName() = %q, want %q", s.Definition.PluralName(), "tagz")
	}
	if len(s.Properties) != 1 || s.Properties[0].Name != "label" {
		t.Errorf("Properties = %+v", s.Properties)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "missing name",
			doc:     "properties:\n  a: string\n",
			wantErr: "definition.name is required",
		},
		{
			name:    "two ids",
			doc:     "definition: {name: x}\nproperties:\n  a: {type: integer, isId: true}\n  b: {type: integer, isId: true}\n",
			wantErr: "at most one property may set isId",
		},
		{
			name:    "relation without model",
			doc:     "definition: {name: x}\nrelations:\n  r: {type: hasOne}\n",
			wantErr: `relation "r": model is required`,
		},
		{
			name:    "properties not a mapping",
			doc:     "definition: {name: x}\nproperties: [a, b]\n",
			wantErr: "properties must be a mapping",
		},
		{
			name: "valid",
			doc:  "definition: {name: x}\nproperties:\n  a: string\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDir(t *testing.T) {
	custom := t.TempDir()
	defaults := t.TempDir()

	writeFile(t, defaults, "user.yaml", "definition: {name: user, description: default}\n")
	writeFile(t, defaults, "audit.yml", "definition: {name: audit}\n")
	writeFile(t, custom, "user.yaml", "definition: {name: user, description: custom}\n")
	writeFile(t, custom, "post.json", `{"definition": {"name": "post"}}`)
	writeFile(t, custom, "README.md", "not a model")
	if err := os.Mkdir(filepath.Join(custom, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(custom, "nested"), "ignored.yaml", "definition: {name: ignored}\n")

	got, err := LoadDir(custom, defaults)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("loaded %d models, want 3: %v", len(got), got)
	}
	if got["User"].Definition.Description != "custom" {
		t.Errorf("User description = %q, custom entry should win", got["User"].Definition.Description)
	}
	if _, ok := got["Audit"]; !ok {
		t.Error("default-only entry Audit missing")
	}
	if got["Post"].Source != filepath.Join(custom, "post.json") {
		t.Errorf("Post source = %q", got["Post"].Source)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	got, err := LoadDir(filepath.Join(t.TempDir(), "nope"), "")
	if err != nil {
		t.Fatalf("LoadDir on a missing dir should not fail: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d models, want 0", len(got))
	}
}

func TestLoadDir_MalformedFailsWholeLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", "definition: {name: good}\n")
	writeFile(t, dir, "bad.yaml", "definition: [unterminated\n")

	if _, err := LoadDir(dir, ""); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestKey(t *testing.T) {
	tests := map[string]string{
		"model":     "Model",
		"Model":     "Model",
		"blogPost":  "BlogPost",
		"":          "",
		"élan":      "Élan",
	}
	for in, want := range tests {
		if got := Key(in); got != want {
			t.Errorf("Key(%q) = %q, want %q", in, got, want)
		}
	}

	if got := LowerFirst("BlogPost"); got != "blogPost" {
		t.Errorf("LowerFirst(BlogPost) = %q", got)
	}
}
