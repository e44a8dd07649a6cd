package registry

import (
	"errors"
	"strings"
	"testing"

	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/schema"
)

func def(name string) schema.Definition {
	return schema.Definition{Name: name}
}

func mustDerive(t *testing.T, r *Registry, name string, props schema.Properties) *convention.Derived {
	t.Helper()
	d, err := r.Derive(def(name), props)
	if err != nil {
		t.Fatalf("Derive(%s): %v", name, err)
	}
	return d
}

func TestRegistry_Derive(t *testing.T) {
	r := New()

	d := mustDerive(t, r, "model", schema.Properties{{Name: "name", Type: "string"}})
	if d.Name != "Model" {
		t.Errorf("Name = %q, want Model", d.Name)
	}

	got, ok := r.Get("model")
	if !ok || got != d {
		t.Fatal("Get(model) should return the registered schema")
	}
	if _, ok := r.Get("Model"); !ok {
		t.Error("Get(Model) should find the same schema")
	}
}

func TestRegistry_Derive_Replaces(t *testing.T) {
	r := New()

	mustDerive(t, r, "model", schema.Properties{{Name: "a", Type: "string"}})
	mustDerive(t, r, "model", schema.Properties{{Name: "b", Type: "integer"}, {Name: "c", Type: "boolean"}})

	if n := len(r.List()); n != 1 {
		t.Fatalf("List() has %d schemas, want 1", n)
	}
	d, _ := r.Get("model")
	if len(d.Fields) != 2 || d.Fields[0].Name != "b" {
		t.Errorf("replacement not applied: %+v", d.Fields)
	}
}

func TestRegistry_Derive_TableConflict(t *testing.T) {
	r := New()

	mustDerive(t, r, "person", nil)
	_, err := r.Derive(schema.Definition{Name: "human", Plural: "persons"}, nil)
	if err == nil || !strings.Contains(err.Error(), "already claimed") {
		t.Errorf("expected table conflict, got %v", err)
	}
}

func TestRegistry_List_Sorted(t *testing.T) {
	r := New()
	for _, n := range []string{"zebra", "apple", "mango"} {
		mustDerive(t, r, n, nil)
	}

	list := r.List()
	want := []string{"Apple", "Mango", "Zebra"}
	for i, d := range list {
		if d.Name != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, d.Name, want[i])
		}
	}
}

func TestRegistry_Freeze(t *testing.T) {
	r := New()
	mustDerive(t, r, "model", nil)
	r.Freeze()

	if !r.Frozen() {
		t.Error("Frozen() should be true")
	}
	if _, err := r.Derive(def("other"), nil); !errors.Is(err, ErrFrozen) {
		t.Errorf("Derive after Freeze: err = %v, want ErrFrozen", err)
	}
	if _, err := r.Wire("model", nil); !errors.Is(err, ErrFrozen) {
		t.Errorf("Wire after Freeze: err = %v, want ErrFrozen", err)
	}
}

func TestWire_HasMany(t *testing.T) {
	r := New()
	mustDerive(t, r, "post", schema.Properties{{Name: "title", Type: "string"}})
	mustDerive(t, r, "comment", schema.Properties{{Name: "body", Type: "text"}})

	unresolved, err := r.Wire("post", schema.Relations{{Name: "comments", Type: "hasMany", Model: "comment"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(unresolved) != 0 {
		t.Fatalf("unexpected unresolved relations: %v", unresolved)
	}

	post, _ := r.Get("post")
	if len(post.Associations) != 1 {
		t.Fatalf("Associations = %d, want 1", len(post.Associations))
	}
	a := post.Associations[0]
	if a.Kind != convention.HasMany || a.Source != "Post" || a.Target != "Comment" {
		t.Errorf("association = %+v", a)
	}
	if a.ForeignKey != "postId" {
		t.Errorf("ForeignKey = %q, want postId", a.ForeignKey)
	}
	if a.As != "Comments" {
		t.Errorf("As = %q, want Comments", a.As)
	}

	comment, _ := r.Get("comment")
	col, ok := comment.Column("postId")
	if !ok {
		t.Fatal("hasMany should add postId to the target table")
	}
	if col.Kind != convention.KindInteger || !col.Nullable {
		t.Errorf("postId column = %+v", col)
	}
	if len(comment.Fields) != 1 {
		t.Error("wiring must not change the declared fields")
	}
}

func TestWire_ForeignKeyPrecedence(t *testing.T) {
	r := New()
	mustDerive(t, r, "user", nil)
	mustDerive(t, r, "post", nil)

	_, err := r.Wire("post", schema.Relations{
		{Name: "author", Type: "belongsTo", Model: "user", ForeignKey: "authorId"},
		{Name: "editor", Type: "belongsTo", Model: "user", ForeignKey: "ignored", Options: map[string]any{"foreignKey": "editorId", "as": "Editor"}},
		{Name: "owner", Type: "hasOne", Model: "user"},
	})
	if err != nil {
		t.Fatal(err)
	}

	post, _ := r.Get("post")
	user, _ := r.Get("user")

	want := map[string]string{"author": "authorId", "editor": "editorId", "owner": "postId"}
	for _, a := range post.Associations {
		if a.ForeignKey != want[a.Name] {
			t.Errorf("%s: ForeignKey = %q, want %q", a.Name, a.ForeignKey, want[a.Name])
		}
	}

	if _, ok := post.Column("authorId"); !ok {
		t.Error("belongsTo should add authorId to the source table")
	}
	if _, ok := post.Column("editorId"); !ok {
		t.Error("belongsTo should add editorId to the source table")
	}
	if _, ok := user.Column("postId"); !ok {
		t.Error("hasOne should add postId to the target table")
	}

	editor, ok := post.Association("Editor")
	if !ok || editor.Options["as"] != "Editor" {
		t.Errorf("explicit alias not kept: %+v", editor)
	}
	author, _ := post.Association("User")
	if author.Name != "author" {
		t.Errorf("default singular alias = %+v", author)
	}
}

func TestWire_BelongsToDefaultKeyNamesTarget(t *testing.T) {
	r := New()
	mustDerive(t, r, "post", nil)
	mustDerive(t, r, "comment", nil)

	if _, err := r.Wire("post", schema.Relations{{Name: "comments", Type: "hasMany", Model: "comment"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Wire("comment", schema.Relations{{Name: "post", Type: "belongsTo", Model: "post"}}); err != nil {
		t.Fatal(err)
	}

	comment, _ := r.Get("comment")
	a, ok := comment.Association("Post")
	if !ok || a.ForeignKey != "postId" {
		t.Fatalf("belongsTo association = %+v, want ForeignKey postId", a)
	}
	if _, ok := comment.Column("commentId"); ok {
		t.Error("belongsTo must not add a key named after the source")
	}

	var keys []string
	for _, c := range comment.ForeignKeys {
		keys = append(keys, c.Name)
	}
	if len(keys) != 1 || keys[0] != "postId" {
		t.Errorf("comment foreign keys = %v, want [postId]", keys)
	}
}

func TestWire_BelongsToMany(t *testing.T) {
	r := New()
	mustDerive(t, r, "post", nil)
	mustDerive(t, r, "tag", schema.Properties{{Name: "slug", Type: "uuid", IsID: true}})

	_, err := r.Wire("post", schema.Relations{{Name: "tags", Type: "belongsToMany", Model: "tag"}})
	if err != nil {
		t.Fatal(err)
	}

	post, _ := r.Get("post")
	a := post.Associations[0]
	if a.Through != "PostTags" || a.OtherKey != "tagId" || a.ForeignKey != "postId" {
		t.Errorf("association = %+v", a)
	}

	joins := r.Joins()
	if len(joins) != 1 {
		t.Fatalf("Joins() = %d, want 1", len(joins))
	}
	j := joins[0]
	if j.Table != "PostTags" || len(j.Columns) != 2 {
		t.Fatalf("join = %+v", j)
	}
	if j.Columns[0].Kind != convention.KindInteger || j.Columns[1].Kind != convention.KindUUID {
		t.Errorf("join column kinds = %v, %v", j.Columns[0].Kind, j.Columns[1].Kind)
	}
}

func TestWire_UnresolvedTargetIsSkipped(t *testing.T) {
	r := New()
	mustDerive(t, r, "post", nil)

	unresolved, err := r.Wire("post", schema.Relations{
		{Name: "author", Type: "belongsTo", Model: "writer"},
		{Name: "weird", Type: "manyToMany", Model: "post"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(unresolved) != 2 {
		t.Fatalf("unresolved = %v, want 2 entries", unresolved)
	}
	if unresolved[0].Target != "Writer" || !strings.Contains(unresolved[0].Reason, "target") {
		t.Errorf("unresolved[0] = %+v", unresolved[0])
	}
	if !strings.Contains(unresolved[1].String(), "unknown relation type") {
		t.Errorf("unresolved[1] = %s", unresolved[1])
	}

	post, _ := r.Get("post")
	if len(post.Associations) != 0 {
		t.Errorf("skipped relations must not be wired: %+v", post.Associations)
	}
}

func TestWire_OrderingDependency(t *testing.T) {
	r := New()
	mustDerive(t, r, "post", nil)

	// Wiring before the target is derived drops the relation for this run.
	unresolved, _ := r.Wire("post", schema.Relations{{Name: "comments", Type: "hasMany", Model: "comment"}})
	if len(unresolved) != 1 {
		t.Fatalf("unresolved = %v", unresolved)
	}

	mustDerive(t, r, "comment", nil)
	post, _ := r.Get("post")
	if len(post.Associations) != 0 {
		t.Error("relation should stay absent after the target is registered")
	}
}
