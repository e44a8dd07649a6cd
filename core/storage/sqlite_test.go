package storage

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/artpar/modelgate/adapters/idgen"
	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/query"
	"github.com/artpar/modelgate/core/registry"
	"github.com/artpar/modelgate/core/schema"
	"github.com/artpar/modelgate/core/validation"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func productSchema() *convention.Derived {
	d := convention.Derive(schema.Definition{Name: "product"}, schema.Properties{
		{Name: "name", Type: "string", Required: true},
		{Name: "price", Type: "integer"},
		{Name: "active", Type: "boolean"},
		{Name: "sku", Type: "uuid"},
	})
	return &d
}

func TestSQLStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	d := productSchema()

	if err := store.Sync(ctx, d); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	// Syncing twice must not fail.
	if err := store.Sync(ctx, d); err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}

	created, err := store.Insert(ctx, "Product", map[string]any{
		"name":   "Widget",
		"price":  float64(100),
		"active": true,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	id, ok := created["id"].(int64)
	if !ok || id == 0 {
		t.Fatalf("Insert returned id %v (%T)", created["id"], created["id"])
	}
	if created["name"] != "Widget" || created["price"] != int64(100) || created["active"] != true {
		t.Errorf("created = %v", created)
	}
	if sku, _ := created["sku"].(string); len(sku) != 36 {
		t.Errorf("sku should be a generated uuid, got %v", created["sku"])
	}

	got, err := store.FindByID(ctx, "Product", id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got["name"] != "Widget" {
		t.Errorf("FindByID name = %v", got["name"])
	}

	got["price"] = int64(150)
	n, err := store.Save(ctx, "Product", id, got)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Save affected %d rows, want 1", n)
	}

	got, _ = store.FindByID(ctx, "Product", id)
	if got["price"] != int64(150) || got["name"] != "Widget" {
		t.Errorf("after Save = %v", got)
	}

	count, err := store.Count(ctx, "Product", query.Empty())
	if err != nil || count != 1 {
		t.Errorf("Count = %d, %v", count, err)
	}

	n, err = store.Delete(ctx, "Product", id)
	if err != nil || n != 1 {
		t.Errorf("Delete = %d, %v", n, err)
	}

	got, err = store.FindByID(ctx, "Product", id)
	if err != nil || got != nil {
		t.Errorf("FindByID after delete = %v, %v", got, err)
	}

	n, _ = store.Delete(ctx, "Product", id)
	if n != 0 {
		t.Errorf("second Delete affected %d rows, want 0", n)
	}
}

func TestSQLStore_InsertValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Sync(ctx, productSchema()); err != nil {
		t.Fatal(err)
	}

	_, err := store.Insert(ctx, "Product", map[string]any{"price": float64(1)})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("Insert without required name: err = %v, want *validation.Error", err)
	}
}

func TestSQLStore_HealthCheck(t *testing.T) {
	store := newTestStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck on open store: %v", err)
	}

	store.Close()
	if err := store.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck on closed store should fail")
	}
}

func TestSQLStore_IDGenerator(t *testing.T) {
	store := newTestStore(t)
	store.SetIDGenerator(idgen.NewSequential("sku-"))
	ctx := context.Background()

	if err := store.Sync(ctx, productSchema()); err != nil {
		t.Fatal(err)
	}

	for i, want := range []string{"sku-1", "sku-2"} {
		created, err := store.Insert(ctx, "Product", map[string]any{"name": "Widget"})
		if err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
		if created["sku"] != want {
			t.Errorf("sku = %v, want %s", created["sku"], want)
		}
	}

	created, err := store.Insert(ctx, "Product", map[string]any{"name": "Gadget", "sku": "given"})
	if err != nil {
		t.Fatal(err)
	}
	if created["sku"] != "given" {
		t.Errorf("explicit sku replaced: %v", created["sku"])
	}
}

func TestSQLStore_UnknownModel(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Count(context.Background(), "Ghost", query.Empty())
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("err = %v, want ErrUnknownModel", err)
	}
}

func TestSQLStore_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Sync(ctx, productSchema()); err != nil {
		t.Fatal(err)
	}

	for i, name := range []string{"Apple", "Banana", "apricot", "Cherry"} {
		_, err := store.Insert(ctx, "Product", map[string]any{
			"name":   name,
			"price":  float64((i + 1) * 10),
			"active": i%2 == 0,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		params map[string][]string
		want   []string
	}{
		{"all", nil, []string{"Apple", "Banana", "apricot", "Cherry"}},
		{"eq", map[string][]string{"name": {"Banana"}}, []string{"Banana"}},
		{"ne", map[string][]string{"name_ne": {"Banana"}}, []string{"Apple", "apricot", "Cherry"}},
		{"gt", map[string][]string{"price_gt": {"20"}}, []string{"apricot", "Cherry"}},
		{"lte", map[string][]string{"price_lte": {"20"}}, []string{"Apple", "Banana"}},
		{"contains", map[string][]string{"name_contains": {"AP"}}, []string{"Apple", "apricot"}},
		{"containss", map[string][]string{"name_containss": {"Ap"}}, []string{"Apple"}},
		{"in", map[string][]string{"price_in": {"10", "40"}}, []string{"Apple", "Cherry"}},
		{"nin", map[string][]string{"price_nin": {"10", "40"}}, []string{"Banana", "apricot"}},
		{"boolean", map[string][]string{"active": {"true"}}, []string{"Apple", "apricot"}},
		{"sort desc", map[string][]string{"_sort": {"price:DESC"}}, []string{"Cherry", "apricot", "Banana", "Apple"}},
		{"limit", map[string][]string{"_limit": {"2"}}, []string{"Apple", "Banana"}},
		{"start", map[string][]string{"_start": {"3"}}, []string{"Cherry"}},
		{"limit and start", map[string][]string{"_limit": {"1"}, "_start": {"1"}}, []string{"Banana"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := query.Parse(tt.params)
			if err != nil {
				t.Fatal(err)
			}
			rows, err := store.Find(ctx, "Product", q)
			if err != nil {
				t.Fatalf("Find failed: %v", err)
			}
			if len(rows) != len(tt.want) {
				t.Fatalf("Find returned %d rows, want %d: %v", len(rows), len(tt.want), rows)
			}
			for i, row := range rows {
				if row["name"] != tt.want[i] {
					t.Errorf("row %d name = %v, want %s", i, row["name"], tt.want[i])
				}
			}

			if tt.params["_limit"] != nil || tt.params["_start"] != nil {
				return
			}
			count, err := store.Count(ctx, "Product", q)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != int64(len(tt.want)) {
				t.Errorf("Count = %d, want %d", count, len(tt.want))
			}
		})
	}
}

func TestSQLStore_FilterErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Sync(ctx, productSchema()); err != nil {
		t.Fatal(err)
	}

	for _, params := range []map[string][]string{
		{"color": {"red"}},
		{"price_gt": {"cheap"}},
		{"_sort": {"color"}},
	} {
		q, err := query.Parse(params)
		if err != nil {
			t.Fatal(err)
		}
		_, err = store.Find(ctx, "Product", q)
		var qerr *QueryError
		if !errors.As(err, &qerr) {
			t.Errorf("Find(%v) err = %v, want *QueryError", params, err)
		}
	}
}

func TestSQLStore_HiddenColumnsAreNotQueryable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	d := convention.Derive(schema.Definition{Name: "account"}, schema.Properties{
		{Name: "email", Type: "string", Required: true},
		{Name: "password", Type: "string", Hidden: true},
	})
	if err := store.Sync(ctx, &d); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Insert(ctx, "Account", map[string]any{"email": "a@example.com", "password": "s3cretHASH"}); err != nil {
		t.Fatal(err)
	}

	for _, params := range []map[string][]string{
		{"password": {"s3cretHASH"}},
		{"password_contains": {"s3cret"}},
		{"password_in": {"x", "s3cretHASH"}},
		{"_sort": {"password:DESC"}},
	} {
		q, err := query.Parse(params)
		if err != nil {
			t.Fatal(err)
		}
		if len(q.Conditions) > 0 {
			if _, err := store.Count(ctx, "Account", q); !isQueryError(err) {
				t.Errorf("Count(%v) err = %v, want *QueryError", params, err)
			}
		}
		if _, err := store.Find(ctx, "Account", q); !isQueryError(err) {
			t.Errorf("Find(%v) err = %v, want *QueryError", params, err)
		}
	}

	q, _ := query.Parse(map[string][]string{"email": {"a@example.com"}})
	if n, err := store.Count(ctx, "Account", q); err != nil || n != 1 {
		t.Errorf("Count by visible field = %d, %v", n, err)
	}
}

func isQueryError(err error) bool {
	var qerr *QueryError
	return errors.As(err, &qerr)
}

func TestToDB_Integers(t *testing.T) {
	col := convention.Column{Name: "n", Kind: convention.KindBigInt}

	valid := []struct {
		in   any
		want int64
	}{
		{float64(42), 42},
		{json.Number("42"), 42},
		{json.Number("1e3"), 1000},
		{json.Number("9223372036854775807"), math.MaxInt64},
		{json.Number("-9223372036854775808"), math.MinInt64},
		{7, 7},
	}
	for _, tt := range valid {
		got, err := toDB(tt.in, col)
		if err != nil || got != tt.want {
			t.Errorf("toDB(%v) = %v, %v, want %d", tt.in, got, err, tt.want)
		}
	}

	for _, in := range []any{
		json.Number("123456789012345678901234567890"),
		json.Number("9223372036854775808"),
		json.Number("1.5"),
		float64(1e19),
		float64(2.5),
	} {
		if _, err := toDB(in, col); !isQueryError(err) {
			t.Errorf("toDB(%v) err = %v, want *QueryError", in, err)
		}
	}
}

func TestSQLStore_IntegerOutOfRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Sync(ctx, productSchema()); err != nil {
		t.Fatal(err)
	}

	_, err := store.Insert(ctx, "Product", map[string]any{
		"name":  "Widget",
		"price": json.Number("123456789012345678901234567890"),
	})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("Insert err = %v, want *validation.Error", err)
	}

	n, err := store.Count(ctx, "Product", query.Empty())
	if err != nil || n != 0 {
		t.Errorf("Count = %d, %v, want no rows", n, err)
	}
}

func TestSQLStore_JoinTable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	j := registry.Join{
		Table: "PostTags",
		Columns: []convention.Column{
			{Name: "postId", Kind: convention.KindInteger},
			{Name: "tagId", Kind: convention.KindInteger},
		},
	}
	if err := store.SyncJoin(ctx, j); err != nil {
		t.Fatalf("SyncJoin failed: %v", err)
	}

	if _, err := store.DB().ExecContext(ctx, `INSERT INTO "PostTags" ("postId", "tagId") VALUES (1, 2)`); err != nil {
		t.Fatal(err)
	}
	_, err := store.DB().ExecContext(ctx, `INSERT INTO "PostTags" ("postId", "tagId") VALUES (1, 2)`)
	if !IsConstraintError(err) {
		t.Errorf("duplicate join row: err = %v, want constraint error", err)
	}
}

func TestParseID(t *testing.T) {
	d := productSchema()

	id, err := ParseID("42", d)
	if err != nil || id != int64(42) {
		t.Errorf("ParseID(42) = %v, %v", id, err)
	}
	if _, err := ParseID("abc", d); err == nil {
		t.Error("ParseID(abc) should fail for an integer key")
	}
}
