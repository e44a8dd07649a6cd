// Package convention derives persistence schemas from model documents.
// It maps declared property types to typed column descriptors and applies
// naming conventions for tables, aliases and foreign keys.
package convention

import (
	"strings"

	"github.com/artpar/modelgate/core/schema"
)

// Kind is the storage kind of a column.
type Kind int

const (
	KindString Kind = iota
	KindText
	KindInteger
	KindBigInt
	KindBoolean
	KindDate
	KindUUID
)

var kindNames = map[Kind]string{
	KindString:  "string",
	KindText:    "text",
	KindInteger: "integer",
	KindBigInt:  "bigint",
	KindBoolean: "boolean",
	KindDate:    "date",
	KindUUID:    "uuid",
}

func (k Kind) String() string {
	return kindNames[k]
}

// JSONType returns the JSON Schema type and format for values of this kind.
func (k Kind) JSONType() (typ, format string) {
	switch k {
	case KindInteger:
		return "integer", ""
	case KindBigInt:
		return "integer", "int64"
	case KindBoolean:
		return "boolean", ""
	case KindDate:
		return "string", "date-time"
	case KindUUID:
		return "string", "uuid"
	default:
		return "string", ""
	}
}

// DefaultStringLength is used for string columns declared without a length.
const DefaultStringLength = 255

// MapType maps a declared property type to a column kind.
// Unrecognized types fall back to string.
func MapType(declared string) Kind {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "boolean", "bool":
		return KindBoolean
	case "number", "integer", "int":
		return KindInteger
	case "bigint":
		return KindBigInt
	case "text":
		return KindText
	case "date", "datetime":
		return KindDate
	case "uuid":
		return KindUUID
	default:
		return KindString
	}
}

// Column is a typed column descriptor.
type Column struct {
	Name          string
	Kind          Kind
	Length        int
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
	Hidden        bool

	// Implicit marks columns that were not declared as properties:
	// the default identity column and foreign keys added by relation wiring.
	Implicit bool
}

// Derived is the persistence schema derived from one model.
type Derived struct {
	// Name is the registry key, the capitalized model name.
	Name string

	// Model is the declared model name.
	Model string

	Plural      string
	Description string

	// Table is the storage table name.
	Table string

	// Fields holds exactly one column per declared property, in document order.
	Fields []Column

	// Identity is the default primary key used when no property sets isId.
	Identity *Column

	// ForeignKeys are key columns added by relation wiring.
	ForeignKeys []Column

	// Associations are the relations wired from this model.
	Associations []Association
}

// Derive converts a model's properties into a schema.
func Derive(def schema.Definition, props schema.Properties) Derived {
	d := Derived{
		Name:        schema.Key(def.Name),
		Model:       def.Name,
		Plural:      def.PluralName(),
		Description: def.Description,
		Table:       def.PluralName(),
		Fields:      make([]Column, 0, len(props)),
	}

	hasID := false
	for _, p := range props {
		col := deriveColumn(p)
		if col.PrimaryKey {
			hasID = true
		}
		d.Fields = append(d.Fields, col)
	}

	if !hasID {
		d.Identity = &Column{
			Name:          "id",
			Kind:          KindInteger,
			PrimaryKey:    true,
			AutoIncrement: true,
			Implicit:      true,
		}
	}

	return d
}

func deriveColumn(p schema.Property) Column {
	col := Column{
		Name:     p.Name,
		Kind:     MapType(p.Type),
		Length:   p.Length,
		Nullable: !p.Required,
		Hidden:   p.Hidden,
	}

	switch col.Kind {
	case KindString:
		if col.Length == 0 {
			col.Length = DefaultStringLength
		}
	case KindUUID:
		col.Length = 36
	case KindBigInt:
	default:
		col.Length = 0
	}

	if p.IsID {
		col.PrimaryKey = true
		col.Nullable = false
		col.AutoIncrement = col.Kind == KindInteger || col.Kind == KindBigInt
	}

	return col
}

// PrimaryKey returns the primary key column.
func (d *Derived) PrimaryKey() Column {
	for _, c := range d.Fields {
		if c.PrimaryKey {
			return c
		}
	}
	if d.Identity != nil {
		return *d.Identity
	}
	return Column{Name: "id", Kind: KindInteger, PrimaryKey: true, AutoIncrement: true, Implicit: true}
}

// Columns returns every stored column: identity, declared fields, then foreign keys.
func (d *Derived) Columns() []Column {
	cols := make([]Column, 0, len(d.Fields)+len(d.ForeignKeys)+1)
	if d.Identity != nil {
		cols = append(cols, *d.Identity)
	}
	cols = append(cols, d.Fields...)
	cols = append(cols, d.ForeignKeys...)
	return cols
}

// Column returns the stored column with the given name.
func (d *Derived) Column(name string) (Column, bool) {
	for _, c := range d.Columns() {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// AddForeignKey adds a key column unless a column with that name already exists.
func (d *Derived) AddForeignKey(name string, kind Kind) {
	if _, ok := d.Column(name); ok {
		return
	}
	col := Column{Name: name, Kind: kind, Nullable: true, Implicit: true}
	if kind == KindUUID {
		col.Length = 36
	}
	d.ForeignKeys = append(d.ForeignKeys, col)
}

// Sanitize returns a copy of row without hidden columns.
func (d *Derived) Sanitize(row map[string]any) map[string]any {
	if row == nil {
		return nil
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	for _, c := range d.Fields {
		if c.Hidden {
			delete(out, c.Name)
		}
	}
	return out
}

// Association returns the association with the given alias.
func (d *Derived) Association(alias string) (Association, bool) {
	for _, a := range d.Associations {
		if a.As == alias {
			return a, true
		}
	}
	return Association{}, false
}
