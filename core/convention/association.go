package convention

import (
	"fmt"
	"strings"
)

// RelationKind is the cardinality of an association.
type RelationKind int

const (
	HasOne RelationKind = iota + 1
	BelongsTo
	HasMany
	BelongsToMany
)

var relationNames = map[RelationKind]string{
	HasOne:        "hasOne",
	BelongsTo:     "belongsTo",
	HasMany:       "hasMany",
	BelongsToMany: "belongsToMany",
}

func (k RelationKind) String() string {
	if n, ok := relationNames[k]; ok {
		return n
	}
	return fmt.Sprintf("RelationKind(%d)", int(k))
}

// Plural reports whether the association refers to many target entities.
func (k RelationKind) Plural() bool {
	return k == HasMany || k == BelongsToMany
}

// ParseRelationKind resolves a relation type as written in a model document.
func ParseRelationKind(s string) (RelationKind, error) {
	for k, n := range relationNames {
		if strings.EqualFold(n, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown relation type %q", s)
}

// Association is a wired relation between two registered schemas.
type Association struct {
	// Name is the relation key in the model document.
	Name string

	Kind   RelationKind
	Source string
	Target string

	// ForeignKey is the key column. It lives on the target table for hasOne and
	// hasMany, on the source table for belongsTo and on the join table for belongsToMany.
	ForeignKey string

	// OtherKey and Through are set for belongsToMany.
	OtherKey string
	Through  string

	// As is the alias the association is exposed under.
	As string

	// Options are the declared relation options, verbatim.
	Options map[string]any
}

// Alias returns the default alias for an association of kind to target.
func Alias(kind RelationKind, target string) string {
	if kind.Plural() {
		return Pluralize(target)
	}
	return Singularize(target)
}
