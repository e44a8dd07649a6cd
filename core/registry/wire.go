package registry

import (
	"fmt"

	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/schema"
)

// Unresolved is a declared relation that could not be wired.
type Unresolved struct {
	Source   string
	Relation string
	Target   string
	Reason   string
}

func (u Unresolved) String() string {
	return fmt.Sprintf("%s.%s -> %s: %s", u.Source, u.Relation, u.Target, u.Reason)
}

// Wire wires the declared relations of a model. It must run after every model
// has been derived: relations whose source or target schema is not registered
// are skipped and returned as Unresolved.
func (r *Registry) Wire(model string, relations schema.Relations) ([]Unresolved, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil, ErrFrozen
	}

	var unresolved []Unresolved
	skip := func(rel schema.Relation, reason string) {
		unresolved = append(unresolved, Unresolved{
			Source:   schema.Key(model),
			Relation: rel.Name,
			Target:   schema.Key(rel.Model),
			Reason:   reason,
		})
	}

	for _, rel := range relations {
		kind, err := convention.ParseRelationKind(rel.Type)
		if err != nil {
			skip(rel, err.Error())
			continue
		}

		src, ok := r.schemas[schema.Key(model)]
		if !ok {
			skip(rel, "source schema not registered")
			continue
		}
		tgt, ok := r.schemas[schema.Key(rel.Model)]
		if !ok {
			skip(rel, "target schema not registered")
			continue
		}

		a := convention.Association{
			Name:       rel.Name,
			Kind:       kind,
			Source:     src.Name,
			Target:     tgt.Name,
			ForeignKey: foreignKey(kind, src.Model, tgt.Model, rel),
			As:         stringOption(rel.Options, "as"),
			Options:    rel.Options,
		}
		if a.As == "" {
			a.As = convention.Alias(kind, tgt.Name)
		}

		switch kind {
		case convention.HasOne, convention.HasMany:
			tgt.AddForeignKey(a.ForeignKey, src.PrimaryKey().Kind)
		case convention.BelongsTo:
			src.AddForeignKey(a.ForeignKey, tgt.PrimaryKey().Kind)
		case convention.BelongsToMany:
			a.OtherKey = stringOption(rel.Options, "otherKey")
			if a.OtherKey == "" {
				a.OtherKey = convention.ForeignKey(tgt.Model)
			}
			a.Through = stringOption(rel.Options, "through")
			if a.Through == "" {
				a.Through = convention.JoinTable(src.Model, tgt.Model)
			}
			r.addJoin(a, src.PrimaryKey().Kind, tgt.PrimaryKey().Kind)
		}

		src.Associations = setAssociation(src.Associations, a)
	}

	return unresolved, nil
}

// foreignKey resolves the key column: options.foreignKey, then the relation's
// foreignKey, then the conventional key. A belongsTo key names the target
// (comment.post -> postId); every other kind names the source.
func foreignKey(kind convention.RelationKind, source, target string, rel schema.Relation) string {
	if fk := stringOption(rel.Options, "foreignKey"); fk != "" {
		return fk
	}
	if rel.ForeignKey != "" {
		return rel.ForeignKey
	}
	if kind == convention.BelongsTo {
		return convention.ForeignKey(target)
	}
	return convention.ForeignKey(source)
}

func (r *Registry) addJoin(a convention.Association, sourceKind, targetKind convention.Kind) {
	if _, exists := r.joins[a.Through]; exists {
		return
	}

	col := func(name string, kind convention.Kind) convention.Column {
		c := convention.Column{Name: name, Kind: kind, PrimaryKey: true, Implicit: true}
		if kind == convention.KindUUID {
			c.Length = 36
		}
		return c
	}

	r.joins[a.Through] = Join{
		Table:   a.Through,
		Columns: []convention.Column{col(a.ForeignKey, sourceKind), col(a.OtherKey, targetKind)},
	}
}

// setAssociation replaces the association with the same relation name or appends it.
func setAssociation(list []convention.Association, a convention.Association) []convention.Association {
	for i := range list {
		if list[i].Name == a.Name {
			list[i] = a
			return list
		}
	}
	return append(list, a)
}

func stringOption(opts map[string]any, key string) string {
	if v, ok := opts[key].(string); ok {
		return v
	}
	return ""
}
