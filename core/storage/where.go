package storage

import (
	"fmt"
	"strings"

	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/query"
)

// sqlBuilder accumulates arguments so placeholders can be numbered.
type sqlBuilder struct {
	dialect Dialect
	args    []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// where renders the WHERE clause of q, or "" when there are no conditions.
// Hidden columns are reported as unknown.
func (b *sqlBuilder) where(s *convention.Derived, q query.Query) (string, error) {
	if len(q.Conditions) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(q.Conditions))
	for _, cond := range q.Conditions {
		col, ok := s.Column(cond.Field)
		if !ok || col.Hidden {
			return "", &QueryError{Field: cond.Field, Reason: "unknown field"}
		}
		part, err := b.condition(col, cond)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	return " WHERE " + strings.Join(parts, " AND "), nil
}

func (b *sqlBuilder) condition(col convention.Column, cond query.Condition) (string, error) {
	name := b.dialect.Quote(col.Name)

	switch cond.Op {
	case query.OpContains:
		return b.dialect.containsFold(name, b.arg("%"+cond.Value()+"%")), nil
	case query.OpContainsS:
		if b.dialect == SQLite {
			return b.dialect.contains(name, b.arg(cond.Value())), nil
		}
		return b.dialect.contains(name, b.arg("%"+cond.Value()+"%")), nil
	case query.OpIn, query.OpNin:
		phs := make([]string, 0, len(cond.Values))
		for _, raw := range cond.Values {
			v, err := parseValue(raw, col)
			if err != nil {
				return "", err
			}
			phs = append(phs, b.arg(v))
		}
		op := "IN"
		if cond.Op == query.OpNin {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", name, op, strings.Join(phs, ", ")), nil
	}

	v, err := parseValue(cond.Value(), col)
	if err != nil {
		return "", err
	}

	var op string
	switch cond.Op {
	case query.OpEq:
		op = "="
	case query.OpNe:
		op = "<>"
	case query.OpLt:
		op = "<"
	case query.OpLte:
		op = "<="
	case query.OpGt:
		op = ">"
	case query.OpGte:
		op = ">="
	default:
		return "", &QueryError{Field: col.Name, Reason: fmt.Sprintf("unsupported operator %q", cond.Op)}
	}
	return fmt.Sprintf("%s %s %s", name, op, b.arg(v)), nil
}

// orderBy renders the ORDER BY clause, defaulting to the primary key.
func (b *sqlBuilder) orderBy(s *convention.Derived, sorts []query.Sort) (string, error) {
	if len(sorts) == 0 {
		return " ORDER BY " + b.dialect.Quote(s.PrimaryKey().Name) + " ASC", nil
	}

	parts := make([]string, 0, len(sorts))
	for _, srt := range sorts {
		if col, ok := s.Column(srt.Field); !ok || col.Hidden {
			return "", &QueryError{Field: srt.Field, Reason: "unknown sort field"}
		}
		dir := "ASC"
		if srt.Desc {
			dir = "DESC"
		}
		parts = append(parts, b.dialect.Quote(srt.Field)+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}
