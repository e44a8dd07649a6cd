package storage

import (
	"fmt"
	"strings"

	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/registry"
)

// BuildCreateTableSQL generates CREATE TABLE SQL for a derived schema.
func BuildCreateTableSQL(d Dialect, s *convention.Derived) string {
	cols := s.Columns()
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		defs = append(defs, d.columnDef(c))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		d.Quote(s.Table),
		strings.Join(defs, ",\n  "),
	)
}

// BuildJoinTableSQL generates CREATE TABLE SQL for a many-to-many join table.
func BuildJoinTableSQL(d Dialect, j registry.Join) string {
	defs := make([]string, 0, len(j.Columns)+1)
	keys := make([]string, 0, len(j.Columns))
	for _, c := range j.Columns {
		defs = append(defs, d.Quote(c.Name)+" "+d.ColumnType(c)+" NOT NULL")
		keys = append(keys, d.Quote(c.Name))
	}
	defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		d.Quote(j.Table),
		strings.Join(defs, ",\n  "),
	)
}
