package storage

import (
	"fmt"
	"strings"

	"github.com/artpar/modelgate/core/convention"
)

// Dialect identifies the SQL flavour of a database.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// DialectFor returns the dialect spoken by a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "postgres":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// Quote quotes an identifier.
func (d Dialect) Quote(ident string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Placeholder returns the placeholder for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// ColumnType returns the column type for a descriptor.
func (d Dialect) ColumnType(c convention.Column) string {
	switch c.Kind {
	case convention.KindString:
		return fmt.Sprintf("VARCHAR(%d)", c.Length)
	case convention.KindText:
		return "TEXT"
	case convention.KindInteger:
		if d == MySQL {
			return "INT"
		}
		return "INTEGER"
	case convention.KindBigInt:
		if c.Length > 0 && d != Postgres {
			return fmt.Sprintf("BIGINT(%d)", c.Length)
		}
		return "BIGINT"
	case convention.KindBoolean:
		return "BOOLEAN"
	case convention.KindDate:
		if d == Postgres {
			return "TIMESTAMPTZ"
		}
		return "DATETIME"
	case convention.KindUUID:
		return "VARCHAR(36)"
	default:
		return "TEXT"
	}
}

// columnDef renders a single column definition.
func (d Dialect) columnDef(c convention.Column) string {
	name := d.Quote(c.Name)

	if c.PrimaryKey && c.AutoIncrement {
		switch d {
		case SQLite:
			return name + " INTEGER PRIMARY KEY AUTOINCREMENT"
		case Postgres:
			if c.Kind == convention.KindBigInt {
				return name + " BIGSERIAL PRIMARY KEY"
			}
			return name + " SERIAL PRIMARY KEY"
		case MySQL:
			return name + " " + d.ColumnType(c) + " NOT NULL AUTO_INCREMENT PRIMARY KEY"
		}
	}

	def := name + " " + d.ColumnType(c)
	if c.PrimaryKey {
		return def + " PRIMARY KEY"
	}
	if !c.Nullable {
		def += " NOT NULL"
	}
	return def
}

// containsFold renders a case-insensitive substring match.
func (d Dialect) containsFold(col, ph string) string {
	switch d {
	case Postgres:
		return fmt.Sprintf("CAST(%s AS TEXT) ILIKE %s", col, ph)
	case MySQL:
		return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", col, ph)
	default:
		return fmt.Sprintf("%s LIKE %s", col, ph)
	}
}

// contains renders a case-sensitive substring match. The argument is the bare
// substring for SQLite and a LIKE pattern otherwise.
func (d Dialect) contains(col, ph string) string {
	switch d {
	case Postgres:
		return fmt.Sprintf("CAST(%s AS TEXT) LIKE %s", col, ph)
	case MySQL:
		return fmt.Sprintf("%s LIKE BINARY %s", col, ph)
	default:
		return fmt.Sprintf("instr(%s, %s) > 0", col, ph)
	}
}

// limitOffset renders the pagination suffix. A negative limit means no limit.
func (d Dialect) limitOffset(limit, offset int) string {
	switch {
	case limit >= 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	case offset == 0:
		return ""
	case d == SQLite:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	case d == MySQL:
		return fmt.Sprintf(" LIMIT 18446744073709551615 OFFSET %d", offset)
	default:
		return fmt.Sprintf(" OFFSET %d", offset)
	}
}

// emptyInsert renders an insert without explicit columns.
func (d Dialect) emptyInsert(table string) string {
	if d == MySQL {
		return fmt.Sprintf("INSERT INTO %s () VALUES ()", table)
	}
	return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table)
}
