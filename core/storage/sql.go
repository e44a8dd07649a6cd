package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/artpar/modelgate/adapters/idgen"
	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/query"
	"github.com/artpar/modelgate/core/registry"
	"github.com/artpar/modelgate/core/validation"
	"github.com/artpar/modelgate/ports"
)

// SQLStore implements Store on database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	ids     ports.IDGenerator

	mu      sync.RWMutex
	schemas map[string]synced
}

type synced struct {
	schema    *convention.Derived
	validator *validation.Validator
}

// Open connects to a database with a registered driver: sqlite3 (mattn),
// sqlite (modernc), postgres or mysql.
func Open(driver, dsn string) (*SQLStore, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite3" && !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect == SQLite {
		// One connection: a :memory: database exists per connection,
		// and SQLite serializes writers anyway.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewSQLStore(db, dialect), nil
}

// NewSQLStore creates a store from an existing connection.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		ids:     idgen.UUID{},
		schemas: make(map[string]synced),
	}
}

// SetIDGenerator replaces the generator for UUID primary keys.
func (s *SQLStore) SetIDGenerator(g ports.IDGenerator) {
	s.ids = g
}

// Dialect returns the SQL dialect of the store.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// Sync creates the table for a schema and registers it with the store.
func (s *SQLStore) Sync(ctx context.Context, d *convention.Derived) error {
	v, err := validation.New(d)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, BuildCreateTableSQL(s.dialect, d)); err != nil {
		return fmt.Errorf("create table %s: %w", d.Table, err)
	}

	s.mu.Lock()
	s.schemas[d.Name] = synced{schema: d, validator: v}
	s.mu.Unlock()

	return nil
}

// SyncJoin creates a many-to-many join table.
func (s *SQLStore) SyncJoin(ctx context.Context, j registry.Join) error {
	if _, err := s.db.ExecContext(ctx, BuildJoinTableSQL(s.dialect, j)); err != nil {
		return fmt.Errorf("create join table %s: %w", j.Table, err)
	}
	return nil
}

func (s *SQLStore) lookup(model string) (synced, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.schemas[model]
	if !ok {
		return synced{}, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	return m, nil
}

// Count returns the number of rows matching q.
func (s *SQLStore) Count(ctx context.Context, model string, q query.Query) (int64, error) {
	m, err := s.lookup(model)
	if err != nil {
		return 0, err
	}

	b := &sqlBuilder{dialect: s.dialect}
	where, err := b.where(m.schema, q)
	if err != nil {
		return 0, err
	}

	var count int64
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.dialect.Quote(m.schema.Table), where)
	if err := s.db.QueryRowContext(ctx, countSQL, b.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", m.schema.Table, err)
	}

	return count, nil
}

// Insert validates and inserts a row, returning the stored row.
func (s *SQLStore) Insert(ctx context.Context, model string, row map[string]any) (map[string]any, error) {
	m, err := s.lookup(model)
	if err != nil {
		return nil, err
	}

	data := make(map[string]any, len(row))
	for k, v := range row {
		data[k] = v
	}
	for _, c := range m.schema.Columns() {
		if c.Kind != convention.KindUUID || (c.Implicit && !c.PrimaryKey) {
			continue
		}
		if v, ok := data[c.Name]; !ok || v == nil || v == "" {
			data[c.Name] = s.ids.New()
		}
	}

	if err := m.validator.Validate(data); err != nil {
		return nil, err
	}

	pk := m.schema.PrimaryKey()
	table := s.dialect.Quote(m.schema.Table)
	b := &sqlBuilder{dialect: s.dialect}

	var cols, phs []string
	for _, c := range m.schema.Columns() {
		v, ok := data[c.Name]
		if !ok || (v == nil && c.AutoIncrement) {
			continue
		}
		dv, err := toDB(v, c)
		if err != nil {
			return nil, err
		}
		if c.PrimaryKey {
			data[c.Name] = dv
		}
		cols = append(cols, s.dialect.Quote(c.Name))
		phs = append(phs, b.arg(dv))
	}

	insertSQL := s.dialect.emptyInsert(table)
	if len(cols) > 0 {
		insertSQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(phs, ", "))
	}

	id, err := s.execInsert(ctx, insertSQL, b.args, pk, data)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", m.schema.Table, err)
	}

	created, err := s.FindByID(ctx, model, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("insert %s: row %v not found after insert", m.schema.Table, id)
	}
	return created, nil
}

// execInsert runs the insert and returns the primary key of the new row.
func (s *SQLStore) execInsert(ctx context.Context, insertSQL string, args []any, pk convention.Column, data map[string]any) (any, error) {
	if v, ok := data[pk.Name]; ok && v != nil {
		if _, err := s.db.ExecContext(ctx, insertSQL, args...); err != nil {
			return nil, err
		}
		return v, nil
	}

	if s.dialect == Postgres {
		var id int64
		err := s.db.QueryRowContext(ctx, insertSQL+" RETURNING "+s.dialect.Quote(pk.Name), args...).Scan(&id)
		return id, err
	}

	res, err := s.db.ExecContext(ctx, insertSQL, args...)
	if err != nil {
		return nil, err
	}
	return res.LastInsertId()
}

// Find returns the rows matching q.
func (s *SQLStore) Find(ctx context.Context, model string, q query.Query) ([]map[string]any, error) {
	m, err := s.lookup(model)
	if err != nil {
		return nil, err
	}

	b := &sqlBuilder{dialect: s.dialect}
	where, err := b.where(m.schema, q)
	if err != nil {
		return nil, err
	}
	order, err := b.orderBy(m.schema, q.Sort)
	if err != nil {
		return nil, err
	}

	cols := m.schema.Columns()
	selectSQL := fmt.Sprintf("SELECT %s FROM %s%s%s%s",
		s.selectList(cols), s.dialect.Quote(m.schema.Table), where, order, s.dialect.limitOffset(q.Limit, q.Offset))

	rows, err := s.db.QueryContext(ctx, selectSQL, b.args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", m.schema.Table, err)
	}
	defer rows.Close()

	results := []map[string]any{}
	for rows.Next() {
		record, err := scanRow(rows, cols)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}

	return results, rows.Err()
}

// FindByID returns the row with the given primary key, or nil when absent.
func (s *SQLStore) FindByID(ctx context.Context, model string, id any) (map[string]any, error) {
	m, err := s.lookup(model)
	if err != nil {
		return nil, err
	}

	cols := m.schema.Columns()
	pk := m.schema.PrimaryKey()
	selectSQL := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		s.selectList(cols), s.dialect.Quote(m.schema.Table), s.dialect.Quote(pk.Name), s.dialect.Placeholder(1))

	rows, err := s.db.QueryContext(ctx, selectSQL, id)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", m.schema.Table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRow(rows, cols)
}

// Save validates row and writes it over the row with the given primary key.
func (s *SQLStore) Save(ctx context.Context, model string, id any, row map[string]any) (int64, error) {
	m, err := s.lookup(model)
	if err != nil {
		return 0, err
	}

	if err := m.validator.Validate(row); err != nil {
		return 0, err
	}

	pk := m.schema.PrimaryKey()
	b := &sqlBuilder{dialect: s.dialect}

	var sets []string
	for _, c := range m.schema.Columns() {
		if c.PrimaryKey {
			continue
		}
		v, ok := row[c.Name]
		if !ok {
			continue
		}
		dv, err := toDB(v, c)
		if err != nil {
			return 0, err
		}
		sets = append(sets, s.dialect.Quote(c.Name)+" = "+b.arg(dv))
	}
	if len(sets) == 0 {
		return 0, nil
	}

	updateSQL := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.dialect.Quote(m.schema.Table), strings.Join(sets, ", "), s.dialect.Quote(pk.Name), b.arg(id))

	res, err := s.db.ExecContext(ctx, updateSQL, b.args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", m.schema.Table, err)
	}
	return res.RowsAffected()
}

// Delete removes the row with the given primary key and returns the affected count.
func (s *SQLStore) Delete(ctx context.Context, model string, id any) (int64, error) {
	m, err := s.lookup(model)
	if err != nil {
		return 0, err
	}

	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		s.dialect.Quote(m.schema.Table), s.dialect.Quote(m.schema.PrimaryKey().Name), s.dialect.Placeholder(1))

	res, err := s.db.ExecContext(ctx, deleteSQL, id)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", m.schema.Table, err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) selectList(cols []convention.Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = s.dialect.Quote(c.Name)
	}
	return strings.Join(names, ", ")
}

func scanRow(rows *sql.Rows, cols []convention.Column) (map[string]any, error) {
	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	record := make(map[string]any, len(cols))
	for i, c := range cols {
		record[c.Name] = fromDB(values[i], c)
	}
	return record, nil
}

// HealthCheck pings the database.
func (s *SQLStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
