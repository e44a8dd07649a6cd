// Package storage persists entity rows for derived schemas. A Store creates
// the tables it is told about and answers the six entity operations against
// them. SQLite, PostgreSQL and MySQL are supported through database/sql.
package storage

import (
	"context"

	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/query"
	"github.com/artpar/modelgate/core/registry"
)

// Store provides generic persistence for any synced schema.
type Store interface {
	// Sync creates the table for a schema and registers it with the store.
	Sync(ctx context.Context, s *convention.Derived) error

	// SyncJoin creates a many-to-many join table.
	SyncJoin(ctx context.Context, j registry.Join) error

	// Count returns the number of rows matching q.
	Count(ctx context.Context, model string, q query.Query) (int64, error)

	// Insert validates and inserts a row, returning the stored row.
	Insert(ctx context.Context, model string, row map[string]any) (map[string]any, error)

	// Find returns the rows matching q.
	Find(ctx context.Context, model string, q query.Query) ([]map[string]any, error)

	// FindByID returns the row with the given primary key, or nil when absent.
	FindByID(ctx context.Context, model string, id any) (map[string]any, error)

	// Save validates row and writes it over the row with the given primary key.
	Save(ctx context.Context, model string, id any, row map[string]any) (int64, error)

	// Delete removes the row with the given primary key and returns the affected count.
	Delete(ctx context.Context, model string, id any) (int64, error)

	// Close closes the database connection.
	Close() error
}
