//go:build cgo

package storage

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// sqlite3ConstraintError classifies mattn/go-sqlite3 errors; ok is false for
// errors from other drivers.
func sqlite3ConstraintError(err error) (isConstraint, ok bool) {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint, true
	}
	return false, false
}
