//go:build !cgo

package storage

// sqlite3ConstraintError: without cgo mattn/go-sqlite3 cannot open a
// connection, so its error type never occurs.
func sqlite3ConstraintError(err error) (isConstraint, ok bool) {
	return false, false
}
