package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ErrUnknownModel is returned for models that were never synced.
var ErrUnknownModel = errors.New("model not synced")

// QueryError reports a filter or id the schema cannot answer.
type QueryError struct {
	Field  string
	Reason string
}

func (e *QueryError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsConstraintError reports whether err is a constraint violation raised by the database.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}

	if isConstraint, ok := sqlite3ConstraintError(err); ok {
		return isConstraint
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1048, 1062, 1216, 1217, 1451, 1452, 3819:
			return true
		}
		return false
	}

	// modernc.org/sqlite and wrapped driver errors.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "violates") && strings.Contains(msg, "constraint")
}
