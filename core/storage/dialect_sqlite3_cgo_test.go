//go:build cgo

package storage

import (
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestIsConstraintError_SQLite3(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{sqlite3.Error{Code: sqlite3.ErrConstraint}, true},
		{sqlite3.Error{Code: sqlite3.ErrBusy}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsConstraintError(tt.err), "%v", tt.err)
	}
}
