// Package idgen generates values for UUID primary keys.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/artpar/modelgate/ports"
)

// UUID generates random version 4 UUIDs.
type UUID struct{}

// New returns a new UUID v4 in its canonical form.
func (UUID) New() string {
	return uuid.New().String()
}

// Sequential hands out prefix+1, prefix+2, ... Tests only.
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New returns the next id.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
