// Package idgen provides compile ID generators.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// UUID generates time-ordered UUIDs (version 7), so compile IDs sort by
// the moment the compilation started.
type UUID struct{}

// New returns a new UUID string. Falls back to a random v4 UUID if the
// v7 generator fails.
func (UUID) New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Sequential generates prefixed sequential IDs. For testing.
type Sequential struct {
	Prefix  string
	counter atomic.Uint64
}

// New returns the next sequential ID, starting at 1.
func (s *Sequential) New() string {
	return s.Prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

// Fixed always returns the same ID.
type Fixed string

// New returns the fixed ID.
func (f Fixed) New() string { return string(f) }
