package id

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// Sequence issues unique, strictly increasing identifiers.
type Sequence interface {
	Next() int64
}

// Counter is a Sequence starting at 1. Each instance counts on its own, so
// two engines never share identity state.
type Counter struct {
	last atomic.Int64
}

func (c *Counter) Next() int64 {
	return c.last.Add(1)
}
