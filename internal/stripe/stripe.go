// Package stripe provides a fixed set of mutexes selected by key hash.
package stripe

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const defaultStripes = 64

// Locks serializes compound operations on the same key while letting
// unrelated keys proceed in parallel.
type Locks struct {
	mus []sync.Mutex
}

// New returns n stripes; n <= 0 selects a default.
func New(n int) *Locks {
	if n <= 0 {
		n = defaultStripes
	}
	return &Locks{mus: make([]sync.Mutex, n)}
}

// For returns the mutex guarding key.
func (l *Locks) For(key string) *sync.Mutex {
	return &l.mus[xxhash.Sum64String(key)%uint64(len(l.mus))]
}
