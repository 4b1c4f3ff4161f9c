// Package store defines the expiring key-value engine used by cacher.
//
// A Store owns every entry it holds: it tracks deadlines, evicts expired entries
// and slides the deadline of sliding entries on each successful Get. Stores are
// shared by any number of cache facades, so every method must be safe for
// concurrent use and compound methods (Add, Del, sliding Get) must be atomic
// per key.
//
// Implementations MUST be byte-for-byte transparent: Get returns exactly the
// []byte passed to Set or Add for that key.
package store

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrClosed is returned by operations on a store after Close.
var ErrClosed = errors.New("store: closed")

// Key addresses one entry. Keys are compared structurally, so a region name can
// never bleed into an item key and vice versa.
type Key struct {
	Region string
	Item   string
}

// Expiration describes when an entry stops being live.
// A positive Window makes the entry sliding; otherwise At is a fixed deadline.
type Expiration struct {
	At     time.Time
	Window time.Duration
}

// AbsoluteAt expires the entry at t regardless of reads.
func AbsoluteAt(t time.Time) Expiration { return Expiration{At: t} }

// SlidingWindow expires the entry d after its last write or successful read.
func SlidingWindow(d time.Duration) Expiration { return Expiration{Window: d} }

// Sliding reports whether reads push the deadline forward.
func (e Expiration) Sliding() bool { return e.Window > 0 }

// Deadline returns the deadline of an entry touched at now.
func (e Expiration) Deadline(now time.Time) time.Time {
	if e.Sliding() {
		return now.Add(e.Window)
	}
	return e.At
}

// MaxDeadline is the latest instant whose UnixNano is defined (year 2262).
// Engines that keep deadlines as unix nanoseconds clamp to it.
var MaxDeadline = time.Unix(0, math.MaxInt64)

// Clamp caps t at MaxDeadline.
func Clamp(t time.Time) time.Time {
	if t.After(MaxDeadline) {
		return MaxDeadline
	}
	return t
}

// Expired reports whether deadline has passed at now. An entry whose deadline
// equals now is already gone.
func Expired(deadline, now time.Time) bool {
	return !now.Before(deadline)
}

// Store is an expiring key-value engine.
type Store interface {
	// Get returns (value, true, nil) on a live hit and slides the deadline of
	// sliding entries; (nil, false, nil) on miss.
	Get(ctx context.Context, key Key) ([]byte, bool, error)

	// Has reports whether key is live. It never touches the deadline.
	Has(ctx context.Context, key Key) (bool, error)

	// Set inserts or replaces the entry and resets its deadline.
	Set(ctx context.Context, key Key, value []byte, exp Expiration) error

	// Add inserts the entry only if key is not live. It returns false when a
	// live entry already exists, leaving it untouched.
	Add(ctx context.Context, key Key, value []byte, exp Expiration) (bool, error)

	// Del removes key and reports whether a live entry was removed.
	Del(ctx context.Context, key Key) (bool, error)

	// Keys returns the item keys of every live entry in region, in no
	// particular order.
	Keys(ctx context.Context, region string) ([]string, error)

	// Close stops background work and releases resources. Safe to call twice.
	Close(ctx context.Context) error
}
