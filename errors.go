package cacher

import (
	"errors"
	"fmt"

	"github.com/cerberix-net/util-nuget-cacher/internal/keys"
)

var (
	// ErrInvalidKey is returned for an empty item key, before the store is touched.
	ErrInvalidKey = keys.ErrEmptyKey

	// ErrInvalidPolicy is returned for the zero Policy or a non-positive keep-alive.
	ErrInvalidPolicy = errors.New("cacher: invalid policy")

	// ErrUnsupportedPolicy is returned for a policy kind other than absolute or
	// sliding. Retrying with the same policy can never succeed.
	ErrUnsupportedPolicy = errors.New("cacher: unsupported policy kind")
)

// SerializationError reports a codec failure. On Set the store is left
// unchanged; on Get the stored entry is left in place.
type SerializationError struct {
	Op     string // "encode" or "decode"
	Region string
	Key    string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cacher: %s %q in region %q: %v", e.Op, e.Key, e.Region, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
