package cacher

import (
	"fmt"
	"math"
	"time"

	"github.com/cerberix-net/util-nuget-cacher/store"
)

// Kind selects how a Policy expires entries.
type Kind uint8

const (
	// KindAbsolute expires the entry a fixed time after it was written.
	KindAbsolute Kind = iota + 1
	// KindSliding expires the entry once it has gone unread for the keep-alive.
	KindSliding
)

func (k Kind) String() string {
	switch k {
	case KindAbsolute:
		return "absolute"
	case KindSliding:
		return "sliding"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Policy is an immutable expiration policy handed to Set and GetOrSet.
// The zero Policy is invalid.
type Policy struct {
	keepAlive time.Duration
	kind      Kind
	overflow  bool
}

// Absolute keeps an entry alive for d after it is written; reads do not extend it.
func Absolute(d time.Duration) Policy { return Policy{keepAlive: d, kind: KindAbsolute} }

// Sliding keeps an entry alive for d after its last write or successful Get.
func Sliding(d time.Duration) Policy { return Policy{keepAlive: d, kind: KindSliding} }

const maxKeepAliveSeconds = math.MaxInt64 / int64(time.Second)

// NewPolicy builds a policy from a whole number of seconds. A count that does
// not fit a time.Duration yields an invalid policy.
func NewPolicy(keepAliveSeconds int, kind Kind) Policy {
	s := int64(keepAliveSeconds)
	if s > maxKeepAliveSeconds || s < -maxKeepAliveSeconds {
		return Policy{kind: kind, overflow: true}
	}
	return Policy{keepAlive: time.Duration(s) * time.Second, kind: kind}
}

func (p Policy) KeepAlive() time.Duration { return p.keepAlive }
func (p Policy) Kind() Kind               { return p.kind }

func (p Policy) String() string { return p.kind.String() + "(" + p.keepAlive.String() + ")" }

// validate checks p without translating it.
func (p Policy) validate() error {
	if p.overflow {
		return fmt.Errorf("%w: keep-alive exceeds %ds", ErrInvalidPolicy, maxKeepAliveSeconds)
	}
	if p.keepAlive <= 0 {
		return fmt.Errorf("%w: keep-alive %s", ErrInvalidPolicy, p.keepAlive)
	}
	switch p.kind {
	case KindAbsolute, KindSliding:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedPolicy, p.kind)
	}
}

// expiration translates p into the descriptor the store enforces.
func (p Policy) expiration(now time.Time) (store.Expiration, error) {
	if err := p.validate(); err != nil {
		return store.Expiration{}, err
	}
	if p.kind == KindSliding {
		return store.SlidingWindow(p.keepAlive), nil
	}
	return store.AbsoluteAt(now.Add(p.keepAlive)), nil
}
