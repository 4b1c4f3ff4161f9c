package cacher

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/cerberix-net/util-nuget-cacher/store"
)

func TestPolicyAccessors(t *testing.T) {
	p := NewPolicy(30, KindSliding)
	if p.KeepAlive() != 30*time.Second || p.Kind() != KindSliding {
		t.Fatalf("got %v", p)
	}
	if s := p.String(); s != "sliding(30s)" {
		t.Fatalf("String=%q", s)
	}
	if s := Kind(9).String(); s != "Kind(9)" {
		t.Fatalf("Kind(9).String=%q", s)
	}
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name string
		p    Policy
		want error
	}{
		{"absolute", Absolute(time.Second), nil},
		{"sliding", Sliding(time.Minute), nil},
		{"zero", Policy{}, ErrInvalidPolicy},
		{"zero keep-alive", NewPolicy(0, KindAbsolute), ErrInvalidPolicy},
		{"negative keep-alive", Absolute(-time.Second), ErrInvalidPolicy},
		{"unknown kind", NewPolicy(1, Kind(0)), ErrUnsupportedPolicy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
		})
	}
}

func TestNewPolicyRejectsOverflowingSeconds(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("an int of seconds always fits a Duration here")
	}
	centuries := int64(20_000_000_000) // ~634 years
	largest := maxKeepAliveSeconds

	for _, p := range []Policy{NewPolicy(int(centuries), KindAbsolute), NewPolicy(int(-centuries), KindSliding)} {
		if err := p.validate(); !errors.Is(err, ErrInvalidPolicy) {
			t.Fatalf("%v: err=%v want ErrInvalidPolicy", p, err)
		}
	}
	if err := NewPolicy(int(largest), KindSliding).validate(); err != nil {
		t.Fatalf("largest whole-second keep-alive rejected: %v", err)
	}
}

func TestPolicyExpiration(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	exp, err := Absolute(5 * time.Second).expiration(now)
	if err != nil {
		t.Fatal(err)
	}
	if exp.Sliding() || !exp.At.Equal(now.Add(5*time.Second)) {
		t.Fatalf("absolute => %+v", exp)
	}

	exp, err = Sliding(5 * time.Second).expiration(now)
	if err != nil {
		t.Fatal(err)
	}
	if exp != store.SlidingWindow(5*time.Second) {
		t.Fatalf("sliding => %+v", exp)
	}
	if !exp.Deadline(now).Equal(now.Add(5 * time.Second)) {
		t.Fatalf("sliding deadline => %v", exp.Deadline(now))
	}

	var zero Policy
	if _, err := zero.expiration(now); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("zero policy => %v", err)
	}
}
