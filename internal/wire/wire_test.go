package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/cerberix-net/util-nuget-cacher/store"
)

func TestRoundTripAbsoluteAndSliding(t *testing.T) {
	at := time.Unix(1700000000, 123)
	tests := []struct {
		name string
		in   Entry
	}{
		{"absolute", Entry{Deadline: at, Payload: []byte("v")}},
		{"sliding", Entry{Deadline: at, Window: 3 * time.Second, Payload: []byte("v")}},
		{"empty payload", Entry{Deadline: at, Payload: []byte{}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(Encode(tc.in))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !got.Deadline.Equal(tc.in.Deadline) || got.Window != tc.in.Window || !bytes.Equal(got.Payload, tc.in.Payload) {
				t.Fatalf("got %+v want %+v", got, tc.in)
			}
		})
	}
}

func TestDecodeRejectsTrailing(t *testing.T) {
	b := Encode(Entry{Deadline: time.Now(), Payload: []byte("x")})
	b = append(b, 0xDE, 0xAD)
	if _, err := Decode(b); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestDecodeRejectsForeignBytes(t *testing.T) {
	for _, b := range [][]byte{nil, []byte("not-wire-format"), bytes.Repeat([]byte{0}, hdrLen)} {
		if _, err := Decode(b); err != ErrCorrupt {
			t.Fatalf("Decode(%q): expected ErrCorrupt, got %v", b, err)
		}
	}
}

func TestDecodeRejectsKindWindowMismatch(t *testing.T) {
	b := Encode(Entry{Deadline: time.Now(), Window: time.Second, Payload: []byte("x")})
	b[5] = kindAbsolute
	if _, err := Decode(b); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestTouchReplacesDeadlineOnly(t *testing.T) {
	orig := Entry{Deadline: time.Unix(10, 0), Window: time.Second, Payload: []byte("payload")}
	raw := Encode(orig)
	next := time.Unix(20, 0)

	touched := Touch(raw, next)
	got, err := Decode(touched)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Deadline.Equal(next) || got.Window != orig.Window || string(got.Payload) != "payload" {
		t.Fatalf("unexpected %+v", got)
	}
	if first, _ := Decode(raw); !first.Deadline.Equal(orig.Deadline) {
		t.Fatalf("Touch must not mutate its input")
	}
}

func TestDeadlinePastUnixNanoRangeIsClamped(t *testing.T) {
	far := time.Unix(1700000000, 0).Add(250 * 365 * 24 * time.Hour)

	got, err := Decode(Encode(Entry{Deadline: far, Payload: []byte("v")}))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Deadline.Equal(store.MaxDeadline) {
		t.Fatalf("deadline=%v want %v", got.Deadline, store.MaxDeadline)
	}

	raw := Encode(Entry{Deadline: time.Unix(10, 0), Window: time.Second, Payload: []byte("v")})
	got, err = Decode(Touch(raw, far))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Deadline.Equal(store.MaxDeadline) {
		t.Fatalf("touched deadline=%v want %v", got.Deadline, store.MaxDeadline)
	}
}
