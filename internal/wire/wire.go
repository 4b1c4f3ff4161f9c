// Package wire frames a payload together with its expiration so byte-only
// engines can enforce absolute and sliding deadlines themselves.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"

	"github.com/cerberix-net/util-nuget-cacher/store"
)

const (
	version      byte = 1
	kindAbsolute byte = 1
	kindSliding  byte = 2

	hdrLen = 4 + 1 + 1 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("cacher: corrupt entry")
	magic4     = [...]byte{'R', 'G', 'N', 'C'}
)

// Entry is a decoded envelope.
// Deadline is the instant the entry stops being live; Window is zero for
// absolute entries.
type Entry struct {
	Deadline time.Time
	Window   time.Duration
	Payload  []byte
}

// Encode: magic(4) | ver(1) | kind(1) | deadline(i64 be, unix nanos) | window(i64 be, nanos) | vlen(u32 be) | payload(vlen)
func Encode(e Entry) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	if e.Window > 0 {
		buf.WriteByte(kindSliding)
	} else {
		buf.WriteByte(kindAbsolute)
	}

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(unixNano(e.Deadline)))
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(e.Window))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])

	buf.Write(e.Payload)
	return buf.Bytes()
}

// Decode parses an envelope. Trailing bytes are rejected.
func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return Entry{}, ErrCorrupt
	}
	kind := b[5]
	if kind != kindAbsolute && kind != kindSliding {
		return Entry{}, ErrCorrupt
	}
	off := 6

	deadline := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	window := time.Duration(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	if (kind == kindSliding) != (window > 0) {
		return Entry{}, ErrCorrupt
	}

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off {
		return Entry{}, ErrCorrupt
	}

	return Entry{
		Deadline: time.Unix(0, deadline),
		Window:   window,
		Payload:  b[off:],
	}, nil
}

// Touch returns a copy of raw with its deadline replaced. raw must be a valid
// envelope; the payload is not re-validated.
func Touch(raw []byte, deadline time.Time) []byte {
	out := make([]byte, len(raw))
	copy(out, raw)
	binary.BigEndian.PutUint64(out[6:14], uint64(unixNano(deadline)))
	return out
}

// unixNano clamps deadlines past 2262 instead of letting UnixNano wrap.
func unixNano(t time.Time) int64 { return store.Clamp(t).UnixNano() }
