// Package keys maps region names and item keys onto store keys.
//
// String-keyed engines see a key as "<n>:<region>|<item>" where n is the byte
// length of the region name. The explicit length keeps the encoding injective:
// a region named "a|b" and a region named "a" with an item "b|..." can never
// produce the same string or share a prefix.
package keys

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cerberix-net/util-nuget-cacher/store"
)

// DefaultRegion is used when the region name is blank.
const DefaultRegion = "Default"

const sep = '|'

var ErrEmptyKey = errors.New("cacher: item key must not be empty")

// Region normalizes a region name: surrounding whitespace is trimmed and a
// blank name becomes DefaultRegion. Case is preserved.
func Region(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultRegion
	}
	return name
}

// Derive builds the store key of item within region.
func Derive(item, region string) (store.Key, error) {
	if item == "" {
		return store.Key{}, ErrEmptyKey
	}
	return store.Key{Region: Region(region), Item: item}, nil
}

// Prefix returns the string every encoded key of region starts with.
// region must already be normalized.
func Prefix(region string) string {
	var b strings.Builder
	b.Grow(len(region) + 8)
	b.WriteString(strconv.Itoa(len(region)))
	b.WriteByte(':')
	b.WriteString(region)
	b.WriteByte(sep)
	return b.String()
}

// Encode returns the string form of k.
func Encode(k store.Key) string {
	return Prefix(k.Region) + k.Item
}

// Strip returns the item key of encoded if it belongs to region.
func Strip(encoded, region string) (string, bool) {
	p := Prefix(region)
	if !strings.HasPrefix(encoded, p) {
		return "", false
	}
	return encoded[len(p):], true
}
