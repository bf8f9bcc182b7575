package ir

import (
	"slices"
	"unicode/utf16"
)

// Value is the restricted vocabulary canonical marshaling accepts.
//
// This is a sealed interface - only Str, Int, Bool, Arr, and Obj implement
// it. Floats and null are excluded by construction: descriptor fingerprints
// must be deterministic, and neither has a canonical form worth arguing
// about here.
type Value interface {
	value() // Marker method - seals interface to this package
}

// Str is a canonical string value.
type Str string

func (Str) value() {}

// Int is a canonical integer value.
type Int int64

func (Int) value() {}

// Bool is a canonical boolean value.
type Bool bool

func (Bool) value() {}

// Arr is an ordered list of canonical values.
type Arr []Value

func (Arr) value() {}

// Obj is a string-keyed map of canonical values. Use SortedKeys for
// deterministic iteration.
type Obj map[string]Value

func (Obj) value() {}

// SortedKeys returns the keys in canonical order: by UTF-16 code units, as
// RFC 8785 requires. Go's sort.Strings compares UTF-8 bytes, which orders
// supplementary-plane characters differently.
func (o Obj) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 compares strings code unit by code unit after UTF-16
// encoding, handling surrogate pairs the way RFC 8785 key ordering expects.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
