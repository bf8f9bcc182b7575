package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", Str("endpoint"), `"endpoint"`},
		{"empty string", Str(""), `""`},
		{"int", Int(8080), "8080"},
		{"negative int", Int(-1), "-1"},
		{"zero", Int(0), "0"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"empty array", Arr{}, "[]"},
		{"empty object", Obj{}, "{}"},
		{"array", Arr{Str("a"), Int(1), Bool(false)}, `["a",1,false]`},
		{"object", Obj{"port": Int(443)}, `{"port":443}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := Obj{
		"storage":   Str("v2"),
		"container": Str("Endpoint"),
		"kind":      Str("struct"),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"container":"Endpoint","kind":"struct","storage":"v2"}`, string(result))
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	obj := Obj{
		"versions": Arr{Obj{"version": Str("v1"), "members": Arr{}}},
		"doc":      Str(""),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"doc":"","versions":[{"members":[],"version":"v1"}]}`, string(result))
}

func TestMarshalCanonicalUTF16KeyOrdering(t *testing.T) {
	// U+10000 encodes as the surrogate pair 0xD800 0xDC00 in UTF-16, which
	// sorts BEFORE U+E000 even though its UTF-8 bytes sort after. RFC 8785
	// requires the UTF-16 order.
	obj := Obj{
		"":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"`+"\U00010000"+`":2,"`+""+`":1}`, string(result))
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"quote", `say "hi"`, `"say \"hi\""`},
		{"backslash", `a\b`, `"a\\b"`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"backspace", "a\bb", `"a\bb"`},
		{"form feed", "a\fb", `"a\fb"`},
		{"other control", "a\x01b", `"ab"`},
		{"unit separator", "a\x1fb", `"ab"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(Str(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	// encoding/json would escape <, >, & and U+2028/U+2029. Canonical JSON
	// must not.
	result, err := MarshalCanonical(Str("<a>&  "))
	require.NoError(t, err)
	assert.Equal(t, "\"<a>&  \"", string(result))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// Decomposed e + combining acute must marshal identically to the
	// precomposed form.
	composed, err := MarshalCanonical(Str("café"))
	require.NoError(t, err)

	decomposed, err := MarshalCanonical(Str("café"))
	require.NoError(t, err)

	assert.Equal(t, string(composed), string(decomposed),
		"NFC normalization must unify equivalent strings")
	assert.Equal(t, "\"café\"", string(composed))
}

func TestMarshalCanonicalNFCNormalizesKeys(t *testing.T) {
	result, err := MarshalCanonical(Obj{"café": Int(1)})
	require.NoError(t, err)
	assert.Equal(t, "{\"café\":1}", string(result))
}

func TestMarshalCanonicalRejectsNil(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(Arr{Str("ok"), nil})
	require.Error(t, err)

	_, err = MarshalCanonical(Obj{"k": nil})
	require.Error(t, err)
}
