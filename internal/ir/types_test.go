package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vershift/internal/version"
)

func TestContainerKindText(t *testing.T) {
	for _, kind := range []ContainerKind{KindStruct, KindEnum} {
		text, err := kind.MarshalText()
		require.NoError(t, err)

		var parsed ContainerKind
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, kind, parsed)
	}

	var bad ContainerKind
	err := bad.UnmarshalText([]byte("union"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "union")
}

func TestDeprecatedPrefix(t *testing.T) {
	tests := []struct {
		name     string
		kind     ContainerKind
		ident    string
		prefixed string
	}{
		{"field", KindStruct, "logging", "deprecated_logging"},
		{"field already snake", KindStruct, "node_port", "deprecated_node_port"},
		{"variant", KindEnum, "NodePort", "DeprecatedNodePort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeprecatedPrefix(tt.kind) + tt.ident
			assert.Equal(t, tt.prefixed, got)
			assert.True(t, HasDeprecatedPrefix(tt.kind, got))

			stripped, ok := StripDeprecatedPrefix(tt.kind, got)
			require.True(t, ok)
			assert.Equal(t, tt.ident, stripped)
		})
	}
}

func TestStripDeprecatedPrefixNonPrefixed(t *testing.T) {
	_, ok := StripDeprecatedPrefix(KindStruct, "logging")
	assert.False(t, ok)

	_, ok = StripDeprecatedPrefix(KindEnum, "NodePort")
	assert.False(t, ok)

	// A field prefix on a variant name is not a variant prefix.
	_, ok = StripDeprecatedPrefix(KindEnum, "deprecated_logging")
	assert.False(t, ok)
}

func TestTypeRef(t *testing.T) {
	assert.True(t, TypeRef{}.IsZero())
	assert.False(t, TypeRef{Name: "string"}.IsZero())
	assert.Equal(t, "string", TypeRef{Name: "string"}.String())

	scalar := TypeRef{Name: "uint16"}
	nested := TypeRef{Name: "Scheme", Container: true}
	assert.False(t, scalar.Container)
	assert.True(t, nested.Container)
}

func TestActionsIsEmpty(t *testing.T) {
	assert.True(t, Actions{}.IsEmpty())

	added := Actions{Added: &AddedAction{Since: version.MustParse("v1alpha2")}}
	assert.False(t, added.IsEmpty())

	changed := Actions{Changes: []ChangeAction{{Since: version.MustParse("v1beta1"), FromName: "old"}}}
	assert.False(t, changed.IsEmpty())

	deprecated := Actions{Deprecated: &DeprecatedAction{Since: version.MustParse("v2")}}
	assert.False(t, deprecated.IsEmpty())
}

func TestBatchLookup(t *testing.T) {
	reg := version.MustRegistry("v1alpha1", "v1")
	batch := Batch{Entries: []BatchEntry{
		{Container: &Container{Name: "Endpoint", Kind: KindStruct}, Registry: reg},
		{Container: &Container{Name: "Scheme", Kind: KindEnum}, Registry: reg},
	}}

	entry, ok := batch.Lookup("Scheme")
	require.True(t, ok)
	assert.Equal(t, KindEnum, entry.Container.Kind)

	_, ok = batch.Lookup("Missing")
	assert.False(t, ok)
}
