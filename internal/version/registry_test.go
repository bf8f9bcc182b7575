package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		wantErr string
	}{
		{"empty", nil, "at least one version"},
		{"duplicate", []string{"v1", "v1"}, `declared twice`},
		{"descending", []string{"v2", "v1"}, "ascending order"},
		{"alpha_after_stable", []string{"v1", "v1alpha1"}, "ascending order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := make([]Declared, len(tt.entries))
			for i, n := range tt.entries {
				entries[i] = Declared{Version: MustParse(n)}
			}
			_, err := NewRegistry(entries)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistryLookups(t *testing.T) {
	r := MustRegistry("v1alpha1", "v1alpha2", "v1beta1", "v1", "v2")

	assert.Equal(t, 5, r.Len())
	assert.Equal(t, "v2", r.Latest().Version.String())

	d, ok := r.Resolve("v1beta1")
	require.True(t, ok)
	assert.Equal(t, MustParse("v1beta1"), d.Version)

	_, ok = r.Resolve("v9")
	assert.False(t, ok)
	assert.True(t, r.Contains("v1alpha2"))
	assert.False(t, r.Contains("v3"))

	i, ok := r.Index(MustParse("v1"))
	require.True(t, ok)
	assert.Equal(t, 3, i)
}

func TestRegistryNeighbors(t *testing.T) {
	r := MustRegistry("v1alpha1", "v1beta1", "v1")

	next, ok := r.Next(MustParse("v1alpha1"))
	require.True(t, ok)
	assert.Equal(t, "v1beta1", next.String())

	_, ok = r.Next(MustParse("v1"))
	assert.False(t, ok)

	prev, ok := r.Prev(MustParse("v1"))
	require.True(t, ok)
	assert.Equal(t, "v1beta1", prev.String())

	_, ok = r.Prev(MustParse("v1alpha1"))
	assert.False(t, ok)
}

func TestRegistryBetween(t *testing.T) {
	r := MustRegistry("v1alpha1", "v1alpha2", "v1beta1", "v1", "v2")

	got, err := r.Between(MustParse("v1alpha1"), MustParse("v2"))
	require.NoError(t, err)
	assert.Equal(t, []Version{
		MustParse("v1alpha2"), MustParse("v1beta1"), MustParse("v1"), MustParse("v2"),
	}, got)

	got, err = r.Between(MustParse("v1beta1"), MustParse("v1"))
	require.NoError(t, err)
	assert.Equal(t, []Version{MustParse("v1")}, got)

	_, err = r.Between(MustParse("v2"), MustParse("v1"))
	assert.Error(t, err)

	_, err = r.Between(MustParse("v1"), MustParse("v3"))
	assert.Error(t, err)
}

func TestDeclaredMetadata(t *testing.T) {
	entries := []Declared{
		{Version: MustParse("v1"), Deprecated: true, Doc: "superseded by v2"},
		{Version: MustParse("v2"), Doc: "current"},
	}
	r, err := NewRegistry(entries)
	require.NoError(t, err)

	d, ok := r.Resolve("v1")
	require.True(t, ok)
	assert.True(t, d.Deprecated)
	assert.Equal(t, "superseded by v2", d.Doc)
	assert.False(t, r.Latest().Deprecated)
}
