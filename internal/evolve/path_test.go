package evolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vershift/internal/version"
)

func preReleaseLadder() *version.Registry {
	return version.MustRegistry("v1alpha1", "v1alpha2", "v1beta1", "v1", "v2")
}

func TestChainBetween(t *testing.T) {
	reg := preReleaseLadder()

	tests := []struct {
		name string
		from string
		to   string
		want []string
	}{
		{
			name: "full upgrade",
			from: "v1alpha1",
			to:   "v2",
			want: []string{"v1alpha2", "v1beta1", "v1", "v2"},
		},
		{
			name: "full downgrade",
			from: "v2",
			to:   "v1alpha1",
			want: []string{"v1", "v1beta1", "v1alpha2", "v1alpha1"},
		},
		{
			name: "adjacent upgrade",
			from: "v1beta1",
			to:   "v1",
			want: []string{"v1"},
		},
		{
			name: "adjacent downgrade",
			from: "v1",
			to:   "v1beta1",
			want: []string{"v1beta1"},
		},
		{
			name: "interior span",
			from: "v1alpha2",
			to:   "v1",
			want: []string{"v1beta1", "v1"},
		},
		{
			name: "identity",
			from: "v1",
			to:   "v1",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := ChainBetween(reg, version.MustParse(tt.from), version.MustParse(tt.to))
			require.NoError(t, err)

			got := make([]string, len(steps))
			for i, s := range steps {
				got[i] = s.String()
			}
			if tt.want == nil {
				assert.Empty(t, got, "converting a version to itself has no steps")
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestChainBetweenUndeclared(t *testing.T) {
	reg := preReleaseLadder()

	_, err := ChainBetween(reg, version.MustParse("v3"), version.MustParse("v1"))
	require.Error(t, err)
	ge, ok := AsGenerateError(err)
	require.True(t, ok)
	assert.Equal(t, ErrBadRequest, ge.Code)
	assert.Equal(t, "v3", ge.Version)

	_, err = ChainBetween(reg, version.MustParse("v1"), version.MustParse("v1beta2"))
	require.Error(t, err)
	ge, ok = AsGenerateError(err)
	require.True(t, ok)
	assert.Equal(t, ErrBadRequest, ge.Code)
	assert.Equal(t, "v1beta2", ge.Version)
}

func TestConversionPaths(t *testing.T) {
	reg := preReleaseLadder()

	paths := ConversionPaths(reg)
	require.Len(t, paths, 20, "five versions yield 5*4 ordered pairs")

	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		assert.NotEqual(t, p.From, p.To)
		require.NotEmpty(t, p.Steps)
		assert.Equal(t, p.To, p.Steps[len(p.Steps)-1], "every chain ends at its target")
		seen[p.From.String()+"/"+p.To.String()] = true
	}
	assert.Len(t, seen, 20, "no pair appears twice")

	fromIdx := func(v version.Version) int {
		i, ok := reg.Index(v)
		require.True(t, ok)
		return i
	}
	for _, p := range paths {
		span := fromIdx(p.To) - fromIdx(p.From)
		if span < 0 {
			span = -span
		}
		assert.Len(t, p.Steps, span, "one step per version crossed for %s", p)
	}
}

func TestPathString(t *testing.T) {
	reg := preReleaseLadder()
	steps, err := ChainBetween(reg, version.MustParse("v1alpha1"), version.MustParse("v1"))
	require.NoError(t, err)

	p := Path{From: version.MustParse("v1alpha1"), To: version.MustParse("v1"), Steps: steps}
	assert.Equal(t, "v1alpha1 -> v1 (3 steps)", p.String())
}
