package evolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

func TestNewRejectsUndeclaredActionVersion(t *testing.T) {
	reg := version.MustRegistry("v1", "v2")
	c := &ir.Container{
		Name: "Endpoint",
		Kind: ir.KindStruct,
		Items: []ir.Item{
			{
				Name: "tls",
				Type: ir.TypeRef{Name: "bool"},
				Actions: ir.Actions{
					Added: &ir.AddedAction{Since: version.MustParse("v4")},
				},
			},
		},
	}

	_, err := New(c, reg)
	require.Error(t, err)
	assert.ErrorContains(t, err, `"Endpoint"`)
	assert.ErrorContains(t, err, `"tls"`)
	assert.ErrorContains(t, err, `"v4"`)
}

func TestEvolutionAccessors(t *testing.T) {
	c, reg := endpointContainer()
	ev, err := New(c, reg)
	require.NoError(t, err)

	assert.Same(t, c, ev.Container())
	assert.Same(t, reg, ev.Registry())

	chain, ok := ev.ItemChain("hostname")
	require.True(t, ok)
	st, ok := chain.At(version.MustParse("v1"))
	require.True(t, ok)
	assert.Equal(t, "host", st.ActiveName())

	_, ok = ev.ItemChain("nope")
	assert.False(t, ok)
}

func TestGenerateErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *GenerateError
		want string
	}{
		{
			name: "full context",
			err: &GenerateError{
				Code:      ErrMemberCollision,
				Container: "Endpoint",
				Version:   "v2",
				Name:      "x",
				Message:   "two items resolve to one name",
			},
			want: "[E201] Endpoint v2: x: two items resolve to one name",
		},
		{
			name: "container only",
			err: &GenerateError{
				Code:      ErrBadRequest,
				Container: "Endpoint",
				Message:   "container is not part of the compiled plan",
			},
			want: "[E204] Endpoint: container is not part of the compiled plan",
		},
		{
			name: "bare",
			err: &GenerateError{
				Code:    ErrMissingHook,
				Message: "unregistered hooks: wrap_port",
			},
			want: "[E203]: unregistered hooks: wrap_port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
