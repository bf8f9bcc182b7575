package evolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

func TestEdgeUpgradeOps(t *testing.T) {
	c, reg := endpointContainer()
	ev, err := New(c, reg)
	require.NoError(t, err)

	edge, err := ev.Edge(version.MustParse("v1"), version.MustParse("v2"))
	require.NoError(t, err)

	assert.Equal(t, ir.DirectionUpgrade, edge.Direction)
	assert.Equal(t, []ir.Op{
		ir.CopyOp{From: "host", To: "hostname"},
		ir.CopyOp{From: "port", To: "port"},
		ir.DefaultOp{Name: "tls", Supplier: "default_tls", Type: ir.TypeRef{Name: "bool"}},
		ir.CopyOp{From: "log_target", To: "log_target"},
		ir.ConvertOp{From: "scheme", To: "scheme", Container: "Scheme"},
	}, edge.Ops, "ops follow declaration order")
}

func TestEdgeDowngradeOps(t *testing.T) {
	c, reg := endpointContainer()
	ev, err := New(c, reg)
	require.NoError(t, err)

	edge, err := ev.Edge(version.MustParse("v2"), version.MustParse("v1"))
	require.NoError(t, err)

	assert.Equal(t, ir.DirectionDowngrade, edge.Direction)
	assert.Equal(t, []ir.Op{
		ir.CopyOp{From: "hostname", To: "host"},
		ir.CopyOp{From: "port", To: "port"},
		ir.CopyOp{From: "log_target", To: "log_target"},
		ir.ConvertOp{From: "scheme", To: "scheme", Container: "Scheme"},
	}, edge.Ops, "the member added at v2 is dropped, not defaulted")
}

func TestEdgeDeprecationCarryOver(t *testing.T) {
	c, reg := endpointContainer()
	ev, err := New(c, reg)
	require.NoError(t, err)

	up, err := ev.Edge(version.MustParse("v2"), version.MustParse("v3"))
	require.NoError(t, err)
	assert.Contains(t, up.Ops, ir.CopyOp{From: "log_target", To: "deprecated_log_target"})

	down, err := ev.Edge(version.MustParse("v3"), version.MustParse("v2"))
	require.NoError(t, err)
	assert.Contains(t, down.Ops, ir.CopyOp{From: "deprecated_log_target", To: "log_target"})
}

func TestEdgeTypeChangeHooks(t *testing.T) {
	reg := version.MustRegistry("v1", "v2")
	c := &ir.Container{
		Name: "Listener",
		Kind: ir.KindStruct,
		Items: []ir.Item{
			{
				Name: "ports",
				Type: ir.TypeRef{Name: "[]uint16"},
				Actions: ir.Actions{
					Changes: []ir.ChangeAction{
						{
							Since:         version.MustParse("v2"),
							FromName:      "port",
							FromType:      ir.TypeRef{Name: "uint16"},
							UpgradeHook:   "wrap_port",
							DowngradeHook: "first_port",
						},
					},
				},
			},
		},
	}
	ev, err := New(c, reg)
	require.NoError(t, err)

	up, err := ev.Edge(version.MustParse("v1"), version.MustParse("v2"))
	require.NoError(t, err)
	assert.Equal(t, []ir.Op{ir.HookOp{From: "port", To: "ports", Hook: "wrap_port"}}, up.Ops)

	down, err := ev.Edge(version.MustParse("v2"), version.MustParse("v1"))
	require.NoError(t, err)
	assert.Equal(t, []ir.Op{ir.HookOp{From: "ports", To: "port", Hook: "first_port"}}, down.Ops)
}

func TestEdgeTypeChangeMissingHook(t *testing.T) {
	reg := version.MustRegistry("v1", "v2")
	c := &ir.Container{
		Name: "Listener",
		Kind: ir.KindStruct,
		Items: []ir.Item{
			{
				Name: "ports",
				Type: ir.TypeRef{Name: "[]uint16"},
				Actions: ir.Actions{
					Changes: []ir.ChangeAction{
						{
							Since:       version.MustParse("v2"),
							FromName:    "port",
							FromType:    ir.TypeRef{Name: "uint16"},
							UpgradeHook: "wrap_port",
						},
					},
				},
			},
		},
	}
	ev, err := New(c, reg)
	require.NoError(t, err)

	_, err = ev.Edge(version.MustParse("v1"), version.MustParse("v2"))
	assert.NoError(t, err, "the upgrade direction has its hook")

	_, err = ev.Edge(version.MustParse("v2"), version.MustParse("v1"))
	require.Error(t, err)
	ge, ok := AsGenerateError(err)
	require.True(t, ok)
	assert.Equal(t, ErrMissingHook, ge.Code)
	assert.Equal(t, "ports", ge.Name)
	assert.Contains(t, ge.Message, "uint16")
}

func TestEdgeNestedContainerTypeChange(t *testing.T) {
	// The member keeps referencing the same versioned container; its own
	// conversion bridges the shapes with no hook involved.
	reg := version.MustRegistry("v1", "v2")
	c := &ir.Container{
		Name: "Service",
		Kind: ir.KindStruct,
		Items: []ir.Item{
			{
				Name: "endpoint",
				Type: ir.TypeRef{Name: "Endpoint", Container: true},
				Actions: ir.Actions{
					Changes: []ir.ChangeAction{
						{
							Since:    version.MustParse("v2"),
							FromName: "backend",
							FromType: ir.TypeRef{Name: "Endpoint", Container: true},
						},
					},
				},
			},
		},
	}
	ev, err := New(c, reg)
	require.NoError(t, err)

	up, err := ev.Edge(version.MustParse("v1"), version.MustParse("v2"))
	require.NoError(t, err)
	assert.Equal(t, []ir.Op{ir.ConvertOp{From: "backend", To: "endpoint", Container: "Endpoint"}}, up.Ops)

	down, err := ev.Edge(version.MustParse("v2"), version.MustParse("v1"))
	require.NoError(t, err)
	assert.Equal(t, []ir.Op{ir.ConvertOp{From: "endpoint", To: "backend", Container: "Endpoint"}}, down.Ops)
}

func TestEdgeNonAdjacent(t *testing.T) {
	c, reg := endpointContainer()
	ev, err := New(c, reg)
	require.NoError(t, err)

	_, err = ev.Edge(version.MustParse("v1"), version.MustParse("v3"))
	require.Error(t, err)
	ge, ok := AsGenerateError(err)
	require.True(t, ok)
	assert.Equal(t, ErrBadRequest, ge.Code)
}

func schemeContainer(fallback string) (*ir.Container, *version.Registry) {
	reg := version.MustRegistry("v1", "v2", "v3")
	c := &ir.Container{
		Name: "Scheme",
		Kind: ir.KindEnum,
		Items: []ir.Item{
			{Name: "Https"},
			{
				Name: "DeprecatedPlain",
				Actions: ir.Actions{
					Deprecated: &ir.DeprecatedAction{Since: version.MustParse("v3"), Note: "always encrypt"},
				},
			},
			{
				Name:     "Wss",
				Fallback: fallback,
				Actions: ir.Actions{
					Added: &ir.AddedAction{Since: version.MustParse("v2")},
				},
			},
		},
	}
	return c, reg
}

func TestEnumEdges(t *testing.T) {
	c, reg := schemeContainer("Https")
	ev, err := New(c, reg)
	require.NoError(t, err)

	up12, err := ev.Edge(version.MustParse("v1"), version.MustParse("v2"))
	require.NoError(t, err)
	assert.Equal(t, []ir.Op{
		ir.MapVariantOp{From: "Https", To: "Https"},
		ir.MapVariantOp{From: "Plain", To: "Plain"},
	}, up12.Ops, "no source value can carry the variant added at v2")

	up23, err := ev.Edge(version.MustParse("v2"), version.MustParse("v3"))
	require.NoError(t, err)
	assert.Equal(t, []ir.Op{
		ir.MapVariantOp{From: "Https", To: "Https"},
		ir.MapVariantOp{From: "Plain", To: "DeprecatedPlain"},
		ir.MapVariantOp{From: "Wss", To: "Wss"},
	}, up23.Ops)

	down21, err := ev.Edge(version.MustParse("v2"), version.MustParse("v1"))
	require.NoError(t, err)
	assert.Equal(t, []ir.Op{
		ir.MapVariantOp{From: "Https", To: "Https"},
		ir.MapVariantOp{From: "Plain", To: "Plain"},
		ir.FallbackVariantOp{From: "Wss", To: "Https"},
	}, down21.Ops)
}

func TestEnumDowngradeWithoutFallback(t *testing.T) {
	c, reg := schemeContainer("")
	ev, err := New(c, reg)
	require.NoError(t, err)

	_, err = ev.Edge(version.MustParse("v3"), version.MustParse("v2"))
	assert.NoError(t, err, "the variant exists on both sides of this edge")

	_, err = ev.Edge(version.MustParse("v2"), version.MustParse("v1"))
	require.Error(t, err)
	assert.True(t, IsIrreversible(err))

	ge, ok := AsGenerateError(err)
	require.True(t, ok)
	assert.Equal(t, "Wss", ge.Name)
	assert.Equal(t, "v2 -> v1", ge.Version)

	_, err = ev.Edges()
	assert.True(t, IsIrreversible(err), "generating all edges refuses the container")
}

func TestEdgesCoverEveryAdjacentPair(t *testing.T) {
	c, reg := endpointContainer()
	ev, err := New(c, reg)
	require.NoError(t, err)

	edges, err := ev.Edges()
	require.NoError(t, err)
	require.Len(t, edges, 4, "two adjacent pairs, both directions")

	labels := make([]string, len(edges))
	for i, e := range edges {
		labels[i] = edgeLabel(e.From, e.To)
	}
	assert.Equal(t, []string{"v1 -> v2", "v2 -> v3", "v3 -> v2", "v2 -> v1"}, labels)
}
