package evolve

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

func conversionBatch() *ir.Batch {
	endpoint, endpointReg := endpointContainer()
	scheme, schemeReg := schemeContainer("Https")
	return &ir.Batch{Entries: []ir.BatchEntry{
		{Container: endpoint, Registry: endpointReg},
		{Container: scheme, Registry: schemeReg},
	}}
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	plan, err := NewPlan(conversionBatch())
	require.NoError(t, err)

	d, err := NewDispatcher(plan, WithDefault("default_tls", func() any { return false }))
	require.NoError(t, err)
	return d
}

func TestDispatcherUpgrade(t *testing.T) {
	d := newTestDispatcher(t)

	got, err := d.Convert("Endpoint", "v1", "v3", map[string]any{
		"host":       "db.internal",
		"port":       5432,
		"log_target": "stderr",
		"scheme":     "Plain",
		"extra":      true,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"hostname":              "db.internal",
		"port":                  5432,
		"tls":                   false,
		"deprecated_log_target": "stderr",
		"scheme":                "DeprecatedPlain",
	}, got, "keys no op claims are dropped, added members are defaulted, nested enums convert")
}

func TestDispatcherDowngradeDropsAdded(t *testing.T) {
	d := newTestDispatcher(t)

	got, err := d.Convert("Endpoint", "v3", "v1", map[string]any{
		"hostname":              "db.internal",
		"port":                  5432,
		"tls":                   true,
		"deprecated_log_target": "stderr",
		"scheme":                "Https",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"host":       "db.internal",
		"port":       5432,
		"log_target": "stderr",
		"scheme":     "Https",
	}, got)
}

func TestDispatcherRoundTrip(t *testing.T) {
	d := newTestDispatcher(t)

	original := map[string]any{
		"host":       "db.internal",
		"port":       5432,
		"log_target": "stderr",
		"scheme":     "Plain",
	}

	up, err := d.Convert("Endpoint", "v1", "v3", original)
	require.NoError(t, err)
	down, err := d.Convert("Endpoint", "v3", "v1", up)
	require.NoError(t, err)

	assert.Equal(t, original, down, "every v1 member survives the trip through v3")
}

func TestDispatcherComposability(t *testing.T) {
	d := newTestDispatcher(t)

	doc := map[string]any{
		"host":       "db.internal",
		"port":       5432,
		"log_target": "stderr",
		"scheme":     "Plain",
	}

	direct, err := d.Convert("Endpoint", "v1", "v3", doc)
	require.NoError(t, err)

	mid, err := d.Convert("Endpoint", "v1", "v2", doc)
	require.NoError(t, err)
	stepped, err := d.Convert("Endpoint", "v2", "v3", mid)
	require.NoError(t, err)

	assert.Equal(t, direct, stepped)
}

func TestDispatcherIdentity(t *testing.T) {
	d := newTestDispatcher(t)

	doc := map[string]any{"hostname": "db.internal", "port": 5432}
	got, err := d.Convert("Endpoint", "v2", "v2", doc)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestDispatcherMissingSourceKey(t *testing.T) {
	d := newTestDispatcher(t)

	got, err := d.Convert("Endpoint", "v1", "v2", map[string]any{
		"host":   "db.internal",
		"scheme": "Https",
	})
	require.NoError(t, err)

	doc, ok := got.(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, doc, "port", "absent source keys carry nothing across")
	assert.Equal(t, false, doc["tls"], "added members are supplied regardless")
}

func TestDispatcherEnum(t *testing.T) {
	d := newTestDispatcher(t)

	tests := []struct {
		from  string
		to    string
		value string
		want  string
	}{
		{"v1", "v3", "Plain", "DeprecatedPlain"},
		{"v3", "v1", "DeprecatedPlain", "Plain"},
		{"v2", "v3", "Wss", "Wss"},
		{"v2", "v1", "Wss", "Https"},
		{"v3", "v1", "Wss", "Https"},
		{"v1", "v2", "Https", "Https"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s_%s", tt.from, tt.to, tt.value), func(t *testing.T) {
			got, err := d.Convert("Scheme", tt.from, tt.to, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatcherEnumUnknownVariant(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Convert("Scheme", "v1", "v2", "Wss")
	require.Error(t, err, "the variant does not exist at the source version")
	ge, ok := AsGenerateError(err)
	require.True(t, ok)
	assert.Equal(t, ErrBadRequest, ge.Code)
	assert.Equal(t, "Wss", ge.Name)
}

func listenerBatch() *ir.Batch {
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
	return &ir.Batch{Entries: []ir.BatchEntry{{Container: c, Registry: reg}}}
}

func TestDispatcherHooks(t *testing.T) {
	plan, err := NewPlan(listenerBatch())
	require.NoError(t, err)

	d, err := NewDispatcher(plan,
		WithHook("wrap_port", func(v any) (any, error) {
			return []any{v}, nil
		}),
		WithHook("first_port", func(v any) (any, error) {
			s, ok := v.([]any)
			if !ok || len(s) == 0 {
				return nil, fmt.Errorf("no ports to pick from")
			}
			return s[0], nil
		}),
	)
	require.NoError(t, err)

	up, err := d.Convert("Listener", "v1", "v2", map[string]any{"port": 8080})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ports": []any{8080}}, up)

	down, err := d.Convert("Listener", "v2", "v1", up)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"port": 8080}, down)

	_, err = d.Convert("Listener", "v2", "v1", map[string]any{"ports": []any{}})
	require.Error(t, err)
	assert.ErrorContains(t, err, `hook "first_port"`)
	assert.ErrorContains(t, err, "no ports to pick from")
}

func TestDispatcherUnregistered(t *testing.T) {
	batch := conversionBatch()
	batch.Entries = append(batch.Entries, listenerBatch().Entries...)

	plan, err := NewPlan(batch)
	require.NoError(t, err)

	_, err = NewDispatcher(plan)
	require.Error(t, err)
	ge, ok := AsGenerateError(err)
	require.True(t, ok)
	assert.Equal(t, ErrMissingHook, ge.Code)
	assert.Equal(t, "unregistered default suppliers: default_tls; hooks: first_port, wrap_port", ge.Message,
		"names are listed sorted so the failure is deterministic")
}

func TestDispatcherUnknownContainer(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Convert("Gateway", "v1", "v2", map[string]any{})
	require.Error(t, err)
	ge, ok := AsGenerateError(err)
	require.True(t, ok)
	assert.Equal(t, ErrBadRequest, ge.Code)
	assert.Equal(t, "Gateway", ge.Container)
}

func TestDispatcherUnknownVersion(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Convert("Endpoint", "v9", "v1", map[string]any{})
	require.Error(t, err)
	ge, ok := AsGenerateError(err)
	require.True(t, ok)
	assert.Equal(t, ErrBadRequest, ge.Code)
	assert.Equal(t, "v9", ge.Version)
}

func TestDispatcherBadValueShape(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Convert("Endpoint", "v1", "v2", "not a document")
	require.Error(t, err)
	ge, ok := AsGenerateError(err)
	require.True(t, ok)
	assert.Equal(t, ErrBadRequest, ge.Code)
	assert.Contains(t, ge.Message, "map[string]any")

	_, err = d.Convert("Scheme", "v1", "v2", 42)
	require.Error(t, err)
	ge, ok = AsGenerateError(err)
	require.True(t, ok)
	assert.Equal(t, ErrBadRequest, ge.Code)
	assert.Contains(t, ge.Message, "string")
}

func TestPlanRejectsBrokenBatch(t *testing.T) {
	reg := version.MustRegistry("v1", "v2")
	c := &ir.Container{
		Name: "Scheme",
		Kind: ir.KindEnum,
		Items: []ir.Item{
			{Name: "Wss", Actions: ir.Actions{Added: &ir.AddedAction{Since: version.MustParse("v2")}}},
		},
	}
	batch := &ir.Batch{Entries: []ir.BatchEntry{{Container: c, Registry: reg}}}

	_, err := NewPlan(batch)
	require.Error(t, err, "compiling the plan runs the full derivation")
	assert.True(t, IsIrreversible(err))
}
