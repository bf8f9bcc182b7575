package evolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

// Plan is the compiled conversion program for one batch: every adjacent
// edge of every container, keyed for dispatch. Compiling the plan runs the
// full derivation, so any collision, irreversible edge, or missing hook
// surfaces here rather than during a conversion.
type Plan struct {
	containers map[string]*planContainer
}

type planContainer struct {
	kind     ir.ContainerKind
	registry *version.Registry
	edges    map[edgeKey]ir.Edge
}

type edgeKey struct {
	from string
	to   string
}

// NewPlan compiles every container in the batch.
func NewPlan(batch *ir.Batch) (*Plan, error) {
	p := &Plan{containers: make(map[string]*planContainer, len(batch.Entries))}

	for _, entry := range batch.Entries {
		ev, err := New(entry.Container, entry.Registry)
		if err != nil {
			return nil, err
		}
		if _, err := ev.Definitions(); err != nil {
			return nil, err
		}
		edges, err := ev.Edges()
		if err != nil {
			return nil, err
		}

		pc := &planContainer{
			kind:     entry.Container.Kind,
			registry: entry.Registry,
			edges:    make(map[edgeKey]ir.Edge, len(edges)),
		}
		for _, edge := range edges {
			pc.edges[edgeKey{from: edge.From.String(), to: edge.To.String()}] = edge
		}
		p.containers[entry.Container.Name] = pc
	}

	return p, nil
}

// Dispatcher applies a compiled Plan to instance values: struct documents
// as map[string]any, enum values as variant-name strings. Read-only after
// construction and safe for concurrent use.
type Dispatcher struct {
	plan     *Plan
	defaults map[string]func() any
	hooks    map[string]func(any) (any, error)
}

// DispatcherOption configures a Dispatcher under construction.
type DispatcherOption func(*Dispatcher)

// WithDefault registers the supplier an added member names.
func WithDefault(name string, fn func() any) DispatcherOption {
	return func(d *Dispatcher) { d.defaults[name] = fn }
}

// WithHook registers the conversion function a type change names.
func WithHook(name string, fn func(any) (any, error)) DispatcherOption {
	return func(d *Dispatcher) { d.hooks[name] = fn }
}

// NewDispatcher builds a dispatcher over a compiled plan. Every supplier
// and hook referenced by any edge op must be registered; missing
// registrations fail here, not on first use.
func NewDispatcher(plan *Plan, opts ...DispatcherOption) (*Dispatcher, error) {
	d := &Dispatcher{
		plan:     plan,
		defaults: make(map[string]func() any),
		hooks:    make(map[string]func(any) (any, error)),
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.checkRegistrations(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) checkRegistrations() error {
	missingDefaults := map[string]bool{}
	missingHooks := map[string]bool{}

	for _, pc := range d.plan.containers {
		for _, edge := range pc.edges {
			for _, op := range edge.Ops {
				switch op := op.(type) {
				case ir.DefaultOp:
					if op.Supplier != "" && d.defaults[op.Supplier] == nil {
						missingDefaults[op.Supplier] = true
					}
				case ir.HookOp:
					if d.hooks[op.Hook] == nil {
						missingHooks[op.Hook] = true
					}
				}
			}
		}
	}

	if len(missingDefaults) == 0 && len(missingHooks) == 0 {
		return nil
	}

	var parts []string
	if len(missingDefaults) > 0 {
		parts = append(parts, "default suppliers: "+strings.Join(sortedKeys(missingDefaults), ", "))
	}
	if len(missingHooks) > 0 {
		parts = append(parts, "hooks: "+strings.Join(sortedKeys(missingHooks), ", "))
	}
	return &GenerateError{
		Code:    ErrMissingHook,
		Message: "unregistered " + strings.Join(parts, "; "),
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Convert converts a value between two declared versions of a container,
// applying each adjacent edge along the resolved chain. Struct documents
// are rebuilt per edge: the target shape is authoritative, so source keys
// no op claims are dropped and missing source keys carry nothing across.
// Converting a version to itself returns the value unchanged.
func (d *Dispatcher) Convert(container, from, to string, value any) (any, error) {
	pc := d.plan.containers[container]
	if pc == nil {
		return nil, &GenerateError{
			Code:      ErrBadRequest,
			Container: container,
			Message:   "container is not part of the compiled plan",
		}
	}

	fromDecl, ok := pc.registry.Resolve(from)
	if !ok {
		return nil, &GenerateError{
			Code:      ErrBadRequest,
			Container: container,
			Version:   from,
			Message:   "version is not declared",
		}
	}
	toDecl, ok := pc.registry.Resolve(to)
	if !ok {
		return nil, &GenerateError{
			Code:      ErrBadRequest,
			Container: container,
			Version:   to,
			Message:   "version is not declared",
		}
	}

	steps, err := ChainBetween(pc.registry, fromDecl.Version, toDecl.Version)
	if err != nil {
		return nil, err
	}

	current := value
	at := fromDecl.Version
	for _, step := range steps {
		edge, ok := pc.edges[edgeKey{from: at.String(), to: step.String()}]
		if !ok {
			return nil, fmt.Errorf("container %q: no compiled edge %s", container, edgeLabel(at, step))
		}
		current, err = d.applyEdge(pc.kind, edge, current)
		if err != nil {
			return nil, err
		}
		at = step
	}
	return current, nil
}

func (d *Dispatcher) applyEdge(kind ir.ContainerKind, edge ir.Edge, value any) (any, error) {
	if kind == ir.KindEnum {
		return d.applyEnumEdge(edge, value)
	}
	return d.applyStructEdge(edge, value)
}

func (d *Dispatcher) applyStructEdge(edge ir.Edge, value any) (any, error) {
	src, ok := value.(map[string]any)
	if !ok {
		return nil, &GenerateError{
			Code:      ErrBadRequest,
			Container: edge.Container,
			Version:   edgeLabel(edge.From, edge.To),
			Message:   fmt.Sprintf("struct value must be map[string]any, got %T", value),
		}
	}

	dst := make(map[string]any, len(edge.Ops))
	for _, op := range edge.Ops {
		switch op := op.(type) {
		case ir.CopyOp:
			if v, present := src[op.From]; present {
				dst[op.To] = v
			}
		case ir.DefaultOp:
			if op.Supplier != "" {
				dst[op.Name] = d.defaults[op.Supplier]()
			} else {
				dst[op.Name] = zeroValue(op.Type)
			}
		case ir.HookOp:
			if v, present := src[op.From]; present {
				out, err := d.hooks[op.Hook](v)
				if err != nil {
					return nil, fmt.Errorf("container %q: edge %s: hook %q: %w",
						edge.Container, edgeLabel(edge.From, edge.To), op.Hook, err)
				}
				dst[op.To] = out
			}
		case ir.ConvertOp:
			if v, present := src[op.From]; present {
				out, err := d.Convert(op.Container, edge.From.String(), edge.To.String(), v)
				if err != nil {
					return nil, err
				}
				dst[op.To] = out
			}
		default:
			return nil, fmt.Errorf("container %q: unexpected op %T on a struct edge", edge.Container, op)
		}
	}
	return dst, nil
}

func (d *Dispatcher) applyEnumEdge(edge ir.Edge, value any) (any, error) {
	name, ok := value.(string)
	if !ok {
		return nil, &GenerateError{
			Code:      ErrBadRequest,
			Container: edge.Container,
			Version:   edgeLabel(edge.From, edge.To),
			Message:   fmt.Sprintf("enum value must be string, got %T", value),
		}
	}

	for _, op := range edge.Ops {
		switch op := op.(type) {
		case ir.MapVariantOp:
			if op.From == name {
				return op.To, nil
			}
		case ir.FallbackVariantOp:
			if op.From == name {
				return op.To, nil
			}
		default:
			return nil, fmt.Errorf("container %q: unexpected op %T on an enum edge", edge.Container, op)
		}
	}

	return nil, &GenerateError{
		Code:      ErrBadRequest,
		Container: edge.Container,
		Version:   edgeLabel(edge.From, edge.To),
		Name:      name,
		Message:   "value matches no variant at the source version",
	}
}

// zeroValue is the dynamic zero for a member added with no supplier.
func zeroValue(t ir.TypeRef) any {
	if t.Container {
		return map[string]any{}
	}
	switch t.Name {
	case "string":
		return ""
	case "bool":
		return false
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64":
		return int64(0)
	case "float32", "float64":
		return float64(0)
	default:
		return nil
	}
}
