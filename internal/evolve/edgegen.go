package evolve

import (
	"fmt"

	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

// Edge generates the conversion between two adjacent declared versions.
// Both directions inspect each item's status at the newer of the two
// versions; only the source and target roles swap. Irreversible variants
// and unbridged type changes are refused here, at generation time, so the
// produced ops can never fail on a shape the target cannot represent.
func (e *Evolution) Edge(from, to version.Version) (ir.Edge, error) {
	fromIdx, ok := e.registry.Index(from)
	if !ok {
		return ir.Edge{}, e.badEdge(from, to, fmt.Sprintf("version %q is not declared", from))
	}
	toIdx, ok := e.registry.Index(to)
	if !ok {
		return ir.Edge{}, e.badEdge(from, to, fmt.Sprintf("version %q is not declared", to))
	}

	var dir ir.Direction
	var lower, higher version.Version
	switch {
	case toIdx == fromIdx+1:
		dir, lower, higher = ir.DirectionUpgrade, from, to
	case toIdx == fromIdx-1:
		dir, lower, higher = ir.DirectionDowngrade, to, from
	default:
		return ir.Edge{}, e.badEdge(from, to, "versions are not adjacent")
	}

	edge := ir.Edge{Container: e.container.Name, From: from, To: to, Direction: dir}
	label := edgeLabel(from, to)

	for i, item := range e.container.Items {
		lo, _ := e.chains[i].At(lower)
		hi, _ := e.chains[i].At(higher)

		var op ir.Op
		var err error
		if e.container.Kind == ir.KindEnum {
			op, err = e.variantOp(item, lo, hi, dir, lower, label)
		} else {
			op, err = e.fieldOp(item, lo, hi, dir, label)
		}
		if err != nil {
			return ir.Edge{}, err
		}
		if op != nil {
			edge.Ops = append(edge.Ops, op)
		}
	}

	return edge, nil
}

// Edges generates every adjacent conversion: upgrades in ascending order,
// then downgrades in descending order.
func (e *Evolution) Edges() ([]ir.Edge, error) {
	versions := e.registry.Versions()
	edges := make([]ir.Edge, 0, 2*(len(versions)-1))

	for i := 0; i+1 < len(versions); i++ {
		up, err := e.Edge(versions[i], versions[i+1])
		if err != nil {
			return nil, err
		}
		edges = append(edges, up)
	}
	for i := len(versions) - 1; i > 0; i-- {
		down, err := e.Edge(versions[i], versions[i-1])
		if err != nil {
			return nil, err
		}
		edges = append(edges, down)
	}

	return edges, nil
}

// fieldOp derives the op carrying one struct field across an edge, or nil
// when the field has no place at the target version.
func (e *Evolution) fieldOp(item ir.Item, lo, hi ir.ItemStatus, dir ir.Direction, label string) (ir.Op, error) {
	if _, absent := hi.(ir.StatusNotPresent); absent {
		// Absent at the newer version implies absent at the older one too.
		return nil, nil
	}

	switch st := hi.(type) {
	case ir.StatusAdded:
		if dir == ir.DirectionUpgrade {
			return ir.DefaultOp{Name: st.Name, Supplier: st.Default, Type: st.Type}, nil
		}
		// Downgrades drop the member: the older shape has no place for it,
		// and the next upgrade re-supplies the default.
		return nil, nil

	case ir.StatusChanged:
		return e.changedFieldOp(item, st, dir, label)
	}

	// NoChange, Renamed, and Deprecated carry the value across under the
	// names the two versions use.
	src, dst := lo.ActiveName(), hi.ActiveName()
	if dir == ir.DirectionDowngrade {
		src, dst = dst, src
	}

	if t := hi.ActiveType(); t.Container {
		// A member typed by another versioned container changes shape with
		// every version even when the member itself is untouched.
		return ir.ConvertOp{From: src, To: dst, Container: t.Name}, nil
	}
	return ir.CopyOp{From: src, To: dst}, nil
}

// changedFieldOp bridges a payload type change through the hook declared
// for this direction. Renames between identical types never reach here,
// so a missing hook always means an unbridged representation change.
func (e *Evolution) changedFieldOp(item ir.Item, st ir.StatusChanged, dir ir.Direction, label string) (ir.Op, error) {
	hook := st.UpgradeHook
	src, dst := st.FromName, st.ToName
	fromType, toType := st.FromType, st.ToType
	if dir == ir.DirectionDowngrade {
		hook = st.DowngradeHook
		src, dst = dst, src
		fromType, toType = toType, fromType
	}

	if hook == "" {
		return nil, &GenerateError{
			Code:      ErrMissingHook,
			Container: e.container.Name,
			Version:   label,
			Name:      item.Name,
			Message:   fmt.Sprintf("no hook converts %s to %s", fromType, toType),
		}
	}
	return ir.HookOp{From: src, To: dst, Hook: hook}, nil
}

// variantOp derives the op mapping one enum variant across an edge, or nil
// when no source value can carry the variant.
func (e *Evolution) variantOp(item ir.Item, lo, hi ir.ItemStatus, dir ir.Direction, lower version.Version, label string) (ir.Op, error) {
	if _, absent := hi.(ir.StatusNotPresent); absent {
		return nil, nil
	}

	if st, ok := hi.(ir.StatusAdded); ok {
		if dir == ir.DirectionUpgrade {
			// No older value can carry a variant added at the newer version.
			return nil, nil
		}
		return e.fallbackOp(item, st, lower, label)
	}

	src, dst := lo.ActiveName(), hi.ActiveName()
	if dir == ir.DirectionDowngrade {
		src, dst = dst, src
	}
	return ir.MapVariantOp{From: src, To: dst}, nil
}

// fallbackOp resolves the downgrade mapping for a variant with no
// representation at the target version. Without a declared fallback the
// edge is refused outright; deferring this to a runtime failure is exactly
// what generation must prevent.
func (e *Evolution) fallbackOp(item ir.Item, added ir.StatusAdded, lower version.Version, label string) (ir.Op, error) {
	irreversible := func(msg string) error {
		return &GenerateError{
			Code:      ErrIrreversibleEdge,
			Container: e.container.Name,
			Version:   label,
			Name:      added.Name,
			Message:   msg,
		}
	}

	if item.Fallback == "" {
		return nil, irreversible("variant has no representation at the target version and declares no fallback")
	}

	target, ok := e.ItemChain(item.Fallback)
	if !ok {
		return nil, irreversible(fmt.Sprintf("fallback %q is not an item of this container", item.Fallback))
	}

	status, ok := target.At(lower)
	if !ok {
		return nil, irreversible(fmt.Sprintf("fallback %q has no status at %s", item.Fallback, lower))
	}
	if _, absent := status.(ir.StatusNotPresent); absent {
		return nil, irreversible(fmt.Sprintf("fallback %q is itself not present at %s", item.Fallback, lower))
	}

	return ir.FallbackVariantOp{From: added.Name, To: status.ActiveName()}, nil
}

func (e *Evolution) badEdge(from, to version.Version, msg string) error {
	return &GenerateError{
		Code:      ErrBadRequest,
		Container: e.container.Name,
		Version:   edgeLabel(from, to),
		Message:   msg,
	}
}

func edgeLabel(from, to version.Version) string {
	return from.String() + " -> " + to.String()
}
