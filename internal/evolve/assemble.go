package evolve

import (
	"fmt"

	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

// Definition assembles the container's shape at one declared version: the
// surviving members in declaration order with their concrete names and
// types. Items not present at the version are excluded; renames never
// reorder. Two items resolving to the same member name is a hard error
// naming the version and the colliding identifier.
func (e *Evolution) Definition(v version.Version) (ir.Definition, error) {
	idx, ok := e.registry.Index(v)
	if !ok {
		return ir.Definition{}, &GenerateError{
			Code:      ErrBadRequest,
			Container: e.container.Name,
			Version:   v.String(),
			Message:   "version is not declared",
		}
	}

	def := ir.Definition{
		Container: e.container.Name,
		Kind:      e.container.Kind,
		Doc:       e.container.Doc,
		Version:   e.registry.At(idx),
	}

	// Member names must be pairwise unique per version. Tracking the owning
	// item lets the error name both colliding declarations.
	owner := make(map[string]string, len(e.container.Items))

	for i, item := range e.container.Items {
		status, ok := e.chains[i].At(v)
		if !ok {
			return ir.Definition{}, fmt.Errorf("container %q: item %q: no status for version %q",
				e.container.Name, item.Name, v)
		}
		if _, absent := status.(ir.StatusNotPresent); absent {
			continue
		}

		member := ir.Member{
			Name:       status.ActiveName(),
			Type:       status.ActiveType(),
			Doc:        item.Doc,
			Deprecated: ir.IsDeprecated(status),
		}
		switch st := status.(type) {
		case ir.StatusDeprecated:
			member.DeprecationNote = st.Note
		case ir.StatusNoChange:
			member.DeprecationNote = st.Note
		}

		if first, collides := owner[member.Name]; collides {
			return ir.Definition{}, &GenerateError{
				Code:      ErrMemberCollision,
				Container: e.container.Name,
				Version:   v.String(),
				Name:      member.Name,
				Message:   fmt.Sprintf("items %q and %q both resolve to %q", first, item.Name, member.Name),
			}
		}
		owner[member.Name] = item.Name

		def.Members = append(def.Members, member)
	}

	return def, nil
}

// Definitions assembles every declared version in ascending order.
func (e *Evolution) Definitions() ([]ir.Definition, error) {
	defs := make([]ir.Definition, 0, e.registry.Len())
	for _, v := range e.registry.Versions() {
		def, err := e.Definition(v)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Combined assembles the all-versions descriptor: every definition in
// ascending order with the newest declared version marked as storage.
func (e *Evolution) Combined() (ir.CombinedDescriptor, error) {
	defs, err := e.Definitions()
	if err != nil {
		return ir.CombinedDescriptor{}, err
	}
	return ir.CombinedDescriptor{
		Container: e.container.Name,
		Kind:      e.container.Kind,
		Doc:       e.container.Doc,
		Storage:   e.registry.Latest().Version,
		Versions:  defs,
	}, nil
}
