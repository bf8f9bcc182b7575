package compiler

import "github.com/roach88/vershift/internal/ir"

// ResolveReferences marks every type reference that names another container
// compiled in the same batch. Individual compiles cannot see their
// siblings, so the flag is set in a second pass over the whole batch.
//
// Only a bare container name counts as a reference: a list type such as
// "[]Endpoint" copies opaquely and converts through hooks, never through
// the element container's own conversion.
func ResolveReferences(b *ir.Batch) {
	known := make(map[string]bool, len(b.Entries))
	for _, entry := range b.Entries {
		known[entry.Container.Name] = true
	}

	for _, entry := range b.Entries {
		for i := range entry.Container.Items {
			item := &entry.Container.Items[i]
			resolveTypeRef(&item.Type, known)
			for j := range item.Actions.Changes {
				resolveTypeRef(&item.Actions.Changes[j].FromType, known)
			}
		}
	}
}

func resolveTypeRef(t *ir.TypeRef, known map[string]bool) {
	if t.IsZero() {
		return
	}
	t.Container = known[t.Name]
}
