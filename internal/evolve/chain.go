package evolve

import (
	"slices"

	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

// Chain is the total function from declared version to ItemStatus for one
// item. Entries are kept sorted by version; neighbor lookups are binary
// searches, because filling a version needs the nearest explicit statuses
// below and above it, not an exact match.
type Chain struct {
	entries []chainEntry
}

type chainEntry struct {
	version version.Version
	status  ir.ItemStatus
}

// BuildChain derives the status chain of one item against the registry.
//
// The declared identifier and type always encode the newest version's
// shape, so the action walk runs newest to oldest, tracking the name and
// type backwards through each action. Afterwards every declared version
// the walk left unset is filled by neighbor propagation, making the chain
// total. An item with no actions is present unchanged under its declared
// name in every version.
func BuildChain(kind ir.ContainerKind, item ir.Item, reg *version.Registry) *Chain {
	c := &Chain{}

	name := item.Name
	typ := item.Type

	// Deprecation is always the last state an item can end up in. The
	// declared name carries the prefix; everything earlier tracks the
	// stripped name.
	if dep := item.Actions.Deprecated; dep != nil {
		stripped, _ := ir.StripDeprecatedPrefix(kind, item.Name)
		c.insert(dep.Since, ir.StatusDeprecated{
			PreviousName: stripped,
			Name:         item.Name,
			Type:         item.Type,
			Note:         dep.Note,
		})
		name = stripped
	}

	for i := len(item.Actions.Changes) - 1; i >= 0; i-- {
		change := item.Actions.Changes[i]

		fromName := change.FromName
		if fromName == "" {
			fromName = name
		}
		fromType := change.FromType
		if fromType.IsZero() {
			fromType = typ
		}

		if fromType == typ {
			c.insert(change.Since, ir.StatusRenamed{From: fromName, To: name, Type: typ})
		} else {
			c.insert(change.Since, ir.StatusChanged{
				FromName:      fromName,
				ToName:        name,
				FromType:      fromType,
				ToType:        typ,
				UpgradeHook:   change.UpgradeHook,
				DowngradeHook: change.DowngradeHook,
			})
		}

		name = fromName
		typ = fromType
	}

	if added := item.Actions.Added; added != nil {
		c.insert(added.Since, ir.StatusAdded{Name: name, Type: typ, Default: added.Default})
	}

	c.fill(reg, name, typ)
	return c
}

// At returns the status at a declared version. The chain is total over the
// registry it was built against; the second return is false only for
// versions outside it.
func (c *Chain) At(v version.Version) (ir.ItemStatus, bool) {
	i, found := c.search(v)
	if !found {
		return nil, false
	}
	return c.entries[i].status, true
}

// fill inserts a status for every declared version the action walk left
// unset. Versions are visited in ascending order, so earlier fills become
// lo neighbors of later ones and deprecation markers propagate forward.
func (c *Chain) fill(reg *version.Registry, oldestName string, oldestType ir.TypeRef) {
	for _, v := range reg.Versions() {
		if _, ok := c.At(v); ok {
			continue
		}
		lo, hi := c.neighbors(v)
		c.insert(v, propagate(lo, hi, oldestName, oldestType))
	}
}

// propagate decides the status of an unset version from its nearest
// explicit neighbors. The nearest earlier status wins when present: the
// item carries its resulting name and type forward until the next action.
// With only a later neighbor, the version takes the name and type that
// neighbor implies for its predecessor, or NotPresent below an addition.
func propagate(lo, hi ir.ItemStatus, oldestName string, oldestType ir.TypeRef) ir.ItemStatus {
	if lo != nil {
		switch st := lo.(type) {
		case ir.StatusAdded:
			return ir.StatusNoChange{Name: st.Name, Type: st.Type}
		case ir.StatusRenamed:
			return ir.StatusNoChange{Name: st.To, Type: st.Type}
		case ir.StatusChanged:
			return ir.StatusNoChange{Name: st.ToName, Type: st.ToType}
		case ir.StatusDeprecated:
			return ir.StatusNoChange{Name: st.Name, Type: st.Type, PreviouslyDeprecated: true, Note: st.Note}
		case ir.StatusNoChange:
			return st
		case ir.StatusNotPresent:
			// Still below the addition; the hi neighbor decides.
		}
	}

	if hi != nil {
		switch st := hi.(type) {
		case ir.StatusAdded:
			return ir.StatusNotPresent{}
		case ir.StatusRenamed:
			return ir.StatusNoChange{Name: st.From, Type: st.Type}
		case ir.StatusChanged:
			return ir.StatusNoChange{Name: st.FromName, Type: st.FromType}
		case ir.StatusDeprecated:
			return ir.StatusNoChange{Name: st.PreviousName, Type: st.Type}
		case ir.StatusNoChange:
			return st
		}
	}

	return ir.StatusNoChange{Name: oldestName, Type: oldestType}
}

// neighbors returns the statuses nearest strictly below and above v.
func (c *Chain) neighbors(v version.Version) (lo, hi ir.ItemStatus) {
	i, found := c.search(v)
	if i > 0 {
		lo = c.entries[i-1].status
	}
	j := i
	if found {
		j = i + 1
	}
	if j < len(c.entries) {
		hi = c.entries[j].status
	}
	return lo, hi
}

func (c *Chain) search(v version.Version) (int, bool) {
	return slices.BinarySearchFunc(c.entries, v, func(e chainEntry, target version.Version) int {
		return e.version.Compare(target)
	})
}

func (c *Chain) insert(v version.Version, s ir.ItemStatus) {
	i, found := c.search(v)
	if found {
		c.entries[i].status = s
		return
	}
	c.entries = append(c.entries, chainEntry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = chainEntry{version: v, status: s}
}
