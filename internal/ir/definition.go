package ir

import "github.com/roach88/vershift/internal/version"

// Definition is the assembled shape of one container at one declared
// version: the surviving members in declaration order with their concrete
// names and types.
type Definition struct {
	Container string           `json:"container"`
	Kind      ContainerKind    `json:"kind"`
	Doc       string           `json:"doc,omitempty"`
	Version   version.Declared `json:"version"`
	Members   []Member         `json:"members"`
}

// Member is one surviving item in a Definition.
type Member struct {
	Name            string  `json:"name"`
	Type            TypeRef `json:"type,omitempty"`
	Doc             string  `json:"doc,omitempty"`
	Deprecated      bool    `json:"deprecated,omitempty"`
	DeprecationNote string  `json:"deprecation_note,omitempty"`
}

// Lookup finds a member by name.
func (d Definition) Lookup(name string) (Member, bool) {
	for _, m := range d.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// CombinedDescriptor is the all-versions view of one container: every
// assembled definition in ascending version order, with the newest version
// marked as the storage version. This is the unit the fingerprint covers
// and the catalog records.
type CombinedDescriptor struct {
	Container string          `json:"container"`
	Kind      ContainerKind   `json:"kind"`
	Doc       string          `json:"doc,omitempty"`
	Storage   version.Version `json:"storage"`
	Versions  []Definition    `json:"versions"`
}

// At returns the definition for the named version.
func (c CombinedDescriptor) At(name string) (Definition, bool) {
	for _, d := range c.Versions {
		if d.Version.Version.String() == name {
			return d, true
		}
	}
	return Definition{}, false
}
