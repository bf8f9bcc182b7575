package ir

import (
	"fmt"
	"strings"

	"github.com/roach88/vershift/internal/version"
)

// ContainerKind distinguishes named-field containers from variant containers.
type ContainerKind int

const (
	KindStruct ContainerKind = iota + 1
	KindEnum
)

// String returns the definition-file spelling of the kind.
func (k ContainerKind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind as its definition-file spelling.
func (k ContainerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a definition-file kind spelling.
func (k *ContainerKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "struct":
		*k = KindStruct
	case "enum":
		*k = KindEnum
	default:
		return fmt.Errorf("invalid container kind %q: must be struct or enum", string(text))
	}
	return nil
}

// Deprecated-identifier prefixes. The declared surface name of an item
// carries the prefix exactly when the item is deprecated in the latest
// declared version; every earlier version uses the stripped name.
const (
	DeprecatedFieldPrefix   = "deprecated_"
	DeprecatedVariantPrefix = "Deprecated"
)

// DeprecatedPrefix returns the prefix convention for the container kind.
func DeprecatedPrefix(kind ContainerKind) string {
	if kind == KindEnum {
		return DeprecatedVariantPrefix
	}
	return DeprecatedFieldPrefix
}

// HasDeprecatedPrefix reports whether name carries the kind's prefix.
func HasDeprecatedPrefix(kind ContainerKind, name string) bool {
	return strings.HasPrefix(name, DeprecatedPrefix(kind))
}

// StripDeprecatedPrefix removes the kind's prefix from name. The second
// return reports whether the prefix was present.
func StripDeprecatedPrefix(kind ContainerKind, name string) (string, bool) {
	prefix := DeprecatedPrefix(kind)
	if !strings.HasPrefix(name, prefix) {
		return name, false
	}
	return strings.TrimPrefix(name, prefix), true
}

// TypeRef describes an item's payload type: either an opaque scalar type
// name ("string", "int64", ...) or a reference to another versioned
// container compiled in the same batch.
type TypeRef struct {
	Name      string `json:"name"`
	Container bool   `json:"container,omitempty"`
}

// IsZero reports whether the reference is unset. Enum variants without a
// payload have no type.
func (t TypeRef) IsZero() bool {
	return t.Name == ""
}

func (t TypeRef) String() string {
	return t.Name
}

// Container is one authored record definition: the ordered items as they
// appear at the latest declared version, each annotated with its lifecycle
// actions.
type Container struct {
	Name  string        `json:"name"`
	Kind  ContainerKind `json:"kind"`
	Doc   string        `json:"doc,omitempty"`
	Items []Item        `json:"items"`
}

// Item is one field or variant of a Container. Name and Type encode the
// newest version's shape; the actions describe how earlier versions differ.
type Item struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type,omitempty"`
	Doc  string  `json:"doc,omitempty"`

	Actions Actions `json:"actions,omitempty"`

	// Fallback names an older variant a value of this variant downgrades
	// to when the target version predates the variant. Variants only.
	Fallback string `json:"fallback,omitempty"`
}

// Actions is the validated lifecycle declaration set of one item. At most
// one Added and one Deprecated; Changes holds every rename and type change
// in strictly ascending since order.
type Actions struct {
	Added      *AddedAction      `json:"added,omitempty"`
	Changes    []ChangeAction    `json:"changes,omitempty"`
	Deprecated *DeprecatedAction `json:"deprecated,omitempty"`
}

// IsEmpty reports whether the item declares no lifecycle actions, meaning
// it is present unchanged in every declared version.
func (a Actions) IsEmpty() bool {
	return a.Added == nil && len(a.Changes) == 0 && a.Deprecated == nil
}

// AddedAction records the version an item first appears in. Default names
// the supplier hook that fills the member when upgrading across the
// addition boundary; empty means the type's zero value.
type AddedAction struct {
	Since   version.Version `json:"since"`
	Default string          `json:"default,omitempty"`
}

// ChangeAction records a rename and/or payload type change taking effect at
// Since. FromName empty means the name did not change; FromType zero means
// the type did not change. When FromType differs from the item's tracked
// type, UpgradeHook and DowngradeHook name the conversion functions applied
// when crossing the boundary.
type ChangeAction struct {
	Since         version.Version `json:"since"`
	FromName      string          `json:"from_name,omitempty"`
	FromType      TypeRef         `json:"from_type,omitempty"`
	UpgradeHook   string          `json:"upgrade_hook,omitempty"`
	DowngradeHook string          `json:"downgrade_hook,omitempty"`
}

// DeprecatedAction records the version an item was deprecated in.
type DeprecatedAction struct {
	Since version.Version `json:"since"`
	Note  string          `json:"note,omitempty"`
}

// BatchEntry pairs one container with the version registry it is evaluated
// against.
type BatchEntry struct {
	Container *Container
	Registry  *version.Registry
}

// Batch groups the containers compiled together. Container-typed item
// references resolve against the batch, and nested conversions recurse
// through it.
type Batch struct {
	Entries []BatchEntry
}

// Lookup finds a batch entry by container name.
func (b *Batch) Lookup(name string) (BatchEntry, bool) {
	for _, e := range b.Entries {
		if e.Container.Name == name {
			return e, true
		}
	}
	return BatchEntry{}, false
}
