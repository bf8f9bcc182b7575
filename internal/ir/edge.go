package ir

import "github.com/roach88/vershift/internal/version"

// Direction distinguishes the two conversions an adjacent version pair
// carries.
type Direction int

const (
	DirectionUpgrade Direction = iota + 1
	DirectionDowngrade
)

func (d Direction) String() string {
	switch d {
	case DirectionUpgrade:
		return "upgrade"
	case DirectionDowngrade:
		return "downgrade"
	default:
		return "unknown"
	}
}

// Edge is one directed conversion between adjacent declared versions: the
// ordered ops populating the To representation from the From representation.
// Members of the target version with no op are absent from the source and
// carry no value across.
type Edge struct {
	Container string
	From      version.Version
	To        version.Version
	Direction Direction
	Ops       []Op
}

// Op is a single member conversion step in an Edge.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern enables exhaustive type switches in the
// renderers and the dispatcher.
//
// Struct edges use CopyOp, DefaultOp, HookOp, and ConvertOp, one per
// surviving target member. Enum edges use MapVariantOp and
// FallbackVariantOp, one per variant present at the source version, so a
// value that matches no op is an unknown variant.
type Op interface {
	op() // Marker method - seals interface to this package
}

// CopyOp moves a member value unchanged, possibly under a different name.
type CopyOp struct {
	From string
	To   string
}

func (CopyOp) op() {}

// DefaultOp fills a member that does not exist at the source version.
// Supplier names the registered default hook; empty means the zero value of
// Type.
type DefaultOp struct {
	Name     string
	Supplier string
	Type     TypeRef
}

func (DefaultOp) op() {}

// HookOp transforms a member through a named conversion hook, covering
// payload type changes between opaque types.
type HookOp struct {
	From string
	To   string
	Hook string
}

func (HookOp) op() {}

// ConvertOp recursively converts a member whose type is itself a versioned
// container, between the same version pair as the enclosing edge.
type ConvertOp struct {
	From      string
	To        string
	Container string
}

func (ConvertOp) op() {}

// MapVariantOp rewrites an enum value from its source-version variant name
// to the target-version name. From and To are equal when the variant is
// unchanged across the edge.
type MapVariantOp struct {
	From string
	To   string
}

func (MapVariantOp) op() {}

// FallbackVariantOp rewrites a variant with no representation at the target
// version to its declared fallback's name there. Only appears on downgrade
// edges.
type FallbackVariantOp struct {
	From string
	To   string
}

func (FallbackVariantOp) op() {}
