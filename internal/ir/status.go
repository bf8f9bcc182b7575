package ir

// ItemStatus is one item's standing at one declared version.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the assembler and the edge generator.
//
// Status types:
//   - StatusAdded: the item first appears at this version
//   - StatusRenamed: the item changes name at this version
//   - StatusChanged: the item changes payload type (and possibly name)
//   - StatusDeprecated: the item is deprecated at this version
//   - StatusNoChange: the item is carried over unchanged
//   - StatusNotPresent: the item does not exist at this version
//
// Lifecycle invariant: StatusNotPresent may only precede a StatusAdded.
// Once an item exists it never leaves, and once deprecated it stays
// deprecated (no un-deprecation, no resurrection).
type ItemStatus interface {
	itemStatus() // Marker method - seals interface to this package

	// ActiveName is the identifier the item carries at this version,
	// "" for StatusNotPresent.
	ActiveName() string

	// ActiveType is the payload type at this version, zero for
	// StatusNotPresent and for variants without payloads.
	ActiveType() TypeRef
}

// StatusAdded marks the version an item first appears in. Default names the
// supplier hook filling the member on upgrades into this version.
type StatusAdded struct {
	Name    string
	Type    TypeRef
	Default string
}

func (StatusAdded) itemStatus() {}
func (s StatusAdded) ActiveName() string { return s.Name }
func (s StatusAdded) ActiveType() TypeRef { return s.Type }

// StatusRenamed marks a pure rename: the item was From at the previous
// version and is To from this version on. The payload type is unchanged.
type StatusRenamed struct {
	From string
	To   string
	Type TypeRef
}

func (StatusRenamed) itemStatus() {}
func (s StatusRenamed) ActiveName() string { return s.To }
func (s StatusRenamed) ActiveType() TypeRef { return s.Type }

// StatusChanged marks a payload type change, optionally combined with a
// rename. The hooks name the conversion functions crossing this boundary;
// both are empty when the types reference the same versioned container
// (the nested conversion composes instead).
type StatusChanged struct {
	FromName      string
	ToName        string
	FromType      TypeRef
	ToType        TypeRef
	UpgradeHook   string
	DowngradeHook string
}

func (StatusChanged) itemStatus() {}
func (s StatusChanged) ActiveName() string { return s.ToName }
func (s StatusChanged) ActiveType() TypeRef { return s.ToType }

// StatusDeprecated marks the version an item is deprecated in. Name carries
// the deprecated prefix; PreviousName is the identifier at every earlier
// version.
type StatusDeprecated struct {
	PreviousName string
	Name         string
	Type         TypeRef
	Note         string
}

func (StatusDeprecated) itemStatus() {}
func (s StatusDeprecated) ActiveName() string { return s.Name }
func (s StatusDeprecated) ActiveType() TypeRef { return s.Type }

// StatusNoChange marks a version where the item is carried over unchanged.
// PreviouslyDeprecated propagates the deprecation marker forward.
type StatusNoChange struct {
	Name                 string
	Type                 TypeRef
	PreviouslyDeprecated bool
	Note                 string
}

func (StatusNoChange) itemStatus() {}
func (s StatusNoChange) ActiveName() string { return s.Name }
func (s StatusNoChange) ActiveType() TypeRef { return s.Type }

// StatusNotPresent marks a version before the item was added.
type StatusNotPresent struct{}

func (StatusNotPresent) itemStatus() {}
func (StatusNotPresent) ActiveName() string { return "" }
func (StatusNotPresent) ActiveType() TypeRef { return TypeRef{} }

// PredecessorName is the identifier the status implies for the version
// directly before it. For StatusAdded the item did not exist, so the second
// return is false.
func PredecessorName(s ItemStatus) (string, bool) {
	switch st := s.(type) {
	case StatusAdded:
		return "", false
	case StatusRenamed:
		return st.From, true
	case StatusChanged:
		return st.FromName, true
	case StatusDeprecated:
		return st.PreviousName, true
	case StatusNoChange:
		return st.Name, true
	case StatusNotPresent:
		return "", false
	default:
		return "", false
	}
}

// PredecessorType is the payload type the status implies for the version
// directly before it.
func PredecessorType(s ItemStatus) TypeRef {
	if st, ok := s.(StatusChanged); ok {
		return st.FromType
	}
	return s.ActiveType()
}

// IsDeprecated reports whether the status carries a deprecation marker,
// either freshly deprecated or propagated forward.
func IsDeprecated(s ItemStatus) bool {
	switch st := s.(type) {
	case StatusDeprecated:
		return true
	case StatusNoChange:
		return st.PreviouslyDeprecated
	default:
		return false
	}
}
