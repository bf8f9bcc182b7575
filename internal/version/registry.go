package version

import "fmt"

// Declared is one registry entry: a version plus the metadata the author
// attached to it. Deprecated marks the whole version as superseded; Doc is
// surfaced on rendered definitions.
type Declared struct {
	Version    Version `json:"version"`
	Deprecated bool    `json:"deprecated,omitempty"`
	Doc        string  `json:"doc,omitempty"`
}

// Registry is the validated, strictly ascending version sequence one
// container is evaluated against. Immutable after construction.
type Registry struct {
	entries []Declared
	index   map[string]int
}

// NewRegistry validates the declared sequence. Entries must already be in
// strictly ascending order; an out-of-order or duplicate declaration is a
// definition error, not something to silently sort away.
func NewRegistry(entries []Declared) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("at least one version must be declared")
	}

	index := make(map[string]int, len(entries))
	for i, e := range entries {
		name := e.Version.String()
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("version %q declared twice", name)
		}
		if i > 0 && !entries[i-1].Version.Less(e.Version) {
			return nil, fmt.Errorf("versions must be declared in ascending order: %q listed after %q",
				name, entries[i-1].Version)
		}
		index[name] = i
	}

	return &Registry{entries: append([]Declared(nil), entries...), index: index}, nil
}

// MustRegistry builds a registry from identifiers or panics. Test helper.
func MustRegistry(names ...string) *Registry {
	entries := make([]Declared, len(names))
	for i, n := range names {
		entries[i] = Declared{Version: MustParse(n)}
	}
	r, err := NewRegistry(entries)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of declared versions.
func (r *Registry) Len() int {
	return len(r.entries)
}

// At returns the i-th declared entry in ascending order.
func (r *Registry) At(i int) Declared {
	return r.entries[i]
}

// All returns the declared entries in ascending order. The slice is a copy.
func (r *Registry) All() []Declared {
	return append([]Declared(nil), r.entries...)
}

// Versions returns just the version identifiers in ascending order.
func (r *Registry) Versions() []Version {
	out := make([]Version, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Version
	}
	return out
}

// Latest returns the newest declared entry.
func (r *Registry) Latest() Declared {
	return r.entries[len(r.entries)-1]
}

// Resolve looks up a declared entry by identifier.
func (r *Registry) Resolve(name string) (Declared, bool) {
	i, ok := r.index[name]
	if !ok {
		return Declared{}, false
	}
	return r.entries[i], true
}

// Contains reports whether the identifier names a declared version.
func (r *Registry) Contains(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Index returns the rank of v in the declared order.
func (r *Registry) Index(v Version) (int, bool) {
	i, ok := r.index[v.String()]
	return i, ok
}

// Next returns the declared version directly after v.
func (r *Registry) Next(v Version) (Version, bool) {
	i, ok := r.index[v.String()]
	if !ok || i+1 >= len(r.entries) {
		return Version{}, false
	}
	return r.entries[i+1].Version, true
}

// Prev returns the declared version directly before v.
func (r *Registry) Prev(v Version) (Version, bool) {
	i, ok := r.index[v.String()]
	if !ok || i == 0 {
		return Version{}, false
	}
	return r.entries[i-1].Version, true
}

// Between returns the declared versions after lo up to and including hi, in
// ascending order. Both bounds must be declared and lo must order before hi.
func (r *Registry) Between(lo, hi Version) ([]Version, error) {
	loIdx, ok := r.index[lo.String()]
	if !ok {
		return nil, fmt.Errorf("version %q is not declared", lo)
	}
	hiIdx, ok := r.index[hi.String()]
	if !ok {
		return nil, fmt.Errorf("version %q is not declared", hi)
	}
	if hiIdx <= loIdx {
		return nil, fmt.Errorf("version %q does not order before %q", lo, hi)
	}

	out := make([]Version, 0, hiIdx-loIdx)
	for i := loIdx + 1; i <= hiIdx; i++ {
		out = append(out, r.entries[i].Version)
	}
	return out, nil
}
