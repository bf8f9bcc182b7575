package evolve

import (
	"fmt"

	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

// Evolution is one container's derivation state: the status chain of every
// item against the registry. Build it once, then assemble definitions and
// generate edges from it. Read-only after New.
type Evolution struct {
	container *ir.Container
	registry  *version.Registry
	chains    []*Chain
}

// New derives the status chains for every item of the container. The
// container is expected to be validated already; the only error here is an
// action referencing a version missing from the registry, which validation
// reports with full context first.
func New(c *ir.Container, reg *version.Registry) (*Evolution, error) {
	for _, item := range c.Items {
		for _, since := range actionVersions(item.Actions) {
			if _, ok := reg.Index(since); !ok {
				return nil, fmt.Errorf("container %q: item %q: action references undeclared version %q",
					c.Name, item.Name, since)
			}
		}
	}

	chains := make([]*Chain, len(c.Items))
	for i, item := range c.Items {
		chains[i] = BuildChain(c.Kind, item, reg)
	}

	return &Evolution{container: c, registry: reg, chains: chains}, nil
}

// Container returns the authored definition the evolution derives from.
func (e *Evolution) Container() *ir.Container {
	return e.container
}

// Registry returns the version sequence the evolution is evaluated against.
func (e *Evolution) Registry() *version.Registry {
	return e.registry
}

// ItemChain returns the status chain of the named item.
func (e *Evolution) ItemChain(name string) (*Chain, bool) {
	for i, item := range e.container.Items {
		if item.Name == name {
			return e.chains[i], true
		}
	}
	return nil, false
}

func actionVersions(a ir.Actions) []version.Version {
	var out []version.Version
	if a.Added != nil {
		out = append(out, a.Added.Since)
	}
	for _, c := range a.Changes {
		out = append(out, c.Since)
	}
	if a.Deprecated != nil {
		out = append(out, a.Deprecated.Since)
	}
	return out
}
