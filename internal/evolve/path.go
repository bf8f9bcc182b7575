package evolve

import (
	"fmt"

	"github.com/roach88/vershift/internal/version"
)

// ChainBetween resolves the versions to step through when converting from
// one declared version to another: every version strictly between plus the
// target itself, ascending for upgrades and descending for downgrades.
// Converting a version to itself is the identity and yields no steps.
// Composing adjacent edges this way keeps the generated surface at O(n)
// conversions instead of O(n^2) direct ones.
func ChainBetween(reg *version.Registry, from, to version.Version) ([]version.Version, error) {
	fromIdx, ok := reg.Index(from)
	if !ok {
		return nil, &GenerateError{
			Code:    ErrBadRequest,
			Version: from.String(),
			Message: "version is not declared",
		}
	}
	toIdx, ok := reg.Index(to)
	if !ok {
		return nil, &GenerateError{
			Code:    ErrBadRequest,
			Version: to.String(),
			Message: "version is not declared",
		}
	}

	switch {
	case fromIdx == toIdx:
		return nil, nil

	case fromIdx < toIdx:
		steps := make([]version.Version, 0, toIdx-fromIdx)
		for i := fromIdx + 1; i <= toIdx; i++ {
			steps = append(steps, reg.At(i).Version)
		}
		return steps, nil

	default:
		steps := make([]version.Version, 0, fromIdx-toIdx)
		for i := fromIdx - 1; i >= toIdx; i-- {
			steps = append(steps, reg.At(i).Version)
		}
		return steps, nil
	}
}

// Path is one entry of the all-pairs conversion worklist.
type Path struct {
	From  version.Version
	To    version.Version
	Steps []version.Version
}

func (p Path) String() string {
	return fmt.Sprintf("%s -> %s (%d steps)", p.From, p.To, len(p.Steps))
}

// ConversionPaths enumerates every ordered pair of distinct declared
// versions with its resolved chain. With k declared versions this yields
// k*(k-1) paths, the worklist for rendering the all-pairs dispatcher.
func ConversionPaths(reg *version.Registry) []Path {
	versions := reg.Versions()
	paths := make([]Path, 0, len(versions)*(len(versions)-1))

	for _, from := range versions {
		for _, to := range versions {
			if from == to {
				continue
			}
			// Both versions come straight from the registry, so resolution
			// cannot fail.
			steps, _ := ChainBetween(reg, from, to)
			paths = append(paths, Path{From: from, To: to, Steps: steps})
		}
	}
	return paths
}
