// Package render turns compiled container batches into output artifacts.
//
// Renderers consume only the assembled definitions, the adjacent-edge
// conversion ops, and the version registry; the derivation itself stays in
// evolve. Adding an output format means adding a Renderer, not touching
// the chain algorithm.
package render

import (
	"fmt"

	"github.com/roach88/vershift/internal/evolve"
	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

// File is one rendered artifact, named relative to the output directory.
type File struct {
	Name    string
	Content []byte
}

// Input bundles everything the renderers consume for one container.
type Input struct {
	Descriptor  ir.CombinedDescriptor
	Fingerprint string
	Edges       []ir.Edge
	Registry    *version.Registry
}

// Renderer renders a compiled batch. Implementations receive every
// container at once because some outputs span containers.
type Renderer interface {
	Render(inputs []Input) ([]File, error)
}

// BuildInput runs the derivation for one batch entry and collects the
// renderer-facing results.
func BuildInput(entry ir.BatchEntry) (Input, error) {
	ev, err := evolve.New(entry.Container, entry.Registry)
	if err != nil {
		return Input{}, err
	}

	desc, err := ev.Combined()
	if err != nil {
		return Input{}, err
	}
	fp, err := ir.Fingerprint(desc)
	if err != nil {
		return Input{}, fmt.Errorf("container %q: %w", entry.Container.Name, err)
	}
	edges, err := ev.Edges()
	if err != nil {
		return Input{}, err
	}

	return Input{
		Descriptor:  desc,
		Fingerprint: fp,
		Edges:       edges,
		Registry:    entry.Registry,
	}, nil
}

// BuildInputs runs BuildInput over the whole batch in declaration order.
func BuildInputs(batch *ir.Batch) ([]Input, error) {
	inputs := make([]Input, 0, len(batch.Entries))
	for _, entry := range batch.Entries {
		in, err := BuildInput(entry)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// edgeFor finds the edge between two versions of an input.
func (in Input) edgeFor(from, to version.Version) (ir.Edge, bool) {
	for _, e := range in.Edges {
		if e.From.Compare(from) == 0 && e.To.Compare(to) == 0 {
			return e, true
		}
	}
	return ir.Edge{}, false
}

// definitionAt finds the assembled definition for one version of an input.
func (in Input) definitionAt(v version.Version) (ir.Definition, bool) {
	return in.Descriptor.At(v.String())
}
