// Package evolve derives every historical shape of a versioned container
// and the conversions between them.
//
// The pipeline is pure. Given an ir.Container and the version.Registry it
// is evaluated against, New builds one status chain per item (the total
// function from declared version to ItemStatus), and the resulting
// Evolution assembles per-version definitions and generates
// adjacent-version conversion edges. ChainBetween composes adjacent edges
// into arbitrary version-pair conversions, and Dispatcher applies a
// compiled Plan to instance values at runtime.
//
// Containers are expected to be validated first (compiler.ValidateBatch).
// The errors produced here are generation-time failures only: member name
// collisions, irreversible downgrade edges, and payload type changes with
// no conversion available. A failure aborts derivation for the one
// offending container; sibling containers in a batch are unaffected.
package evolve
