// Package ir provides the canonical intermediate representation for
// versioned container definitions.
//
// This package contains type definitions only: the authored model
// (Container, Item, Actions), the derived per-version model (ItemStatus,
// Definition, Edge), and the small canonical value vocabulary used for
// descriptor fingerprints. The evolution algorithms live in internal/evolve;
// the CUE front-end lives in internal/compiler. Every other internal package
// imports ir; ir imports only internal/version.
//
// Key design constraints:
//   - The authored model is immutable once compiled; algorithms derive from
//     it and never write back.
//   - ItemStatus and Op are sealed interfaces so consumers can type-switch
//     exhaustively.
//   - The canonical value vocabulary excludes floats and null so descriptor
//     fingerprints stay deterministic.
package ir
