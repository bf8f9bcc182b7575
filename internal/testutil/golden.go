// Package testutil holds small helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Golden returns the goldie comparer the tests use: fixtures live under
// testdata/golden with a .golden suffix.
//
// To regenerate golden files, run the package tests with -update.
func Golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
