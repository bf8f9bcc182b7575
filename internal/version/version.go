// Package version implements the ordered version identifiers a container
// declares its history against.
//
// Identifiers follow the Kubernetes API convention: a major number with an
// optional alpha or beta maturity level, e.g. "v1alpha1", "v2beta3", "v3".
// Ordering is total: majors compare numerically, and within one major
// alpha < beta < stable, with level numbers breaking ties. A Registry holds
// the declared sequence for one container and answers the order queries the
// rest of the pipeline needs.
package version

import (
	"fmt"
	"regexp"
	"strconv"
)

// Stage is the maturity level of a version within its major.
type Stage int

const (
	StageAlpha Stage = iota + 1
	StageBeta
	StageStable
)

// String returns the identifier fragment for the stage ("" for stable).
func (s Stage) String() string {
	switch s {
	case StageAlpha:
		return "alpha"
	case StageBeta:
		return "beta"
	case StageStable:
		return ""
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Version is a parsed, totally ordered version identifier. The zero value is
// not a valid version; construct through Parse or MustParse.
type Version struct {
	Major  uint64
	Stage  Stage
	Number uint64 // alpha/beta ordinal, 0 for stable
}

// versionRegex matches the accepted grammar: lowercase "v", a major number,
// and an optional alpha/beta level with its own number. No other suffixes.
var versionRegex = regexp.MustCompile(`^v(\d+)(?:(alpha|beta)(\d+))?$`)

// Parse validates and parses an identifier like "v1alpha2" or "v3".
func Parse(s string) (Version, error) {
	matches := versionRegex.FindStringSubmatch(s)
	if matches == nil {
		return Version{}, fmt.Errorf("invalid version %q: must match v<major>[alpha<n>|beta<n>]", s)
	}

	major, err := strconv.ParseUint(matches[1], 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: major out of range", s)
	}

	v := Version{Major: major, Stage: StageStable}
	if matches[2] != "" {
		switch matches[2] {
		case "alpha":
			v.Stage = StageAlpha
		case "beta":
			v.Stage = StageBeta
		}
		number, err := strconv.ParseUint(matches[3], 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: level number out of range", s)
		}
		if number == 0 {
			return Version{}, fmt.Errorf("invalid version %q: level number must start at 1", s)
		}
		v.Number = number
	}

	return v, nil
}

// MustParse parses an identifier or panics. Use only for constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical lowercase identifier.
func (v Version) String() string {
	if v.Stage == StageStable || v.Stage == 0 {
		return fmt.Sprintf("v%d", v.Major)
	}
	return fmt.Sprintf("v%d%s%d", v.Major, v.Stage, v.Number)
}

// MarshalText encodes the version as its canonical identifier, so JSON and
// YAML documents carry "v1alpha1" rather than the struct fields.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses a canonical identifier.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Compare returns -1 if v < other, 0 if equal, 1 if v > other.
// Within one major, alpha < beta < stable.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return uintCompare(v.Major, other.Major)
	}
	if v.Stage != other.Stage {
		return intCompare(int(v.Stage), int(other.Stage))
	}
	return uintCompare(v.Number, other.Number)
}

// Less returns true if v orders strictly before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

func uintCompare(a, b uint64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func intCompare(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
