package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusActiveName(t *testing.T) {
	str := TypeRef{Name: "string"}

	tests := []struct {
		name   string
		status ItemStatus
		active string
	}{
		{"added", StatusAdded{Name: "tls", Type: str}, "tls"},
		{"renamed", StatusRenamed{From: "host", To: "hostname", Type: str}, "hostname"},
		{"changed", StatusChanged{FromName: "port", ToName: "ports", FromType: str, ToType: TypeRef{Name: "[]uint16"}}, "ports"},
		{"deprecated", StatusDeprecated{PreviousName: "logging", Name: "deprecated_logging", Type: str}, "deprecated_logging"},
		{"no change", StatusNoChange{Name: "hostname", Type: str}, "hostname"},
		{"not present", StatusNotPresent{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.active, tt.status.ActiveName())
		})
	}
}

func TestPredecessorName(t *testing.T) {
	str := TypeRef{Name: "string"}

	tests := []struct {
		name    string
		status  ItemStatus
		prev    string
		present bool
	}{
		{"added has no predecessor", StatusAdded{Name: "tls", Type: str}, "", false},
		{"not present has no predecessor", StatusNotPresent{}, "", false},
		{"renamed", StatusRenamed{From: "host", To: "hostname", Type: str}, "host", true},
		{"changed", StatusChanged{FromName: "port", ToName: "ports", FromType: str, ToType: str}, "port", true},
		{"deprecated", StatusDeprecated{PreviousName: "logging", Name: "deprecated_logging", Type: str}, "logging", true},
		{"no change", StatusNoChange{Name: "hostname", Type: str}, "hostname", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, ok := PredecessorName(tt.status)
			require.Equal(t, tt.present, ok)
			assert.Equal(t, tt.prev, prev)
		})
	}
}

func TestPredecessorType(t *testing.T) {
	from := TypeRef{Name: "uint16"}
	to := TypeRef{Name: "[]uint16"}

	changed := StatusChanged{FromName: "port", ToName: "ports", FromType: from, ToType: to}
	assert.Equal(t, from, PredecessorType(changed))

	renamed := StatusRenamed{From: "host", To: "hostname", Type: TypeRef{Name: "string"}}
	assert.Equal(t, renamed.Type, PredecessorType(renamed))
}

func TestIsDeprecated(t *testing.T) {
	str := TypeRef{Name: "string"}

	assert.True(t, IsDeprecated(StatusDeprecated{PreviousName: "logging", Name: "deprecated_logging", Type: str}))
	assert.True(t, IsDeprecated(StatusNoChange{Name: "deprecated_logging", Type: str, PreviouslyDeprecated: true}))
	assert.False(t, IsDeprecated(StatusNoChange{Name: "hostname", Type: str}))
	assert.False(t, IsDeprecated(StatusAdded{Name: "tls", Type: str}))
	assert.False(t, IsDeprecated(StatusNotPresent{}))
}
