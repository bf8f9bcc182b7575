package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainDescriptor is the domain prefix for descriptor fingerprints.
// The version suffix enables future algorithm migration.
const DomainDescriptor = "vershift/descriptor/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of a combined
// descriptor. Two descriptors with the same container name, kind, docs,
// and per-version member layout hash identically, so the fingerprint
// detects drift between what a catalog recorded and what the current
// definition derives. Cosmetic details that do not affect derived output
// (authored action ordering, source file layout) never reach the hash
// because the input is the derived descriptor, not the authored source.
func Fingerprint(d CombinedDescriptor) (string, error) {
	canonical, err := MarshalCanonical(descriptorValue(d))
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDescriptor, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFingerprint(d CombinedDescriptor) string {
	fp, err := Fingerprint(d)
	if err != nil {
		panic(err)
	}
	return fp
}

// descriptorValue lowers a combined descriptor into the canonical value
// vocabulary. Optional fields are omitted when empty rather than encoded
// as empty strings, and the omission is itself deterministic.
func descriptorValue(d CombinedDescriptor) Obj {
	versions := make(Arr, 0, len(d.Versions))
	for _, def := range d.Versions {
		versions = append(versions, definitionValue(def))
	}

	obj := Obj{
		"container": Str(d.Container),
		"kind":      Str(d.Kind.String()),
		"storage":   Str(d.Storage.String()),
		"versions":  versions,
	}
	if d.Doc != "" {
		obj["doc"] = Str(d.Doc)
	}
	return obj
}

func definitionValue(def Definition) Obj {
	members := make(Arr, 0, len(def.Members))
	for _, m := range def.Members {
		members = append(members, memberValue(m))
	}

	obj := Obj{
		"version": Str(def.Version.Version.String()),
		"members": members,
	}
	if def.Version.Deprecated {
		obj["deprecated"] = Bool(true)
	}
	if def.Version.Doc != "" {
		obj["doc"] = Str(def.Version.Doc)
	}
	return obj
}

func memberValue(m Member) Obj {
	typ := Obj{"name": Str(m.Type.Name)}
	if m.Type.Container {
		typ["container"] = Bool(true)
	}

	obj := Obj{
		"name": Str(m.Name),
		"type": typ,
	}
	if m.Doc != "" {
		obj["doc"] = Str(m.Doc)
	}
	if m.Deprecated {
		obj["deprecated"] = Bool(true)
	}
	if m.DeprecationNote != "" {
		obj["note"] = Str(m.DeprecationNote)
	}
	return obj
}
