package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

// Validation error codes (E100-E199)
const (
	ErrUnknownVersion   = "E101" // action references an undeclared version
	ErrActionOrder      = "E102" // actions out of ascending version order
	ErrDuplicateSince   = "E103" // two actions share one version
	ErrPrefixMismatch   = "E104" // deprecated prefix does not match final state
	ErrBadCombination   = "E105" // action fields that contradict each other
	ErrMalformed        = "E106" // structurally broken definition
	ErrBadFallback      = "E107" // fallback that cannot work
	ErrUnknownReference = "E108" // type names nothing in scope
)

// ValidationError represents a definition validation error.
type ValidationError struct {
	Container string `json:"container,omitempty"`
	Item      string `json:"item,omitempty"`
	Field     string `json:"field,omitempty"`
	Message   string `json:"message"`
	Code      string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	scope := e.Container
	if e.Item != "" {
		scope += "." + e.Item
	}
	switch {
	case scope != "" && e.Field != "":
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, scope, e.Field, e.Message)
	case scope != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, scope, e.Message)
	case e.Field != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// ValidateBatch validates every container of a compiled batch against the
// lifecycle rules. Returns all errors found (does not fail-fast). Type
// references are resolved against the batch, so a container naming a
// sibling validates only here, never through ValidateContainer alone.
func ValidateBatch(b *ir.Batch) []ValidationError {
	var errs []ValidationError

	known := make(map[string]bool, len(b.Entries))
	for _, entry := range b.Entries {
		name := entry.Container.Name
		if known[name] {
			errs = append(errs, ValidationError{
				Container: name,
				Message:   fmt.Sprintf("container %q compiled twice in one batch", name),
				Code:      ErrMalformed,
			})
		}
		known[name] = true
	}

	for _, entry := range b.Entries {
		errs = append(errs, ValidateContainer(entry.Container, entry.Registry)...)
		errs = append(errs, validateTypeRefs(entry.Container, known)...)
	}

	return errs
}

// ValidateContainer validates one container against its registry: action
// ordering, version references, prefix conventions, and fallback rules.
// Everything except cross-container type references, which need the batch.
func ValidateContainer(c *ir.Container, reg *version.Registry) []ValidationError {
	var errs []ValidationError

	// E106: structural checks before any rule that depends on them
	if c.Name == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "container name is required",
			Code:    ErrMalformed,
		})
	}
	if c.Kind != ir.KindStruct && c.Kind != ir.KindEnum {
		errs = append(errs, ValidationError{
			Container: c.Name,
			Field:     "kind",
			Message:   fmt.Sprintf("unknown container kind %d", c.Kind),
			Code:      ErrMalformed,
		})
		return errs
	}
	if len(c.Items) == 0 {
		errs = append(errs, ValidationError{
			Container: c.Name,
			Message:   fmt.Sprintf("%s declares no %s", c.Kind, itemNoun(c.Kind)),
			Code:      ErrMalformed,
		})
	}

	seen := make(map[string]bool, len(c.Items))
	for _, item := range c.Items {
		if item.Name == "" {
			errs = append(errs, ValidationError{
				Container: c.Name,
				Field:     "name",
				Message:   fmt.Sprintf("%s name is required", itemNoun(c.Kind)),
				Code:      ErrMalformed,
			})
			continue
		}
		if seen[item.Name] {
			errs = append(errs, ValidationError{
				Container: c.Name,
				Item:      item.Name,
				Message:   fmt.Sprintf("duplicate %s name %q", itemNoun(c.Kind), item.Name),
				Code:      ErrMalformed,
			})
		}
		seen[item.Name] = true

		errs = append(errs, validateItem(c, item, reg)...)
	}

	return errs
}

// validateItem checks one item's actions against the registry and the
// naming conventions.
func validateItem(c *ir.Container, item ir.Item, reg *version.Registry) []ValidationError {
	var errs []ValidationError
	fail := func(field, message, code string) {
		errs = append(errs, ValidationError{
			Container: c.Name,
			Item:      item.Name,
			Field:     field,
			Message:   message,
			Code:      code,
		})
	}

	if c.Kind == ir.KindStruct && item.Type.IsZero() {
		fail("type", "field type is required", ErrMalformed)
	}

	// E101: every since must name a declared version
	type actionRef struct {
		label string
		field string
		since version.Version
	}
	var refs []actionRef
	if a := item.Actions.Added; a != nil {
		refs = append(refs, actionRef{"added", "added.since", a.Since})
	}
	for i, change := range item.Actions.Changes {
		refs = append(refs, actionRef{"change", fmt.Sprintf("changes[%d].since", i), change.Since})
	}
	if a := item.Actions.Deprecated; a != nil {
		refs = append(refs, actionRef{"deprecated", "deprecated.since", a.Since})
	}
	for _, ref := range refs {
		if _, ok := reg.Index(ref.since); !ok {
			fail(ref.field, fmt.Sprintf("version %q is not declared", ref.since), ErrUnknownVersion)
		}
	}

	// E102/E103: added, changes, deprecated must be strictly ascending
	for i := 1; i < len(refs); i++ {
		prev, cur := refs[i-1], refs[i]
		switch cur.since.Compare(prev.since) {
		case 0:
			msg := fmt.Sprintf("%s and %s both declare since %s", prev.label, cur.label, cur.since)
			if prev.label == cur.label {
				msg = fmt.Sprintf("two %ss declare since %s", cur.label, cur.since)
			}
			fail(cur.field, msg, ErrDuplicateSince)
		case -1:
			fail(cur.field, fmt.Sprintf("%s (since %s) must come after %s (since %s)",
				cur.label, cur.since, prev.label, prev.since), ErrActionOrder)
		}
	}

	// E104: the declared name carries the deprecated prefix exactly when
	// the item is deprecated at the latest version
	prefix := ir.DeprecatedPrefix(c.Kind)
	hasPrefix := ir.HasDeprecatedPrefix(c.Kind, item.Name)
	if item.Actions.Deprecated != nil && !hasPrefix {
		fail("name", fmt.Sprintf("deprecated %s must carry the %q prefix", itemNoun(c.Kind), prefix), ErrPrefixMismatch)
	}
	if item.Actions.Deprecated == nil && hasPrefix {
		fail("name", fmt.Sprintf("%s carries the %q prefix but declares no deprecation", itemNoun(c.Kind), prefix), ErrPrefixMismatch)
	}

	for i, change := range item.Actions.Changes {
		if change.FromName != "" && ir.HasDeprecatedPrefix(c.Kind, change.FromName) {
			fail(fmt.Sprintf("changes[%d].from", i),
				fmt.Sprintf("previous name %q must not carry the %q prefix", change.FromName, prefix), ErrPrefixMismatch)
		}

		// E105: contradictory change declarations
		if change.FromName == "" && change.FromType.IsZero() {
			fail(fmt.Sprintf("changes[%d]", i),
				"change declares neither a previous name nor a previous type", ErrBadCombination)
		}
		if change.FromType.IsZero() && (change.UpgradeHook != "" || change.DowngradeHook != "") {
			fail(fmt.Sprintf("changes[%d]", i),
				"hooks declared on a rename that changes no type", ErrBadCombination)
		}
		if c.Kind == ir.KindEnum && item.Type.IsZero() && !change.FromType.IsZero() {
			fail(fmt.Sprintf("changes[%d].from_type", i),
				"previous type declared on a variant with no payload", ErrBadCombination)
		}
	}

	if c.Kind == ir.KindEnum && item.Actions.Added != nil && item.Actions.Added.Default != "" {
		fail("added.default", "default suppliers apply to fields, not variants", ErrBadCombination)
	}

	errs = append(errs, validateFallback(c, item)...)
	return errs
}

// validateFallback checks the fallback declaration of one item. The
// fallback target's presence at concrete versions is a generation-time
// question; here only the static shape is checked.
func validateFallback(c *ir.Container, item ir.Item) []ValidationError {
	if item.Fallback == "" {
		return nil
	}
	fail := func(message string) []ValidationError {
		return []ValidationError{{
			Container: c.Name,
			Item:      item.Name,
			Field:     "fallback",
			Message:   message,
			Code:      ErrBadFallback,
		}}
	}

	if c.Kind != ir.KindEnum {
		return fail("fallback applies to variants, not fields")
	}
	if item.Fallback == item.Name {
		return fail("variant cannot fall back to itself")
	}
	if item.Actions.Added == nil {
		return fail("fallback declared but the variant is present in every version")
	}
	for _, other := range c.Items {
		if other.Name == item.Fallback {
			return nil
		}
	}
	return fail(fmt.Sprintf("fallback %q is not a variant of this container", item.Fallback))
}

// validateTypeRefs checks that every type names a scalar or a container in
// the batch. List types are unwrapped to their element.
func validateTypeRefs(c *ir.Container, known map[string]bool) []ValidationError {
	var errs []ValidationError
	check := func(item string, field string, t ir.TypeRef) {
		if t.IsZero() {
			return
		}
		base := baseType(t.Name)
		if scalarTypes[base] || known[base] {
			return
		}
		errs = append(errs, ValidationError{
			Container: c.Name,
			Item:      item,
			Field:     field,
			Message:   fmt.Sprintf("type %q names neither a scalar nor a container in this batch", t.Name),
			Code:      ErrUnknownReference,
		})
	}

	for _, item := range c.Items {
		check(item.Name, "type", item.Type)
		for i, change := range item.Actions.Changes {
			check(item.Name, fmt.Sprintf("changes[%d].from_type", i), change.FromType)
		}
	}
	return errs
}

// scalarTypes are the member types that need no batch resolution.
var scalarTypes = map[string]bool{
	"string":  true,
	"bool":    true,
	"bytes":   true,
	"int":     true,
	"int8":    true,
	"int16":   true,
	"int32":   true,
	"int64":   true,
	"uint":    true,
	"uint8":   true,
	"uint16":  true,
	"uint32":  true,
	"uint64":  true,
	"float32": true,
	"float64": true,
}

// baseType strips list markers down to the element type.
func baseType(name string) string {
	for strings.HasPrefix(name, "[]") {
		name = name[2:]
	}
	return name
}

func itemNoun(kind ir.ContainerKind) string {
	if kind == ir.KindEnum {
		return "variant"
	}
	return "field"
}
