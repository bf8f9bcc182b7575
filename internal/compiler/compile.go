package compiler

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

// CompileContainer parses a CUE value into a container definition plus the
// version registry it is evaluated against. Uses CUE SDK's Go API directly
// (not CLI subprocess).
//
// The CUE value should be the container struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`schema: Endpoint: { ... }`)
//	c, reg, err := CompileContainer("Endpoint", v.LookupPath(cue.ParsePath("schema.Endpoint")))
//
// Compilation is structural only: it checks that the value has the right
// shape and that versions parse, then hands the result to ValidateBatch for
// the lifecycle rules.
func CompileContainer(name string, v cue.Value) (*ir.Container, *version.Registry, error) {
	if err := v.Err(); err != nil {
		return nil, nil, formatCUEError(err)
	}

	c := &ir.Container{Name: name}

	// Parse kind (required)
	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, nil, &CompileError{
			Field:   "kind",
			Message: "kind is required (struct or enum)",
			Pos:     v.Pos(),
		}
	}
	kindStr, err := kindVal.String()
	if err != nil {
		return nil, nil, formatCUEError(err)
	}
	if err := c.Kind.UnmarshalText([]byte(kindStr)); err != nil {
		return nil, nil, &CompileError{
			Field:   "kind",
			Message: err.Error(),
			Pos:     kindVal.Pos(),
		}
	}

	// Parse doc (optional)
	c.Doc, err = optionalString(v, "doc")
	if err != nil {
		return nil, nil, err
	}

	// Parse versions (required, at least one)
	reg, err := parseVersions(v)
	if err != nil {
		return nil, nil, err
	}

	// Parse fields or variants, matching the kind
	c.Items, err = parseItems(v, c.Kind)
	if err != nil {
		return nil, nil, err
	}

	return c, reg, nil
}

// parseVersions reads the ordered version list. Each entry is either a bare
// identifier string or an object {name, deprecated?, doc?}.
func parseVersions(v cue.Value) (*version.Registry, error) {
	versionsVal := v.LookupPath(cue.ParsePath("versions"))
	if !versionsVal.Exists() {
		return nil, &CompileError{
			Field:   "versions",
			Message: "at least one version must be declared",
			Pos:     v.Pos(),
		}
	}

	iter, err := versionsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var entries []version.Declared
	for i := 0; iter.Next(); i++ {
		entry, err := parseVersionEntry(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	reg, err := version.NewRegistry(entries)
	if err != nil {
		return nil, &CompileError{
			Field:   "versions",
			Message: err.Error(),
			Pos:     versionsVal.Pos(),
		}
	}
	return reg, nil
}

// parseVersionEntry parses a single version declaration.
// Supports string or structured object format.
func parseVersionEntry(v cue.Value, i int) (version.Declared, error) {
	var entry version.Declared

	// Try as string first
	if name, err := v.String(); err == nil {
		parsed, err := version.Parse(name)
		if err != nil {
			return entry, &CompileError{
				Field:   fmt.Sprintf("versions[%d]", i),
				Message: err.Error(),
				Pos:     v.Pos(),
			}
		}
		entry.Version = parsed
		return entry, nil
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return entry, &CompileError{
			Field:   fmt.Sprintf("versions[%d]", i),
			Message: "must be a version string or an object with a name field",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return entry, formatCUEError(err)
	}
	parsed, err := version.Parse(name)
	if err != nil {
		return entry, &CompileError{
			Field:   fmt.Sprintf("versions[%d].name", i),
			Message: err.Error(),
			Pos:     nameVal.Pos(),
		}
	}
	entry.Version = parsed

	deprecatedVal := v.LookupPath(cue.ParsePath("deprecated"))
	if deprecatedVal.Exists() {
		deprecated, err := deprecatedVal.Bool()
		if err != nil {
			return entry, formatCUEError(err)
		}
		entry.Deprecated = deprecated
	}

	entry.Doc, err = optionalString(v, "doc")
	if err != nil {
		return entry, err
	}

	return entry, nil
}

// parseItems extracts the field or variant definitions, in declaration
// order. Struct containers declare "fields", enum containers "variants";
// the other key is rejected so a kind mix-up fails loudly.
func parseItems(v cue.Value, kind ir.ContainerKind) ([]ir.Item, error) {
	itemsKey, wrongKey := "fields", "variants"
	if kind == ir.KindEnum {
		itemsKey, wrongKey = "variants", "fields"
	}

	if wrong := v.LookupPath(cue.ParsePath(wrongKey)); wrong.Exists() {
		return nil, &CompileError{
			Field:   wrongKey,
			Message: fmt.Sprintf("%s containers declare %s, not %s", kind, itemsKey, wrongKey),
			Pos:     wrong.Pos(),
		}
	}

	itemsVal := v.LookupPath(cue.ParsePath(itemsKey))
	if !itemsVal.Exists() {
		return nil, &CompileError{
			Field:   itemsKey,
			Message: fmt.Sprintf("at least one of %s is required", itemsKey),
			Pos:     v.Pos(),
		}
	}

	iter, err := itemsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var items []ir.Item
	for iter.Next() {
		item, err := parseItem(iter.Label(), iter.Value(), kind, itemsKey)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// parseItem parses one field or variant definition.
func parseItem(name string, v cue.Value, kind ir.ContainerKind, itemsKey string) (ir.Item, error) {
	item := ir.Item{Name: name}
	path := itemsKey + "." + name

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if typeVal.Exists() {
		typeName, err := typeVal.String()
		if err != nil {
			return item, formatCUEError(err)
		}
		item.Type = ir.TypeRef{Name: typeName}
	} else if kind == ir.KindStruct {
		// Variants may omit the type (no payload); fields never do.
		return item, &CompileError{
			Field:   path + ".type",
			Message: "field type is required",
			Pos:     v.Pos(),
		}
	}

	var err error
	item.Doc, err = optionalString(v, "doc")
	if err != nil {
		return item, err
	}
	item.Fallback, err = optionalString(v, "fallback")
	if err != nil {
		return item, err
	}

	item.Actions, err = parseActions(v, path)
	if err != nil {
		return item, err
	}

	return item, nil
}

// parseActions parses the lifecycle annotations of one item. Renamed and
// changed entries merge into a single change list ordered by version; the
// two CUE keys have no relative source order, so the parsed versions are
// the only order there is.
func parseActions(v cue.Value, path string) (ir.Actions, error) {
	var actions ir.Actions

	addedVal := v.LookupPath(cue.ParsePath("added"))
	if addedVal.Exists() {
		since, err := parseSince(addedVal, path+".added")
		if err != nil {
			return actions, err
		}
		supplier, err := optionalString(addedVal, "default")
		if err != nil {
			return actions, err
		}
		actions.Added = &ir.AddedAction{Since: since, Default: supplier}
	}

	renamedVal := v.LookupPath(cue.ParsePath("renamed"))
	if renamedVal.Exists() {
		iter, err := renamedVal.List()
		if err != nil {
			return actions, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			entry := iter.Value()
			entryPath := fmt.Sprintf("%s.renamed[%d]", path, i)

			since, err := parseSince(entry, entryPath)
			if err != nil {
				return actions, err
			}
			from, err := requiredString(entry, "from", entryPath)
			if err != nil {
				return actions, err
			}
			actions.Changes = append(actions.Changes, ir.ChangeAction{Since: since, FromName: from})
		}
	}

	changedVal := v.LookupPath(cue.ParsePath("changed"))
	if changedVal.Exists() {
		iter, err := changedVal.List()
		if err != nil {
			return actions, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			entry := iter.Value()
			entryPath := fmt.Sprintf("%s.changed[%d]", path, i)

			change := ir.ChangeAction{}
			change.Since, err = parseSince(entry, entryPath)
			if err != nil {
				return actions, err
			}
			change.FromName, err = optionalString(entry, "from")
			if err != nil {
				return actions, err
			}
			fromType, err := optionalString(entry, "from_type")
			if err != nil {
				return actions, err
			}
			change.FromType = ir.TypeRef{Name: fromType}
			change.UpgradeHook, err = optionalString(entry, "upgrade")
			if err != nil {
				return actions, err
			}
			change.DowngradeHook, err = optionalString(entry, "downgrade")
			if err != nil {
				return actions, err
			}
			actions.Changes = append(actions.Changes, change)
		}
	}

	slices.SortStableFunc(actions.Changes, func(a, b ir.ChangeAction) int {
		return a.Since.Compare(b.Since)
	})

	deprecatedVal := v.LookupPath(cue.ParsePath("deprecated"))
	if deprecatedVal.Exists() {
		since, err := parseSince(deprecatedVal, path+".deprecated")
		if err != nil {
			return actions, err
		}
		note, err := optionalString(deprecatedVal, "note")
		if err != nil {
			return actions, err
		}
		actions.Deprecated = &ir.DeprecatedAction{Since: since, Note: note}
	}

	return actions, nil
}

// parseSince reads the required since version of one action entry.
func parseSince(v cue.Value, path string) (version.Version, error) {
	sinceVal := v.LookupPath(cue.ParsePath("since"))
	if !sinceVal.Exists() {
		return version.Version{}, &CompileError{
			Field:   path + ".since",
			Message: "since is required",
			Pos:     v.Pos(),
		}
	}
	name, err := sinceVal.String()
	if err != nil {
		return version.Version{}, formatCUEError(err)
	}
	parsed, err := version.Parse(name)
	if err != nil {
		return version.Version{}, &CompileError{
			Field:   path + ".since",
			Message: err.Error(),
			Pos:     sinceVal.Pos(),
		}
	}
	return parsed, nil
}

// optionalString reads a string field that may be absent.
func optionalString(v cue.Value, name string) (string, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return "", nil
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// requiredString reads a string field that must be present.
func requiredString(v cue.Value, name, path string) (string, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return "", &CompileError{
			Field:   path + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
