package render

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/roach88/vershift/internal/evolve"
	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/version"
)

// GoRenderer renders a batch as one Go package: a type declaration per
// container version, adjacent upgrade/downgrade converters implementing
// the edge ops, and one dispatcher file with the all-pairs conversion
// functions plus the Hooks interface.
type GoRenderer struct {
	// Package is the generated package name. "schema" when empty.
	Package string
}

func (r *GoRenderer) Render(inputs []Input) ([]File, error) {
	pkg := r.Package
	if pkg == "" {
		pkg = "schema"
	}

	var files []File
	hooks := newHookSet()

	for _, in := range inputs {
		for _, def := range in.Descriptor.Versions {
			f, err := renderGoVersion(pkg, in, def)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}

		if len(in.Edges) > 0 {
			f, err := renderGoConverters(pkg, in, hooks)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}

	dispatch, err := renderGoDispatch(pkg, inputs, hooks)
	if err != nil {
		return nil, err
	}
	files = append(files, dispatch)

	return files, nil
}

// ----------------------------------------------------------------------------
// Naming and type mapping

// exportName converts a member identifier to an exported Go identifier:
// "log_target" becomes "LogTarget", "Https" stays "Https".
func exportName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		r := []rune(part)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}

// snakeName converts a container identifier to a file-name stem:
// "NodePool" becomes "node_pool".
func snakeName(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || nextLower) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// versionSuffix turns a version identifier into a type-name suffix:
// "v1alpha1" becomes "V1alpha1".
func versionSuffix(v version.Version) string {
	s := v.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// goTypeName is the declared Go type for one container at one version.
func goTypeName(container string, v version.Version) string {
	return exportName(container) + versionSuffix(v)
}

var goScalar = map[string]string{
	"string":  "string",
	"bool":    "bool",
	"bytes":   "[]byte",
	"int":     "int",
	"int8":    "int8",
	"int16":   "int16",
	"int32":   "int32",
	"int64":   "int64",
	"uint":    "uint",
	"uint8":   "uint8",
	"uint16":  "uint16",
	"uint32":  "uint32",
	"uint64":  "uint64",
	"float32": "float32",
	"float64": "float64",
}

// goType maps a member type to its Go form at one version. Bare container
// references become that container's versioned type. List elements that
// name a container stay `any`: lists copy opaquely across edges, so a
// versioned element type would not survive the copy.
func goType(t ir.TypeRef, v version.Version) (string, error) {
	if t.Container {
		return goTypeName(t.Name, v), nil
	}

	prefix := ""
	base := t.Name
	for strings.HasPrefix(base, "[]") {
		prefix += "[]"
		base = base[2:]
	}

	if mapped, ok := goScalar[base]; ok {
		return prefix + mapped, nil
	}
	if prefix != "" {
		return prefix + "any", nil
	}
	return "", fmt.Errorf("type %q has no Go mapping", t.Name)
}

// ----------------------------------------------------------------------------
// Hook signature collection

type hookSig struct {
	name     string
	param    string // empty for suppliers
	result   string
	supplier bool
}

func (s hookSig) method() string {
	if s.supplier {
		return fmt.Sprintf("%s() %s", exportName(s.name), s.result)
	}
	return fmt.Sprintf("%s(in %s) (%s, error)", exportName(s.name), s.param, s.result)
}

// hookSet accumulates every supplier and hook signature the rendered
// converters call, so the dispatcher file can declare the Hooks interface.
type hookSet struct {
	sigs map[string]hookSig
}

func newHookSet() *hookSet {
	return &hookSet{sigs: make(map[string]hookSig)}
}

func (h *hookSet) add(sig hookSig) error {
	existing, ok := h.sigs[sig.name]
	if !ok {
		h.sigs[sig.name] = sig
		return nil
	}
	if existing != sig {
		return fmt.Errorf("hook %q is declared with conflicting signatures (%s vs %s)",
			sig.name, existing.method(), sig.method())
	}
	return nil
}

// methods returns the interface method declarations sorted by name.
func (h *hookSet) methods() []string {
	names := make([]string, 0, len(h.sigs))
	for name := range h.sigs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, len(names))
	for i, name := range names {
		out[i] = h.sigs[name].method()
	}
	return out
}

// ----------------------------------------------------------------------------
// Per-version type files

type goVersionData struct {
	Package     string
	Container   string
	Version     string
	Fingerprint string
	TypeName    string
	TypeDoc     []string
	IsStruct    bool
	Fields      []goFieldData
	Variants    []goVariantData
}

type goFieldData struct {
	Doc  []string
	Name string
	Type string
	Wire string
}

type goVariantData struct {
	Doc   []string
	Const string
	Value string
}

var goVersionTemplate = template.Must(template.New("goversion").Parse(`// Code generated by vershift. DO NOT EDIT.
//
// Container:   {{.Container}}
// Version:     {{.Version}}
// Fingerprint: {{.Fingerprint}}

package {{.Package}}

{{range .TypeDoc}}{{.}}
{{end}}{{if .IsStruct}}type {{.TypeName}} struct {
{{- range .Fields}}
{{- range .Doc}}
	{{.}}
{{- end}}
	{{.Name}} {{.Type}} ` + "`json:\"{{.Wire}}\"`" + `
{{- end}}
}{{else}}type {{.TypeName}} string

const (
{{- range .Variants}}
{{- range .Doc}}
	{{.}}
{{- end}}
	{{.Const}} {{$.TypeName}} = "{{.Value}}"
{{- end}}
){{end}}
`))

func renderGoVersion(pkg string, in Input, def ir.Definition) (File, error) {
	data := goVersionData{
		Package:     pkg,
		Container:   def.Container,
		Version:     def.Version.Version.String(),
		Fingerprint: in.Fingerprint,
		TypeName:    goTypeName(def.Container, def.Version.Version),
		IsStruct:    def.Kind == ir.KindStruct,
	}

	data.TypeDoc = typeDocLines(def, data.TypeName)

	for _, m := range def.Members {
		if data.IsStruct {
			typ, err := goType(m.Type, def.Version.Version)
			if err != nil {
				return File{}, fmt.Errorf("container %q version %s member %q: %w",
					def.Container, data.Version, m.Name, err)
			}
			data.Fields = append(data.Fields, goFieldData{
				Doc:  memberDocLines(m),
				Name: exportName(m.Name),
				Type: typ,
				Wire: m.Name,
			})
			continue
		}
		data.Variants = append(data.Variants, goVariantData{
			Doc:   memberDocLines(m),
			Const: data.TypeName + exportName(m.Name),
			Value: m.Name,
		})
	}

	return executeGoTemplate(goVersionTemplate, data,
		fmt.Sprintf("%s_%s.go", snakeName(def.Container), data.Version))
}

func typeDocLines(def ir.Definition, typeName string) []string {
	lines := []string{fmt.Sprintf("// %s is the shape of %s at version %s.",
		typeName, def.Container, def.Version.Version)}
	if def.Doc != "" {
		lines = append(lines, "//", "// "+def.Doc)
	}
	if def.Version.Doc != "" {
		lines = append(lines, "//", "// "+def.Version.Doc)
	}
	if def.Version.Deprecated {
		lines = append(lines, "//", fmt.Sprintf("// Deprecated: version %s is deprecated.", def.Version.Version))
	}
	return lines
}

func memberDocLines(m ir.Member) []string {
	var lines []string
	if m.Doc != "" {
		lines = append(lines, "// "+m.Doc)
	}
	if m.Deprecated {
		if len(lines) > 0 {
			lines = append(lines, "//")
		}
		note := m.DeprecationNote
		if note == "" {
			note = "do not use."
		}
		lines = append(lines, "// Deprecated: "+note)
	}
	return lines
}

// ----------------------------------------------------------------------------
// Adjacent converter files

type goFuncData struct {
	Doc     []string
	Name    string
	InType  string
	OutType string
	Body    []string
}

type goConvertData struct {
	Package     string
	Container   string
	Fingerprint string
	NeedsFmt    bool
	Funcs       []goFuncData
}

var goConvertTemplate = template.Must(template.New("goconvert").Parse(`// Code generated by vershift. DO NOT EDIT.
//
// Container:   {{.Container}}
// Fingerprint: {{.Fingerprint}}

package {{.Package}}
{{if .NeedsFmt}}
import "fmt"
{{end}}
{{- range .Funcs}}

{{range .Doc}}{{.}}
{{end}}func {{.Name}}(in {{.InType}}, h Hooks) ({{.OutType}}, error) {
{{- range .Body}}
{{.}}
{{- end}}
}
{{- end}}
`))

// convertFuncName names one adjacent edge's converter.
func convertFuncName(edge ir.Edge) string {
	dir := "Upgrade"
	if edge.Direction == ir.DirectionDowngrade {
		dir = "Downgrade"
	}
	return dir + exportName(edge.Container) + versionSuffix(edge.From) + "To" + versionSuffix(edge.To)
}

func renderGoConverters(pkg string, in Input, hooks *hookSet) (File, error) {
	data := goConvertData{
		Package:     pkg,
		Container:   in.Descriptor.Container,
		Fingerprint: in.Fingerprint,
	}

	for _, edge := range in.Edges {
		fn, needsFmt, err := buildEdgeFunc(in, edge, hooks)
		if err != nil {
			return File{}, err
		}
		data.Funcs = append(data.Funcs, fn)
		data.NeedsFmt = data.NeedsFmt || needsFmt
	}

	return executeGoTemplate(goConvertTemplate, data,
		fmt.Sprintf("%s_convert.go", snakeName(in.Descriptor.Container)))
}

func buildEdgeFunc(in Input, edge ir.Edge, hooks *hookSet) (goFuncData, bool, error) {
	inType := goTypeName(edge.Container, edge.From)
	outType := goTypeName(edge.Container, edge.To)

	fn := goFuncData{
		Doc: []string{fmt.Sprintf("// %s converts %s from %s to %s.",
			convertFuncName(edge), edge.Container, edge.From, edge.To)},
		Name:    convertFuncName(edge),
		InType:  inType,
		OutType: outType,
	}

	var body []string
	var needsFmt bool
	var err error
	if in.Descriptor.Kind == ir.KindStruct {
		body, needsFmt, err = structEdgeBody(in, edge, outType, hooks)
	} else {
		body, err = enumEdgeBody(edge, inType, outType)
		needsFmt = true
	}
	if err != nil {
		return goFuncData{}, false, fmt.Errorf("container %q edge %s -> %s: %w",
			edge.Container, edge.From, edge.To, err)
	}

	fn.Body = body
	return fn, needsFmt, nil
}

func structEdgeBody(in Input, edge ir.Edge, outType string, hooks *hookSet) ([]string, bool, error) {
	fromDef, ok := in.definitionAt(edge.From)
	if !ok {
		return nil, false, fmt.Errorf("no definition at %s", edge.From)
	}
	toDef, ok := in.definitionAt(edge.To)
	if !ok {
		return nil, false, fmt.Errorf("no definition at %s", edge.To)
	}

	body := []string{"\tvar out " + outType}
	needsFmt := false
	tmp := 0

	for _, op := range edge.Ops {
		switch op := op.(type) {
		case ir.CopyOp:
			body = append(body, fmt.Sprintf("\tout.%s = in.%s", exportName(op.To), exportName(op.From)))

		case ir.DefaultOp:
			if op.Supplier == "" {
				// Zero value, already in place from the out declaration.
				continue
			}
			result, err := goType(op.Type, edge.To)
			if err != nil {
				return nil, false, fmt.Errorf("member %q: %w", op.Name, err)
			}
			if err := hooks.add(hookSig{name: op.Supplier, result: result, supplier: true}); err != nil {
				return nil, false, err
			}
			body = append(body, fmt.Sprintf("\tout.%s = h.%s()", exportName(op.Name), exportName(op.Supplier)))

		case ir.HookOp:
			from, ok := fromDef.Lookup(op.From)
			if !ok {
				return nil, false, fmt.Errorf("member %q missing at %s", op.From, edge.From)
			}
			to, ok := toDef.Lookup(op.To)
			if !ok {
				return nil, false, fmt.Errorf("member %q missing at %s", op.To, edge.To)
			}
			param, err := goType(from.Type, edge.From)
			if err != nil {
				return nil, false, fmt.Errorf("member %q: %w", op.From, err)
			}
			result, err := goType(to.Type, edge.To)
			if err != nil {
				return nil, false, fmt.Errorf("member %q: %w", op.To, err)
			}
			if err := hooks.add(hookSig{name: op.Hook, param: param, result: result}); err != nil {
				return nil, false, err
			}
			v := fmt.Sprintf("v%d", tmp)
			tmp++
			body = append(body,
				fmt.Sprintf("\t%s, err := h.%s(in.%s)", v, exportName(op.Hook), exportName(op.From)),
				"\tif err != nil {",
				fmt.Sprintf("\t\treturn %s{}, fmt.Errorf(\"%s: %%w\", err)", outType, op.Hook),
				"\t}",
				fmt.Sprintf("\tout.%s = %s", exportName(op.To), v),
			)
			needsFmt = true

		case ir.ConvertOp:
			nested := ir.Edge{Container: op.Container, From: edge.From, To: edge.To, Direction: edge.Direction}
			v := fmt.Sprintf("v%d", tmp)
			tmp++
			body = append(body,
				fmt.Sprintf("\t%s, err := %s(in.%s, h)", v, convertFuncName(nested), exportName(op.From)),
				"\tif err != nil {",
				fmt.Sprintf("\t\treturn %s{}, fmt.Errorf(\"%s: %%w\", err)", outType, op.From),
				"\t}",
				fmt.Sprintf("\tout.%s = %s", exportName(op.To), v),
			)
			needsFmt = true

		default:
			return nil, false, fmt.Errorf("unexpected op %T on a struct edge", op)
		}
	}

	body = append(body, "\treturn out, nil")
	return body, needsFmt, nil
}

func enumEdgeBody(edge ir.Edge, inType, outType string) ([]string, error) {
	body := []string{"\tswitch in {"}
	for _, op := range edge.Ops {
		var from, to string
		switch op := op.(type) {
		case ir.MapVariantOp:
			from, to = op.From, op.To
		case ir.FallbackVariantOp:
			from, to = op.From, op.To
		default:
			return nil, fmt.Errorf("unexpected op %T on an enum edge", op)
		}
		body = append(body,
			fmt.Sprintf("\tcase %s%s:", inType, exportName(from)),
			fmt.Sprintf("\t\treturn %s%s, nil", outType, exportName(to)),
		)
	}
	body = append(body,
		"\t}",
		fmt.Sprintf("\treturn \"\", fmt.Errorf(\"unknown %s value %%q at version %s\", string(in))",
			edge.Container, edge.From),
	)
	return body, nil
}

// ----------------------------------------------------------------------------
// Dispatcher file

type goDispatchData struct {
	Package      string
	Fingerprints []string
	HookMethods  []string
	Funcs        []goFuncData
}

var goDispatchTemplate = template.Must(template.New("godispatch").Parse(`// Code generated by vershift. DO NOT EDIT.
//
{{- range .Fingerprints}}
// {{.}}
{{- end}}

package {{.Package}}

// Hooks supplies the default values and payload conversions the container
// definitions name. Converters call through it at every boundary where a
// member was added or changed its type.
type Hooks interface {
{{- range .HookMethods}}
	{{.}}
{{- end}}
}
{{- range .Funcs}}

{{range .Doc}}{{.}}
{{end}}func {{.Name}}(in {{.InType}}, h Hooks) ({{.OutType}}, error) {
{{- range .Body}}
{{.}}
{{- end}}
}
{{- end}}
`))

func renderGoDispatch(pkg string, inputs []Input, hooks *hookSet) (File, error) {
	data := goDispatchData{
		Package:     pkg,
		HookMethods: hooks.methods(),
	}

	for _, in := range inputs {
		data.Fingerprints = append(data.Fingerprints,
			fmt.Sprintf("%s: %s", in.Descriptor.Container, in.Fingerprint))
	}

	for _, in := range inputs {
		container := in.Descriptor.Container
		for _, path := range evolve.ConversionPaths(in.Registry) {
			data.Funcs = append(data.Funcs, buildPathFunc(container, path))
		}
	}

	return executeGoTemplate(goDispatchTemplate, data, "convert.go")
}

// buildPathFunc composes one all-pairs conversion from its adjacent steps.
func buildPathFunc(container string, path evolve.Path) goFuncData {
	name := "Convert" + exportName(container) + versionSuffix(path.From) + "To" + versionSuffix(path.To)
	outType := goTypeName(container, path.To)

	fn := goFuncData{
		Name:    name,
		InType:  goTypeName(container, path.From),
		OutType: outType,
	}

	doc := fmt.Sprintf("// %s converts %s from %s to %s", name, container, path.From, path.To)
	if len(path.Steps) > 1 {
		through := make([]string, len(path.Steps)-1)
		for i, s := range path.Steps[:len(path.Steps)-1] {
			through[i] = s.String()
		}
		doc += " through " + strings.Join(through, ", ")
	}
	fn.Doc = []string{doc + "."}

	cur := path.From
	arg := "in"
	var body []string
	for i, step := range path.Steps {
		stepFn := convertFuncName(ir.Edge{
			Container: container,
			From:      cur,
			To:        step,
			Direction: stepDirection(cur, step),
		})
		if i == len(path.Steps)-1 {
			body = append(body, fmt.Sprintf("\treturn %s(%s, h)", stepFn, arg))
			break
		}
		v := fmt.Sprintf("s%d", i)
		body = append(body,
			fmt.Sprintf("\t%s, err := %s(%s, h)", v, stepFn, arg),
			"\tif err != nil {",
			fmt.Sprintf("\t\treturn %s{}, err", outType),
			"\t}",
		)
		cur = step
		arg = v
	}

	fn.Body = body
	return fn
}

func stepDirection(from, to version.Version) ir.Direction {
	if from.Less(to) {
		return ir.DirectionUpgrade
	}
	return ir.DirectionDowngrade
}

// ----------------------------------------------------------------------------

// executeGoTemplate runs a template and gofmt-formats the result.
func executeGoTemplate(tmpl *template.Template, data any, name string) (File, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return File{}, fmt.Errorf("executing template for %s: %w", name, err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return File{}, fmt.Errorf("formatting %s: %w", name, err)
	}

	return File{Name: name, Content: formatted}, nil
}
