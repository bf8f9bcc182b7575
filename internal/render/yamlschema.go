package render

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vershift/internal/ir"
)

// YAMLRenderer renders one schema document per container: every assembled
// version with its members, plus a summary of the adjacent-edge conversion
// ops. The document is the human-auditable form of the derivation and the
// shape the golden tests pin down.
type YAMLRenderer struct{}

type yamlSchemaDoc struct {
	Container   string              `yaml:"container"`
	Kind        string              `yaml:"kind"`
	Doc         string              `yaml:"doc,omitempty"`
	Fingerprint string              `yaml:"fingerprint"`
	Storage     string              `yaml:"storage"`
	Versions    []yamlVersionDoc    `yaml:"versions"`
	Conversions []yamlConversionDoc `yaml:"conversions,omitempty"`
}

type yamlVersionDoc struct {
	Version    string          `yaml:"version"`
	Deprecated bool            `yaml:"deprecated,omitempty"`
	Doc        string          `yaml:"doc,omitempty"`
	Members    []yamlMemberDoc `yaml:"members"`
}

type yamlMemberDoc struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type,omitempty"`
	Doc        string `yaml:"doc,omitempty"`
	Deprecated bool   `yaml:"deprecated,omitempty"`
	Note       string `yaml:"note,omitempty"`
}

type yamlConversionDoc struct {
	From string   `yaml:"from"`
	To   string   `yaml:"to"`
	Ops  []string `yaml:"ops"`
}

func (r *YAMLRenderer) Render(inputs []Input) ([]File, error) {
	files := make([]File, 0, len(inputs))
	for _, in := range inputs {
		doc := yamlSchemaDoc{
			Container:   in.Descriptor.Container,
			Kind:        in.Descriptor.Kind.String(),
			Doc:         in.Descriptor.Doc,
			Fingerprint: in.Fingerprint,
			Storage:     in.Descriptor.Storage.String(),
		}

		for _, def := range in.Descriptor.Versions {
			doc.Versions = append(doc.Versions, yamlVersion(def))
		}
		for _, edge := range in.Edges {
			conv, err := yamlConversion(edge)
			if err != nil {
				return nil, fmt.Errorf("container %q: %w", in.Descriptor.Container, err)
			}
			doc.Conversions = append(doc.Conversions, conv)
		}

		content, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("container %q: %w", in.Descriptor.Container, err)
		}
		files = append(files, File{
			Name:    snakeName(in.Descriptor.Container) + ".yaml",
			Content: content,
		})
	}
	return files, nil
}

func yamlVersion(def ir.Definition) yamlVersionDoc {
	out := yamlVersionDoc{
		Version:    def.Version.Version.String(),
		Deprecated: def.Version.Deprecated,
		Doc:        def.Version.Doc,
		Members:    make([]yamlMemberDoc, 0, len(def.Members)),
	}
	for _, m := range def.Members {
		out.Members = append(out.Members, yamlMemberDoc{
			Name:       m.Name,
			Type:       m.Type.String(),
			Doc:        m.Doc,
			Deprecated: m.Deprecated,
			Note:       m.DeprecationNote,
		})
	}
	return out
}

func yamlConversion(edge ir.Edge) (yamlConversionDoc, error) {
	conv := yamlConversionDoc{
		From: edge.From.String(),
		To:   edge.To.String(),
		Ops:  make([]string, 0, len(edge.Ops)),
	}
	for _, op := range edge.Ops {
		s, err := OpSummary(op)
		if err != nil {
			return yamlConversionDoc{}, err
		}
		conv.Ops = append(conv.Ops, s)
	}
	return conv, nil
}

// OpSummary is the one-line audit form of a conversion op, shared by the
// YAML documents and the chain printout.
func OpSummary(op ir.Op) (string, error) {
	switch op := op.(type) {
	case ir.CopyOp:
		return fmt.Sprintf("copy %s -> %s", op.From, op.To), nil
	case ir.DefaultOp:
		if op.Supplier == "" {
			return fmt.Sprintf("default %s (zero %s)", op.Name, op.Type), nil
		}
		return fmt.Sprintf("default %s (supplier %s)", op.Name, op.Supplier), nil
	case ir.HookOp:
		return fmt.Sprintf("hook %s -> %s via %s", op.From, op.To, op.Hook), nil
	case ir.ConvertOp:
		return fmt.Sprintf("convert %s -> %s via %s", op.From, op.To, op.Container), nil
	case ir.MapVariantOp:
		return fmt.Sprintf("map %s -> %s", op.From, op.To), nil
	case ir.FallbackVariantOp:
		return fmt.Sprintf("fallback %s -> %s", op.From, op.To), nil
	default:
		return "", fmt.Errorf("unknown op %T", op)
	}
}
