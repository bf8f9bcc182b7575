package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vershift/internal/evolve"
	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/render"
	"github.com/roach88/vershift/internal/version"
)

// ChainOptions holds flags for the chain command.
type ChainOptions struct {
	*RootOptions
	Container string
	From      string
	To        string
}

// ChainResult holds one resolved conversion chain.
type ChainResult struct {
	Container string      `json:"container"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	Steps     []ChainStep `json:"steps"`
}

// ChainStep is one adjacent edge of a chain with its ops.
type ChainStep struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Direction string   `json:"direction"`
	Ops       []string `json:"ops"`
}

// NewChainCommand creates the chain command.
func NewChainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chain <defs-dir>",
		Short: "Print the conversion chain between two versions",
		Long: `Resolve the conversion chain between two declared versions of a
container and print each adjacent edge with its ops. Converting a
version to itself is the identity and has no steps.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Container, "container", "", "container to chain (required)")
	cmd.Flags().StringVar(&opts.From, "from", "", "source version (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "target version (required)")
	cmd.MarkFlagRequired("container")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

func runChain(opts *ChainOptions, defsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loadResult, validationErrors, err := loadAndValidate(defsDir, formatter)
	if err != nil {
		return err
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	entry, ok := loadResult.Batch.Lookup(opts.Container)
	if !ok {
		return outputCommandError(formatter, ErrCodeGeneric,
			fmt.Sprintf("container %q not found", opts.Container))
	}

	from, ok := entry.Registry.Resolve(opts.From)
	if !ok {
		return outputCommandError(formatter, ErrCodeGeneric,
			fmt.Sprintf("version %q is not declared for container %q", opts.From, opts.Container))
	}
	to, ok := entry.Registry.Resolve(opts.To)
	if !ok {
		return outputCommandError(formatter, ErrCodeGeneric,
			fmt.Sprintf("version %q is not declared for container %q", opts.To, opts.Container))
	}

	in, err := render.BuildInput(entry)
	if err != nil {
		return outputGenerateError(formatter, err)
	}

	steps, err := evolve.ChainBetween(entry.Registry, from.Version, to.Version)
	if err != nil {
		return outputGenerateError(formatter, err)
	}

	result := &ChainResult{
		Container: opts.Container,
		From:      from.Version.String(),
		To:        to.Version.String(),
		Steps:     []ChainStep{},
	}

	current := from.Version
	for _, next := range steps {
		edge, ok := edgeBetween(in.Edges, current, next)
		if !ok {
			return outputCommandError(formatter, ErrCodeGeneric,
				fmt.Sprintf("no edge from %s to %s", current, next))
		}
		step := ChainStep{
			From:      current.String(),
			To:        next.String(),
			Direction: edge.Direction.String(),
		}
		for _, op := range edge.Ops {
			s, err := render.OpSummary(op)
			if err != nil {
				return outputCommandError(formatter, ErrCodeGeneric, err.Error())
			}
			step.Ops = append(step.Ops, s)
		}
		result.Steps = append(result.Steps, step)
		current = next
	}

	return outputChainResult(formatter, result)
}

// edgeBetween finds the adjacent edge connecting two versions.
func edgeBetween(edges []ir.Edge, from, to version.Version) (ir.Edge, bool) {
	for _, e := range edges {
		if e.From.Compare(from) == 0 && e.To.Compare(to) == 0 {
			return e, true
		}
	}
	return ir.Edge{}, false
}

// outputChainResult outputs one resolved chain.
func outputChainResult(formatter *OutputFormatter, result *ChainResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if len(result.Steps) == 0 {
		fmt.Fprintf(formatter.Writer, "%s %s -> %s (identity)\n", result.Container, result.From, result.To)
		return nil
	}

	fmt.Fprintf(formatter.Writer, "%s %s -> %s (%d step(s))\n", result.Container, result.From, result.To, len(result.Steps))
	for _, step := range result.Steps {
		fmt.Fprintf(formatter.Writer, "\n  %s -> %s (%s)\n", step.From, step.To, step.Direction)
		for _, op := range step.Ops {
			fmt.Fprintf(formatter.Writer, "    %s\n", op)
		}
	}
	return nil
}
