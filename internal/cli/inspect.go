package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/roach88/vershift/internal/ir"
	"github.com/roach88/vershift/internal/render"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Container string
	Version   string
	Dump      bool
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <defs-dir>",
		Short: "Print the assembled per-version definitions",
		Long: `Print every declared version's assembled shape for each container.

Filters narrow the output to one container or one version. --dump emits
a deep value dump of the descriptors for debugging definition assembly.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Container, "container", "", "only this container")
	cmd.Flags().StringVar(&opts.Version, "version", "", "only this version")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "deep value dump of the descriptors")

	return cmd
}

func runInspect(opts *InspectOptions, defsDir string, cmd *cobra.Command) error {
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

	entries := loadResult.Batch.Entries
	if opts.Container != "" {
		entry, ok := loadResult.Batch.Lookup(opts.Container)
		if !ok {
			return outputCommandError(formatter, ErrCodeGeneric,
				fmt.Sprintf("container %q not found (have: %s)", opts.Container, strings.Join(containerNames(&loadResult.Batch), ", ")))
		}
		entries = []ir.BatchEntry{entry}
	}

	inputs := make([]render.Input, 0, len(entries))
	for _, entry := range entries {
		in, err := render.BuildInput(entry)
		if err != nil {
			return outputGenerateError(formatter, err)
		}
		inputs = append(inputs, in)
	}

	if opts.Version != "" {
		defs := make([]ir.Definition, 0, len(inputs))
		for _, in := range inputs {
			def, ok := in.Descriptor.At(opts.Version)
			if !ok {
				return outputCommandError(formatter, ErrCodeGeneric,
					fmt.Sprintf("version %q is not declared for container %q", opts.Version, in.Descriptor.Container))
			}
			defs = append(defs, def)
		}
		if opts.Dump {
			spew.Fdump(formatter.Writer, defs)
			return nil
		}
		if formatter.Format == "json" {
			return formatter.Success(defs)
		}
		for i, def := range defs {
			if i > 0 {
				fmt.Fprintln(formatter.Writer)
			}
			fmt.Fprintf(formatter.Writer, "%s (%s)\n", def.Container, def.Kind)
			printDefinition(formatter.Writer, def)
		}
		return nil
	}

	if opts.Dump {
		descs := make([]ir.CombinedDescriptor, 0, len(inputs))
		for _, in := range inputs {
			descs = append(descs, in.Descriptor)
		}
		spew.Fdump(formatter.Writer, descs)
		return nil
	}

	if formatter.Format == "json" {
		descs := make([]ir.CombinedDescriptor, 0, len(inputs))
		for _, in := range inputs {
			descs = append(descs, in.Descriptor)
		}
		return formatter.Success(descs)
	}

	for i, in := range inputs {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		printDescriptor(formatter.Writer, in)
	}
	return nil
}

// printDescriptor prints the all-versions view of one container.
func printDescriptor(w io.Writer, in render.Input) {
	desc := in.Descriptor
	fmt.Fprintf(w, "%s (%s)  fingerprint %s\n", desc.Container, desc.Kind, shortFp(in.Fingerprint))
	if desc.Doc != "" {
		fmt.Fprintf(w, "%s\n", desc.Doc)
	}
	for _, def := range desc.Versions {
		fmt.Fprintln(w)
		printDefinition(w, def)
	}
}

// printDefinition prints the members of one assembled version.
func printDefinition(w io.Writer, def ir.Definition) {
	header := def.Version.Version.String() + ":"
	if def.Version.Deprecated {
		header += " (deprecated)"
	}
	fmt.Fprintf(w, "  %s\n", header)

	width := 0
	for _, m := range def.Members {
		if len(m.Name) > width {
			width = len(m.Name)
		}
	}
	for _, m := range def.Members {
		line := strings.TrimRight(fmt.Sprintf("    %-*s  %s", width, m.Name, m.Type.String()), " ")
		if m.Deprecated {
			if m.DeprecationNote != "" {
				line += fmt.Sprintf("  (deprecated: %s)", m.DeprecationNote)
			} else {
				line += "  (deprecated)"
			}
		}
		fmt.Fprintln(w, line)
	}
}
