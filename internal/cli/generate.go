package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vershift/internal/catalog"
	"github.com/roach88/vershift/internal/evolve"
	"github.com/roach88/vershift/internal/render"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	OutDir      string // output directory
	Lang        string // "go" | "yaml" | "all"
	Package     string // package name for generated Go files
	CatalogPath string // optional catalog database
}

// ValidLangs defines the allowed --lang values.
var ValidLangs = []string{"go", "yaml", "all"}

// GenerateResult holds the generated artifact summary.
type GenerateResult struct {
	OutDir     string            `json:"out_dir"`
	Containers []ContainerResult `json:"containers"`
	Files      []string          `json:"files"`
	CatalogRun string            `json:"catalog_run,omitempty"`
}

// ContainerResult pairs a container with its descriptor fingerprint.
type ContainerResult struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <defs-dir>",
		Short: "Generate per-version types and conversions",
		Long: `Compile container definitions and write the generated artifacts.

Go output is one file per container version plus the converters and the
all-pairs dispatch surface; YAML output is one schema document per
container. When --catalog is set the run is recorded with every
container's descriptor fingerprint.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "output directory (required)")
	cmd.Flags().StringVar(&opts.Lang, "lang", "go", "output language (go|yaml|all)")
	cmd.Flags().StringVar(&opts.Package, "package", "schema", "package name for generated Go files")
	cmd.Flags().StringVar(&opts.CatalogPath, "catalog", "", "record the run in this catalog database")
	cmd.MarkFlagRequired("out")

	return cmd
}

func runGenerate(opts *GenerateOptions, defsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if !slices.Contains(ValidLangs, opts.Lang) {
		return outputCommandError(formatter, ErrCodeGeneric,
			fmt.Sprintf("invalid lang %q: must be one of %v", opts.Lang, ValidLangs))
	}

	loadResult, validationErrors, err := loadAndValidate(defsDir, formatter)
	if err != nil {
		return err
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	inputs, err := render.BuildInputs(&loadResult.Batch)
	if err != nil {
		return outputGenerateError(formatter, err)
	}

	var renderers []render.Renderer
	if opts.Lang == "go" || opts.Lang == "all" {
		renderers = append(renderers, &render.GoRenderer{Package: opts.Package})
	}
	if opts.Lang == "yaml" || opts.Lang == "all" {
		renderers = append(renderers, &render.YAMLRenderer{})
	}

	var files []render.File
	for _, r := range renderers {
		rendered, err := r.Render(inputs)
		if err != nil {
			return outputGenerateError(formatter, err)
		}
		files = append(files, rendered...)
	}

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("creating output directory: %v", err))
	}
	for _, f := range files {
		path := filepath.Join(opts.OutDir, f.Name)
		if err := os.WriteFile(path, f.Content, 0644); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing %s: %v", path, err))
		}
		formatter.VerboseLog("Wrote %s", path)
	}

	result := &GenerateResult{OutDir: opts.OutDir}
	for _, in := range inputs {
		result.Containers = append(result.Containers, ContainerResult{
			Name:        in.Descriptor.Container,
			Fingerprint: in.Fingerprint,
		})
	}
	for _, f := range files {
		result.Files = append(result.Files, f.Name)
	}

	if opts.CatalogPath != "" {
		runID, err := recordRun(cmd, opts.CatalogPath, defsDir, inputs)
		if err != nil {
			return outputCommandError(formatter, ErrCodeCatalogFailed, err.Error())
		}
		result.CatalogRun = runID
		formatter.VerboseLog("Recorded run %s in %s", runID, opts.CatalogPath)
	}

	return outputGenerateSuccess(formatter, result)
}

// recordRun opens the catalog and records one run over the rendered inputs.
// The stored descriptor document is the YAML schema document, regardless of
// the --lang selection.
func recordRun(cmd *cobra.Command, path, source string, inputs []render.Input) (string, error) {
	cat, err := catalog.Open(path)
	if err != nil {
		return "", err
	}
	defer cat.Close()

	yr := &render.YAMLRenderer{}
	files, err := yr.Render(inputs)
	if err != nil {
		return "", err
	}

	descs := make([]catalog.Descriptor, len(inputs))
	for i, in := range inputs {
		descs[i] = catalog.Descriptor{
			Container:   in.Descriptor.Container,
			Fingerprint: in.Fingerprint,
			Document:    string(files[i].Content),
		}
	}

	run := catalog.NewRun(source)
	if err := cat.RecordRun(cmd.Context(), run, descs); err != nil {
		return "", err
	}
	return run.ID, nil
}

// outputGenerateError reports a failed derivation: a member collision, an
// irreversible enum edge, or a missing hook. Exit code 1, like validation
// failures.
func outputGenerateError(formatter *OutputFormatter, err error) error {
	if ge, ok := evolve.AsGenerateError(err); ok {
		var scope []string
		if ge.Container != "" {
			scope = append(scope, ge.Container)
		}
		if ge.Version != "" {
			scope = append(scope, ge.Version)
		}
		if ge.Name != "" {
			scope = append(scope, ge.Name)
		}
		msg := ge.Message
		if len(scope) > 0 {
			msg = strings.Join(scope, " ") + ": " + msg
		}
		_ = formatter.Error(ge.Code, msg, nil)
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", ge.Code, msg))
	}

	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return NewExitError(ExitFailure, err.Error())
}

// outputGenerateSuccess outputs the generated artifact summary.
func outputGenerateSuccess(formatter *OutputFormatter, result *GenerateResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Generated %d file(s) for %d container(s) in %s\n\n",
		len(result.Files), len(result.Containers), result.OutDir)

	for _, c := range result.Containers {
		fmt.Fprintf(formatter.Writer, "  %s  %s\n", shortFp(c.Fingerprint), c.Name)
	}
	fmt.Fprintln(formatter.Writer)
	for _, f := range result.Files {
		fmt.Fprintf(formatter.Writer, "  %s\n", f)
	}

	if result.CatalogRun != "" {
		fmt.Fprintf(formatter.Writer, "\nRecorded run %s\n", result.CatalogRun)
	}
	return nil
}
