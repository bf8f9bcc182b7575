package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vershift/internal/compiler"
	"github.com/roach88/vershift/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                        `json:"valid"`
	Containers []string                    `json:"containers,omitempty"`
	Errors     []compiler.ValidationError  `json:"errors,omitempty"`
	Warnings   []compiler.ReferenceWarning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <defs-dir>",
		Short: "Validate container definitions without generating code",
		Long: `Validate container definitions against the lifecycle rules.

Checks action ordering, version references, deprecated naming, fallback
declarations, and cross-container type references. Reports every error
found, not just the first. Reference cycles among containers are
reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, defsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, validationErrors, err := loadAndValidate(defsDir, formatter)
	if err != nil {
		return err
	}

	for _, entry := range loadResult.Batch.Entries {
		formatter.VerboseLog("Validating container: %s", entry.Container.Name)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	warnings := compiler.AnalyzeReferences(&loadResult.Batch)

	return outputValidateSuccess(formatter, &loadResult.Batch, warnings)
}

// loadAndValidate runs the load + validate pipeline shared by every
// definition-consuming command. The error return is command-level
// (directory missing, no files - exit code 2); the slice holds definition
// problems, every one the pipeline could find.
func loadAndValidate(defsDir string, formatter *OutputFormatter) (*LoadResult, []compiler.ValidationError, error) {
	loadResult, loadErrors := LoadDefinitions(defsDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return nil, nil, outputCommandError(formatter, loadErr.Code, loadErr.Message)
		}
		return nil, nil, outputCommandError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, defsDir)

	// Compile failures come first: those containers never made it into the
	// batch, so the lifecycle rules were never run against them.
	var errs []compiler.ValidationError
	for _, err := range loadErrors {
		errs = append(errs, asValidationError(err))
	}
	errs = append(errs, compiler.ValidateBatch(&loadResult.Batch)...)

	return loadResult, errs, nil
}

// asValidationError folds a loader error into the validation report.
func asValidationError(err error) compiler.ValidationError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		msg := loadErr.Message
		if loadErr.Pos.IsValid() {
			msg = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), loadErr.Message)
		}
		return compiler.ValidationError{Field: "load", Message: msg, Code: loadErr.Code}
	}
	return compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
}

// containerNames lists the batch's containers in declaration order.
func containerNames(b *ir.Batch) []string {
	names := make([]string, 0, len(b.Entries))
	for _, e := range b.Entries {
		names = append(names, e.Container.Name)
	}
	return names
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, b *ir.Batch, warnings []compiler.ReferenceWarning) error {
	names := containerNames(b)

	if formatter.Format == "json" {
		result := ValidationResult{Valid: true, Containers: names}
		if len(warnings) > 0 {
			result.Warnings = warnings
		}
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d container(s) valid\n", len(names))
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "warning: %s\n", w.Message)
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, verr := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", verr.Error())
	}
	fmt.Fprintln(formatter.Writer)

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// ValidateDefinitionsDir validates all definitions in a directory.
// This is a helper function for external callers.
func ValidateDefinitionsDir(defsDir string) ([]compiler.ValidationError, error) {
	loadResult, loadErrors := LoadDefinitions(defsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}

	var errs []compiler.ValidationError
	for _, err := range loadErrors {
		errs = append(errs, asValidationError(err))
	}
	errs = append(errs, compiler.ValidateBatch(&loadResult.Batch)...)

	return errs, nil
}
