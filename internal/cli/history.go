package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/vershift/internal/catalog"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	CatalogPath string
	Container   string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation runs",
		Long: `List the runs recorded in a catalog database, newest first.

--container narrows the listing to one container's history.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.CatalogPath, "catalog", "", "catalog database path (required)")
	cmd.Flags().StringVar(&opts.Container, "container", "", "only this container")
	cmd.MarkFlagRequired("catalog")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Open would create an empty database; a missing catalog is an error here.
	if _, err := os.Stat(opts.CatalogPath); os.IsNotExist(err) {
		return outputCommandError(formatter, ErrCodeNotFound,
			fmt.Sprintf("catalog not found: %s", opts.CatalogPath))
	}

	cat, err := catalog.Open(opts.CatalogPath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeCatalogFailed, err.Error())
	}
	defer cat.Close()

	entries, err := cat.History(cmd.Context(), opts.Container)
	if err != nil {
		return outputCommandError(formatter, ErrCodeCatalogFailed, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return nil
	}

	// Entries arrive newest-first, grouped by run.
	lastRun := ""
	for _, e := range entries {
		if e.RunID != lastRun {
			if lastRun != "" {
				fmt.Fprintln(formatter.Writer)
			}
			fmt.Fprintf(formatter.Writer, "run %s  %s  %s\n",
				e.RunID, e.CreatedAt.Format(time.RFC3339), e.Source)
			lastRun = e.RunID
		}
		fmt.Fprintf(formatter.Writer, "  %s  %s\n", shortFp(e.Fingerprint), e.Container)
	}
	return nil
}
