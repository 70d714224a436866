package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ringaudit/internal/report"
	"github.com/roach88/ringaudit/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Summary  bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show RUN",
		Short: "Print a recorded audit run",
		Long: `Print the coverage stored for an audit run, in the same format as the audit
command.

Examples:
  ringaudit show --db audit.db 0192f5c4-7d1e-7a6b-9c1d-2f0e4a5b6c7d
  ringaudit show --db audit.db --summary --format json RUN`,
		Args:          commandArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "print the ring share of each outcome per table")

	return cmd
}

func runShow(ctx context.Context, opts *ShowOptions, cmd *cobra.Command, runID string) error {
	if opts.Database == "" {
		return NewExitError(ExitCommandError, "--db is required")
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	_, tables, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run %s not found", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	renderer := newRenderer(opts.Format, opts.Summary, cmd.OutOrStdout())
	for _, t := range tables {
		if err := renderer.Report(report.FromRunTable(t)); err != nil {
			return WrapExitError(ExitCommandError, "failed to render run", err)
		}
	}
	return nil
}
