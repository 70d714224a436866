package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/ringaudit/internal/audit"
	"github.com/roach88/ringaudit/internal/config"
	"github.com/roach88/ringaudit/internal/cql"
	"github.com/roach88/ringaudit/internal/fixture"
	"github.com/roach88/ringaudit/internal/store"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Database string
	Fixture  string
	List     bool
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot [host [port [datacenter]]]",
		Short: "Store nodesync_status rows for offline audits",
		Long: `Read the nodesync_status rows of every configured table and store them in
the database under a new snapshot ID. Audit the snapshot later with
"ringaudit audit --db FILE [--snapshot ID]".

The snapshot is written only if every table could be read.

Examples:
  ringaudit snapshot --db audit.db
  ringaudit snapshot --db audit.db 10.0.0.1 9042 DC2
  ringaudit snapshot --db audit.db --fixture rows.yaml
  ringaudit snapshot --db audit.db --list`,
		Args:          connectionArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Fixture, "fixture", "", "capture rows from a YAML fixture instead of the cluster")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list stored snapshots instead of taking one")

	return cmd
}

func runSnapshot(ctx context.Context, opts *SnapshotOptions, cmd *cobra.Command, args []string) error {
	if opts.Database == "" {
		return NewExitError(ExitCommandError, "--db is required")
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if opts.List {
		snaps, err := st.ListSnapshots(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list snapshots", err)
		}
		return out.Success(snaps, func(w io.Writer) error { return writeSnapshotTable(w, snaps) })
	}

	cfg, err := opts.loadConfig(args)
	if err != nil {
		return err
	}
	logger, err := opts.logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var (
		src   audit.Source
		label string
	)
	if opts.Fixture != "" {
		fx, err := fixture.Load(opts.Fixture)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load fixture", err)
		}
		src, label = fx, "fixture:"+opts.Fixture
	} else {
		live, err := cql.Dial(ctx, cfg.Connection, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to connect to cluster", err)
		}
		defer live.Close()
		src, label = live, "cluster:"+cfg.Connection.Address()+"/"+cfg.Connection.Datacenter
	}

	captures, err := captureTables(ctx, src, cfg.Tables(), cfg.Audit.Parallelism)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to capture nodesync_status", err)
	}

	snap, err := st.CreateSnapshot(ctx, label, captures)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to store snapshot", err)
	}
	logger.Info("snapshot stored", zap.String("snapshot", snap.ID), zap.Int("rows", snap.Rows))

	return out.Success(snap, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Snapshot %s: %d rows from %d tables\n", snap.ID, snap.Rows, snap.Tables)
		return err
	})
}

// captureTables reads every table concurrently. Captures keep the table
// order. The first failure cancels the rest.
func captureTables(ctx context.Context, src audit.Source, tables []config.Table, parallelism int) ([]store.TableCapture, error) {
	captures := make([]store.TableCapture, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallelism, 1))
	for i, t := range tables {
		g.Go(func() error {
			rows, err := src.Rows(gctx, t.Keyspace, t.Name)
			if err != nil {
				return fmt.Errorf("%s: %w", t, err)
			}
			captures[i] = store.TableCapture{Keyspace: t.Keyspace, Table: t.Name, Rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return captures, nil
}

func writeSnapshotTable(w io.Writer, snaps []store.Snapshot) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(w, "No snapshots found in database.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tTAKEN AT\tTABLES\tROWS\tSOURCE")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.ID, s.TakenAt.Format(time.RFC3339), s.Tables, s.Rows, s.Source)
	}
	return tw.Flush()
}
