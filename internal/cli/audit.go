package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/ringaudit/internal/audit"
	"github.com/roach88/ringaudit/internal/config"
	"github.com/roach88/ringaudit/internal/cql"
	"github.com/roach88/ringaudit/internal/fixture"
	"github.com/roach88/ringaudit/internal/report"
	"github.com/roach88/ringaudit/internal/store"
)

// AuditOptions holds flags for the audit command.
type AuditOptions struct {
	*RootOptions
	Database    string
	Snapshot    string
	Fixture     string
	Record      bool
	Summary     bool
	MetricsFile string
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit [host [port [datacenter]]]",
		Short: "Reconcile NodeSync status into ring coverage",
		Long: `Fetch the nodesync_status rows of every configured table and print the
reconciled coverage of the token ring, one line per range.

Rows come from the cluster by default (localhost 9042 DC1). Use --fixture to
read a YAML fixture, or --db to replay a stored snapshot (the latest one
unless --snapshot is given). With --record the coverage of every table is
stored in --db as a new audit run.

Exit codes:
  0 - Every table was audited
  1 - At least one table could not be audited
  2 - Command error (bad arguments, unreadable config, unreachable database, etc.)

Examples:
  ringaudit audit
  ringaudit audit 10.0.0.1 9042 DC2
  ringaudit audit --fixture rows.yaml --summary
  ringaudit audit --db audit.db --snapshot 0192f5c4-...
  ringaudit audit --db audit.db --record --metrics-file /var/lib/node_exporter/ringaudit.prom`,
		Args:          connectionArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database holding snapshots and runs")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "audit a stored snapshot (requires --db; default latest)")
	cmd.Flags().StringVar(&opts.Fixture, "fixture", "", "audit rows from a YAML fixture")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "store the coverage as a new audit run (requires --db)")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "print the ring share of each outcome per table")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")

	return cmd
}

func runAudit(ctx context.Context, opts *AuditOptions, cmd *cobra.Command, args []string) error {
	if opts.Fixture != "" && (opts.Snapshot != "" || (opts.Database != "" && !opts.Record)) {
		return NewExitError(ExitCommandError, "--fixture cannot be combined with a snapshot source")
	}
	if opts.Snapshot != "" && opts.Database == "" {
		return NewExitError(ExitCommandError, "--snapshot requires --db")
	}
	if opts.Record && opts.Database == "" {
		return NewExitError(ExitCommandError, "--record requires --db")
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

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
	}

	source, label, closeSource, err := openSource(ctx, opts, cfg, st, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	reporters := report.Multi{newRenderer(opts.Format, opts.Summary, cmd.OutOrStdout())}

	var metrics *report.Metrics
	if opts.MetricsFile != "" {
		metrics = report.NewMetrics()
		reporters = append(reporters, metrics)
	}

	if opts.Record {
		run, err := st.CreateRun(ctx, label)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create audit run", err)
		}
		logger.Info("recording audit run", zap.String("run", run.ID))
		reporters = append(reporters, report.NewRecorder(ctx, st, run.ID))
	}

	tables := cfg.Tables()
	logger.Info("auditing", zap.String("source", label), zap.Int("tables", len(tables)))

	auditor := audit.New(source,
		audit.WithLogger(logger),
		audit.WithParallelism(cfg.Audit.Parallelism),
	)
	summary, err := auditor.Run(ctx, tables, reporters)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to report results", err)
	}

	if metrics != nil {
		if err := metrics.WriteFile(opts.MetricsFile); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d tables could not be audited", summary.Failed, summary.Tables))
	}
	return nil
}

// openSource picks the row source from the flags: fixture, stored snapshot,
// or the live cluster. label describes it for logs and recorded runs.
func openSource(ctx context.Context, opts *AuditOptions, cfg *config.Config, st *store.Store, logger *zap.Logger) (audit.Source, string, func(), error) {
	noop := func() {}

	switch {
	case opts.Fixture != "":
		fx, err := fixture.Load(opts.Fixture)
		if err != nil {
			return nil, "", nil, WrapExitError(ExitCommandError, "failed to load fixture", err)
		}
		return fx, "fixture:" + opts.Fixture, noop, nil

	case st != nil && (opts.Snapshot != "" || !opts.Record):
		snap, err := resolveSnapshot(ctx, st, opts.Snapshot)
		if err != nil {
			return nil, "", nil, err
		}
		logger.Info("replaying snapshot",
			zap.String("snapshot", snap.ID),
			zap.Time("taken_at", snap.TakenAt),
			zap.Int("tables", snap.Tables),
			zap.Int("rows", snap.Rows),
		)
		return st.SnapshotSource(snap.ID), "snapshot:" + snap.ID, noop, nil

	default:
		live, err := cql.Dial(ctx, cfg.Connection, logger)
		if err != nil {
			return nil, "", nil, WrapExitError(ExitCommandError, "failed to connect to cluster", err)
		}
		return live, "cluster:" + cfg.Connection.Address() + "/" + cfg.Connection.Datacenter, live.Close, nil
	}
}

func resolveSnapshot(ctx context.Context, st *store.Store, id string) (store.Snapshot, error) {
	var (
		snap store.Snapshot
		err  error
	)
	if id == "" {
		snap, err = st.LatestSnapshot(ctx)
	} else {
		snap, err = st.GetSnapshot(ctx, id)
	}
	if errors.Is(err, store.ErrNotFound) {
		if id == "" {
			return store.Snapshot{}, NewExitError(ExitCommandError, "no snapshot found in database")
		}
		return store.Snapshot{}, NewExitError(ExitCommandError, fmt.Sprintf("snapshot %s not found", id))
	}
	if err != nil {
		return store.Snapshot{}, WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}
	return snap, nil
}

// newRenderer returns the stdout reporter for the output format.
func newRenderer(format string, summary bool, w io.Writer) audit.Reporter {
	if format == "json" {
		return &report.JSON{W: w, Summary: summary}
	}
	return &report.Text{W: w, Summary: summary}
}
