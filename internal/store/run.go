package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/ringaudit/internal/nodesync"
	"github.com/roach88/ringaudit/internal/token"
)

// Run describes a recorded audit run.
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source"`
	Tables    int       `json:"tables"`
	Failed    int       `json:"failed"`
}

// RunTable is the stored outcome of auditing one table within a run.
// Exactly one of Records or ErrorCode is meaningful.
type RunTable struct {
	Position     int
	Keyspace     string
	Table        string
	Records      []nodesync.Record
	ErrorCode    string
	ErrorMessage string
}

// Failed reports whether the table was aborted.
func (t RunTable) Failed() bool { return t.ErrorCode != "" }

// CreateRun registers a new audit run and returns it.
func (s *Store) CreateRun(ctx context.Context, source string) (Run, error) {
	run := Run{
		ID:        s.ids.Generate(),
		StartedAt: s.now().UTC(),
		Source:    source,
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_runs (id, started_at, source) VALUES (?, ?, ?)
	`, run.ID, run.StartedAt.UnixNano(), run.Source); err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// WriteRunTable stores one table's coverage (or failure) under a run.
// The run must exist (foreign key constraint); positions are unique per run.
func (s *Store) WriteRunTable(ctx context.Context, runID string, t RunTable) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_tables (run_id, position, keyspace_name, table_name, error_code, error_message)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, t.Position, t.Keyspace, t.Table, nullString(t.ErrorCode), nullString(t.ErrorMessage)); err != nil {
			return err
		}

		if len(t.Records) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO coverage
			(run_id, position, seq, lower_token, upper_token, outcome, last_validation, last_success, missing_nodes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, rec := range t.Records {
			nodes, err := marshalNodes(rec.MissingNodes)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				runID, t.Position, i,
				rec.Range.Lower, rec.Range.Upper,
				int(rec.Outcome),
				rec.LastValidation.UnixNano(),
				toNullNanos(rec.LastSuccess),
				nodes,
			); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write run table %s.%s: %w", t.Keyspace, t.Table, err)
	}
	return nil
}

const runColumns = `
	SELECT r.id, r.started_at, r.source,
		(SELECT COUNT(*) FROM run_tables t WHERE t.run_id = r.id),
		(SELECT COUNT(*) FROM run_tables t WHERE t.run_id = r.id AND t.error_code IS NOT NULL)
	FROM audit_runs r
`

// ListRuns returns all recorded runs, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, runColumns+`
		ORDER BY r.started_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns a run and its tables in audit order.
// Returns ErrNotFound if the run does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, []RunTable, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, runColumns+` WHERE r.id = ?`, id))
	if err != nil {
		return Run{}, nil, fmt.Errorf("read run %s: %w", id, err)
	}

	tables, err := s.readRunTables(ctx, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("read run %s: %w", id, err)
	}
	for i := range tables {
		if tables[i].Failed() {
			continue
		}
		recs, err := s.readCoverage(ctx, id, tables[i])
		if err != nil {
			return Run{}, nil, fmt.Errorf("read run %s: %w", id, err)
		}
		tables[i].Records = recs
	}
	return run, tables, nil
}

func (s *Store) readRunTables(ctx context.Context, runID string) ([]RunTable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, keyspace_name, table_name, error_code, error_message
		FROM run_tables
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run tables: %w", err)
	}
	defer rows.Close()

	tables := []RunTable{}
	for rows.Next() {
		var (
			t         RunTable
			code, msg sql.NullString
		)
		if err := rows.Scan(&t.Position, &t.Keyspace, &t.Table, &code, &msg); err != nil {
			return nil, fmt.Errorf("scan run table: %w", err)
		}
		t.ErrorCode = code.String
		t.ErrorMessage = msg.String
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run tables: %w", err)
	}
	return tables, nil
}

func (s *Store) readCoverage(ctx context.Context, runID string, t RunTable) ([]nodesync.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lower_token, upper_token, outcome, last_validation, last_success, missing_nodes
		FROM coverage
		WHERE run_id = ? AND position = ?
		ORDER BY seq ASC
	`, runID, t.Position)
	if err != nil {
		return nil, fmt.Errorf("query coverage: %w", err)
	}
	defer rows.Close()

	recs := []nodesync.Record{}
	for rows.Next() {
		var (
			lower, upper   int64
			outcome        int
			lastValidation int64
			lastSuccess    sql.NullInt64
			nodesJSON      string
		)
		if err := rows.Scan(&lower, &upper, &outcome, &lastValidation, &lastSuccess, &nodesJSON); err != nil {
			return nil, fmt.Errorf("scan coverage: %w", err)
		}
		r, err := token.New(lower, upper)
		if err != nil {
			return nil, fmt.Errorf("scan coverage: %w", err)
		}
		nodes, err := unmarshalNodes(nodesJSON)
		if err != nil {
			return nil, err
		}
		recs = append(recs, nodesync.Record{
			Keyspace:       t.Keyspace,
			Table:          t.Table,
			Range:          r,
			LastValidation: fromNanos(lastValidation),
			Outcome:        nodesync.Outcome(outcome),
			LastSuccess:    fromNullNanos(lastSuccess),
			MissingNodes:   nodes,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coverage: %w", err)
	}
	return recs, nil
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		startedAt int64
	)
	if err := sc.Scan(&run.ID, &startedAt, &run.Source, &run.Tables, &run.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = fromNanos(startedAt)
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
