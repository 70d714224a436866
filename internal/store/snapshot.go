package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/ringaudit/internal/nodesync"
)

// Snapshot describes a stored capture of nodesync_status rows.
type Snapshot struct {
	ID      string    `json:"id"`
	TakenAt time.Time `json:"taken_at"`
	Source  string    `json:"source"`
	Tables  int       `json:"tables"`
	Rows    int       `json:"rows"`
}

// TableCapture holds the rows read for one table. A table that returned no
// rows is still part of the snapshot.
type TableCapture struct {
	Keyspace string
	Table    string
	Rows     []nodesync.Row
}

// CreateSnapshot stores the captured tables under a new snapshot ID in a
// single transaction. Rows keep the order they are given in.
func (s *Store) CreateSnapshot(ctx context.Context, source string, captures []TableCapture) (Snapshot, error) {
	snap := Snapshot{
		ID:      s.ids.Generate(),
		TakenAt: s.now().UTC(),
		Source:  source,
		Tables:  len(captures),
	}
	for _, c := range captures {
		snap.Rows += len(c.Rows)
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (id, taken_at, source) VALUES (?, ?, ?)
		`, snap.ID, snap.TakenAt.UnixNano(), snap.Source); err != nil {
			return err
		}

		tableStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO snapshot_tables (snapshot_id, keyspace_name, table_name) VALUES (?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer tableStmt.Close()

		rowStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO snapshot_rows
			(snapshot_id, seq, keyspace_name, table_name, start_token, end_token, last_successful, last_unsuccessful)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer rowStmt.Close()

		seq := 0
		for _, c := range captures {
			if _, err := tableStmt.ExecContext(ctx, snap.ID, c.Keyspace, c.Table); err != nil {
				return fmt.Errorf("table %s.%s: %w", c.Keyspace, c.Table, err)
			}
			for _, row := range c.Rows {
				success, err := marshalAttempt(row.LastSuccessful)
				if err != nil {
					return err
				}
				failure, err := marshalAttempt(row.LastUnsuccessful)
				if err != nil {
					return err
				}
				if _, err := rowStmt.ExecContext(ctx,
					snap.ID, seq, c.Keyspace, c.Table, row.StartToken, row.EndToken, success, failure,
				); err != nil {
					return fmt.Errorf("row %d: %w", seq, err)
				}
				seq++
			}
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}
	return snap, nil
}

const snapshotColumns = `
	SELECT s.id, s.taken_at, s.source,
		(SELECT COUNT(*) FROM snapshot_tables t WHERE t.snapshot_id = s.id),
		(SELECT COUNT(*) FROM snapshot_rows r WHERE r.snapshot_id = s.id)
	FROM snapshots s
`

// GetSnapshot returns the snapshot with the given ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) GetSnapshot(ctx context.Context, id string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, snapshotColumns+` WHERE s.id = ?`, id)
	snap, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return snap, nil
}

// LatestSnapshot returns the most recently taken snapshot.
// Returns ErrNotFound if the store holds none.
func (s *Store) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, snapshotColumns+`
		ORDER BY s.taken_at DESC, s.id COLLATE BINARY DESC
		LIMIT 1
	`)
	snap, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns all snapshots, oldest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, snapshotColumns+`
		ORDER BY s.taken_at ASC, s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// SnapshotRows returns the rows stored for one table, in capture order.
// A captured table with no rows yields an empty slice. A table the snapshot
// never read yields ErrNotCaptured.
func (s *Store) SnapshotRows(ctx context.Context, snapshotID, keyspace, table string) ([]nodesync.Row, error) {
	var captured bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM snapshot_tables
			WHERE snapshot_id = ? AND keyspace_name = ? AND table_name = ?
		)
	`, snapshotID, keyspace, table).Scan(&captured); err != nil {
		return nil, fmt.Errorf("query snapshot tables: %w", err)
	}
	if !captured {
		return nil, fmt.Errorf("snapshot %s: %s.%s: %w", snapshotID, keyspace, table, ErrNotCaptured)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT keyspace_name, table_name, start_token, end_token, last_successful, last_unsuccessful
		FROM snapshot_rows
		WHERE snapshot_id = ? AND keyspace_name = ? AND table_name = ?
		ORDER BY seq ASC
	`, snapshotID, keyspace, table)
	if err != nil {
		return nil, fmt.Errorf("query snapshot rows: %w", err)
	}
	defer rows.Close()

	out := []nodesync.Row{}
	for rows.Next() {
		var (
			row              nodesync.Row
			success, failure sql.NullString
		)
		if err := rows.Scan(&row.Keyspace, &row.Table, &row.StartToken, &row.EndToken, &success, &failure); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		if row.LastSuccessful, err = unmarshalAttempt(success); err != nil {
			return nil, err
		}
		if row.LastUnsuccessful, err = unmarshalAttempt(failure); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return out, nil
}

// SnapshotSource replays a stored snapshot as a row source.
type SnapshotSource struct {
	store *Store
	id    string
}

// SnapshotSource returns a row source reading from the given snapshot.
func (s *Store) SnapshotSource(id string) *SnapshotSource {
	return &SnapshotSource{store: s, id: id}
}

// ID returns the snapshot being replayed.
func (src *SnapshotSource) ID() string { return src.id }

// Rows implements the audit row source contract.
func (src *SnapshotSource) Rows(ctx context.Context, keyspace, table string) ([]nodesync.Row, error) {
	return src.store.SnapshotRows(ctx, src.id, keyspace, table)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(sc scanner) (Snapshot, error) {
	var (
		snap    Snapshot
		takenAt int64
	)
	if err := sc.Scan(&snap.ID, &takenAt, &snap.Source, &snap.Tables, &snap.Rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	snap.TakenAt = fromNanos(takenAt)
	return snap, nil
}
