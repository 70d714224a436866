package cql

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"github.com/roach88/ringaudit/internal/nodesync"
)

const statusQuery = `SELECT keyspace_name, table_name, start_token, end_token,
	last_successful_validation, last_unsuccessful_validation
	FROM system_distributed.nodesync_status
	WHERE keyspace_name = ? AND table_name = ?
	ALLOW FILTERING`

// Source fetches nodesync_status rows over a gocql session.
type Source struct {
	session *gocql.Session
	logger  *zap.Logger
}

// Rows returns every nodesync_status row of one table.
func (s *Source) Rows(ctx context.Context, keyspace, table string) ([]nodesync.Row, error) {
	scanner := s.session.Query(statusQuery, keyspace, table).WithContext(ctx).Iter().Scanner()

	var rows []nodesync.Row
	for scanner.Next() {
		var (
			raw              rawRow
			success, failure validation
		)
		if err := scanner.Scan(&raw.keyspace, &raw.table, &raw.start, &raw.end, &success, &failure); err != nil {
			return nil, fmt.Errorf("scan nodesync_status %s.%s: %w", keyspace, table, err)
		}
		raw.success, raw.failure = success, failure
		row, err := raw.toRow()
		if err != nil {
			return nil, fmt.Errorf("nodesync_status %s.%s: %w", keyspace, table, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("query nodesync_status %s.%s: %w", keyspace, table, err)
	}

	s.logger.Debug("fetched nodesync_status",
		zap.String("keyspace", keyspace),
		zap.String("table", table),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

// Close releases the session.
func (s *Source) Close() {
	s.session.Close()
}

type rawRow struct {
	keyspace, table  string
	start, end       int64
	success, failure validation
}

func (r rawRow) toRow() (nodesync.Row, error) {
	success, err := r.success.attempt()
	if err != nil {
		return nodesync.Row{}, fmt.Errorf("last_successful_validation: %w", err)
	}
	failure, err := r.failure.attempt()
	if err != nil {
		return nodesync.Row{}, fmt.Errorf("last_unsuccessful_validation: %w", err)
	}
	return nodesync.Row{
		Keyspace:         r.keyspace,
		Table:            r.table,
		StartToken:       r.start,
		EndToken:         r.end,
		LastSuccessful:   success,
		LastUnsuccessful: failure,
	}, nil
}
