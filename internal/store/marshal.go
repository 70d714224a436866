package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/netip"
	"time"

	"github.com/roach88/ringaudit/internal/nodesync"
)

// storedAttempt is the JSON form of a validation attempt.
type storedAttempt struct {
	StartedAt      int64    `json:"started_at"`
	Outcome        int8     `json:"outcome"`
	MissingNodes   []string `json:"missing_nodes"`
	WasIncremental bool     `json:"was_incremental"`
}

// marshalAttempt converts an attempt to JSON TEXT. A nil attempt is NULL.
func marshalAttempt(a *nodesync.Attempt) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(storedAttempt{
		StartedAt:      a.StartedAt.UnixNano(),
		Outcome:        int8(a.Outcome),
		MissingNodes:   nodeStrings(a.MissingNodes),
		WasIncremental: a.WasIncremental,
	})
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal attempt: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalAttempt parses JSON TEXT back to an attempt.
func unmarshalAttempt(data sql.NullString) (*nodesync.Attempt, error) {
	if !data.Valid {
		return nil, nil
	}
	var stored storedAttempt
	if err := json.Unmarshal([]byte(data.String), &stored); err != nil {
		return nil, fmt.Errorf("unmarshal attempt: %w", err)
	}
	nodes, err := parseNodes(stored.MissingNodes)
	if err != nil {
		return nil, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return &nodesync.Attempt{
		StartedAt:      fromNanos(stored.StartedAt),
		Outcome:        nodesync.Outcome(stored.Outcome),
		MissingNodes:   nodes,
		WasIncremental: stored.WasIncremental,
	}, nil
}

// marshalNodes converts a node set to a JSON array TEXT.
func marshalNodes(nodes []netip.Addr) (string, error) {
	data, err := json.Marshal(nodeStrings(nodes))
	if err != nil {
		return "", fmt.Errorf("marshal missing nodes: %w", err)
	}
	return string(data), nil
}

// unmarshalNodes parses a JSON array TEXT to a node set.
func unmarshalNodes(data string) ([]netip.Addr, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var strs []string
	if err := json.Unmarshal([]byte(data), &strs); err != nil {
		return nil, fmt.Errorf("unmarshal missing nodes: %w", err)
	}
	return parseNodes(strs)
}

func nodeStrings(nodes []netip.Addr) []string {
	strs := make([]string, len(nodes))
	for i, n := range nodes {
		strs[i] = n.String()
	}
	return strs
}

func parseNodes(strs []string) ([]netip.Addr, error) {
	if len(strs) == 0 {
		return nil, nil
	}
	nodes := make([]netip.Addr, 0, len(strs))
	for _, s := range strs {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, addr)
	}
	return nodes, nil
}

func toNullNanos(t sql.NullTime) sql.NullInt64 {
	if !t.Valid {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Time.UnixNano(), Valid: true}
}

func fromNullNanos(n sql.NullInt64) sql.NullTime {
	if !n.Valid {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: fromNanos(n.Int64), Valid: true}
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
