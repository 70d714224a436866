// Package fixture reads nodesync_status rows from YAML files, so audits can
// run without a cluster.
//
// A fixture mirrors the columns of system_distributed.nodesync_status:
//
//	rows:
//	  - keyspace: domain_1300
//	    table: xml_doc_1300
//	    start_token: 6709070199063470667
//	    end_token: 6735847142466236680
//	    last_successful_validation:
//	      started_at: 2020-10-15T01:38:29.591Z
//	      outcome: 0
//	      missing_nodes: [10.0.0.3]
//	      was_incremental: true
package fixture

import (
	"bytes"
	"context"
	"fmt"
	"net/netip"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ringaudit/internal/nodesync"
)

// File is the YAML document layout.
type File struct {
	Rows []Row `yaml:"rows"`
}

// Row is one nodesync_status entry.
type Row struct {
	Keyspace                   string      `yaml:"keyspace"`
	Table                      string      `yaml:"table"`
	StartToken                 int64       `yaml:"start_token"`
	EndToken                   int64       `yaml:"end_token"`
	LastSuccessfulValidation   *Validation `yaml:"last_successful_validation,omitempty"`
	LastUnsuccessfulValidation *Validation `yaml:"last_unsuccessful_validation,omitempty"`
}

// Validation mirrors the nodesync_validation UDT.
type Validation struct {
	StartedAt      time.Time `yaml:"started_at"`
	Outcome        int8      `yaml:"outcome"`
	MissingNodes   []string  `yaml:"missing_nodes,omitempty"`
	WasIncremental bool      `yaml:"was_incremental,omitempty"`
}

// Source serves the rows of a fixture file.
type Source struct {
	rows []nodesync.Row
}

// Load reads and parses a fixture file.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	src, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// Parse decodes fixture YAML. Unknown fields are rejected.
func Parse(data []byte) (*Source, error) {
	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	rows := make([]nodesync.Row, 0, len(file.Rows))
	for i, r := range file.Rows {
		row, err := r.toRow()
		if err != nil {
			return nil, fmt.Errorf("rows[%d]: %w", i, err)
		}
		rows = append(rows, row)
	}
	return &Source{rows: rows}, nil
}

// Rows returns the fixture rows of one table, in file order.
func (s *Source) Rows(ctx context.Context, keyspace, table string) ([]nodesync.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []nodesync.Row
	for _, r := range s.rows {
		if r.Keyspace == keyspace && r.Table == table {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

// All returns every row in file order.
func (s *Source) All() []nodesync.Row {
	return append([]nodesync.Row(nil), s.rows...)
}

func (r Row) toRow() (nodesync.Row, error) {
	success, err := r.LastSuccessfulValidation.toAttempt()
	if err != nil {
		return nodesync.Row{}, fmt.Errorf("last_successful_validation: %w", err)
	}
	failure, err := r.LastUnsuccessfulValidation.toAttempt()
	if err != nil {
		return nodesync.Row{}, fmt.Errorf("last_unsuccessful_validation: %w", err)
	}
	return nodesync.Row{
		Keyspace:         r.Keyspace,
		Table:            r.Table,
		StartToken:       r.StartToken,
		EndToken:         r.EndToken,
		LastSuccessful:   success,
		LastUnsuccessful: failure,
	}, nil
}

func (v *Validation) toAttempt() (*nodesync.Attempt, error) {
	if v == nil {
		return nil, nil
	}
	nodes := make([]netip.Addr, 0, len(v.MissingNodes))
	for _, s := range v.MissingNodes {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("missing node: %w", err)
		}
		nodes = append(nodes, addr)
	}
	return &nodesync.Attempt{
		StartedAt:      v.StartedAt.UTC(),
		Outcome:        nodesync.Outcome(v.Outcome),
		MissingNodes:   nodesync.NodeSet(nodes),
		WasIncremental: v.WasIncremental,
	}, nil
}
