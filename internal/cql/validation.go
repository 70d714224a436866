package cql

import (
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/gocql/gocql"

	"github.com/roach88/ringaudit/internal/nodesync"
)

// validation is the nodesync_validation UDT:
//
//	started_at timestamp, outcome tinyint, missing_nodes set<inet>, was_incremental boolean
//
// A null column never reaches UnmarshalUDT, leaving present unset.
type validation struct {
	present        bool
	startedAt      time.Time
	outcome        int8
	missingNodes   []net.IP
	wasIncremental bool
}

// UnmarshalUDT implements gocql.UDTUnmarshaler.
func (v *validation) UnmarshalUDT(name string, info gocql.TypeInfo, data []byte) error {
	v.present = true

	var err error
	switch name {
	case "started_at":
		err = gocql.Unmarshal(info, data, &v.startedAt)
	case "outcome":
		err = gocql.Unmarshal(info, data, &v.outcome)
	case "missing_nodes":
		err = gocql.Unmarshal(info, data, &v.missingNodes)
	case "was_incremental":
		err = gocql.Unmarshal(info, data, &v.wasIncremental)
	default:
		// unknown fields from newer server versions are ignored
	}
	if err != nil {
		return fmt.Errorf("nodesync_validation.%s: %w", name, err)
	}
	return nil
}

func (v validation) attempt() (*nodesync.Attempt, error) {
	if !v.present {
		return nil, nil
	}
	nodes := make([]netip.Addr, 0, len(v.missingNodes))
	for _, ip := range v.missingNodes {
		addr, ok := netip.AddrFromSlice(ip)
		if !ok {
			return nil, fmt.Errorf("invalid missing node address %v", ip)
		}
		nodes = append(nodes, addr)
	}
	return &nodesync.Attempt{
		StartedAt:      v.startedAt.UTC(),
		Outcome:        nodesync.Outcome(v.outcome),
		MissingNodes:   nodesync.NodeSet(nodes),
		WasIncremental: v.wasIncremental,
	}, nil
}
