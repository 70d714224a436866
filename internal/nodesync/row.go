package nodesync

import (
	"net/netip"
	"slices"
	"time"
)

// Attempt is one validation attempt as stored in the nodesync_validation UDT.
type Attempt struct {
	StartedAt      time.Time
	Outcome        Outcome
	MissingNodes   []netip.Addr
	WasIncremental bool
}

// Row is a raw nodesync_status entry. A nil attempt means the column was null.
type Row struct {
	Keyspace         string
	Table            string
	StartToken       int64
	EndToken         int64
	LastSuccessful   *Attempt
	LastUnsuccessful *Attempt
}

// Wraps reports whether the row's range crosses the end of the ring.
func (r Row) Wraps() bool {
	return r.StartToken > r.EndToken
}

// NodeSet returns addrs sorted and without duplicates. IPv4-mapped IPv6
// addresses are unmapped first so the same node compares equal.
func NodeSet(addrs []netip.Addr) []netip.Addr {
	if len(addrs) == 0 {
		return nil
	}
	set := make([]netip.Addr, 0, len(addrs))
	for _, a := range addrs {
		if a.IsValid() {
			set = append(set, a.Unmap())
		}
	}
	slices.SortFunc(set, netip.Addr.Compare)
	return slices.Compact(set)
}
