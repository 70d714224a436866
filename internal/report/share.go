package report

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/roach88/ringaudit/internal/nodesync"
)

// Share is the portion of the ring whose effective outcome is Outcome.
type Share struct {
	Outcome nodesync.Outcome
	Tokens  uint64
	Records int
}

// Fraction returns the share of the full ring, in [0, 1].
func (s Share) Fraction() float64 {
	return float64(s.Tokens) / float64(math.MaxUint64)
}

// Percent renders the share as a percentage with two decimals.
func (s Share) Percent() string {
	return fmt.Sprintf("%.2f", s.Fraction()*100)
}

// RingShare totals the width of each outcome in a coverage set, ordered by
// outcome code. Adjacent records share a boundary token, so the widths of a
// complete coverage set add up to the full ring.
func RingShare(records []nodesync.Record) []Share {
	byOutcome := make(map[nodesync.Outcome]*Share)
	for _, r := range records {
		s, ok := byOutcome[r.Outcome]
		if !ok {
			s = &Share{Outcome: r.Outcome}
			byOutcome[r.Outcome] = s
		}
		s.Tokens += r.Range.Width()
		s.Records++
	}

	shares := make([]Share, 0, len(byOutcome))
	for _, s := range byOutcome {
		shares = append(shares, *s)
	}
	slices.SortFunc(shares, func(a, b Share) int { return cmp.Compare(a.Outcome, b.Outcome) })
	return shares
}
