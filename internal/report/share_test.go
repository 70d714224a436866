package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ringaudit/internal/nodesync"
	"github.com/roach88/ringaudit/internal/token"
)

func TestRingShare_CompleteCoverageSumsToRing(t *testing.T) {
	shares := RingShare(healthyResult().Records)

	var total uint64
	for _, s := range shares {
		total += s.Tokens
	}
	assert.Equal(t, uint64(math.MaxUint64), total)

	assert.Equal(t, []nodesync.Outcome{nodesync.InSync, nodesync.PartiallyInSync, nodesync.Uncompleted},
		[]nodesync.Outcome{shares[0].Outcome, shares[1].Outcome, shares[2].Outcome})
	assert.Equal(t, "73.00", shares[2].Percent())
}

func TestRingShare_FullRing(t *testing.T) {
	shares := RingShare([]nodesync.Record{nodesync.Unvalidated("ks", "tbl", token.Full)})
	assert.Len(t, shares, 1)
	assert.Equal(t, 1.0, shares[0].Fraction())
	assert.Equal(t, "100.00", shares[0].Percent())
}

func TestRingShare_GroupsByOutcome(t *testing.T) {
	records := []nodesync.Record{
		{Range: token.MustNew(0, 10), Outcome: nodesync.Failed},
		{Range: token.MustNew(10, 15), Outcome: nodesync.InSync},
		{Range: token.MustNew(15, 20), Outcome: nodesync.Failed},
	}
	shares := RingShare(records)
	assert.Equal(t, []Share{
		{Outcome: nodesync.InSync, Tokens: 5, Records: 1},
		{Outcome: nodesync.Failed, Tokens: 15, Records: 2},
	}, shares)
}

func TestRingShare_Empty(t *testing.T) {
	assert.Empty(t, RingShare(nil))
}
