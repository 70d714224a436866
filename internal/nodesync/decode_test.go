package nodesync

import (
	"math"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringaudit/internal/token"
)

var (
	t0 = time.Date(2020, 10, 9, 14, 58, 52, 753_000_000, time.UTC)
	t1 = time.Date(2020, 10, 15, 5, 50, 46, 362_000_000, time.UTC)
)

func TestDecode_SuccessMoreRecent(t *testing.T) {
	row := Row{
		Keyspace:         "system_distributed",
		Table:            "nodesync_status",
		StartToken:       -1368668084254826108,
		EndToken:         -1357170539642295314,
		LastSuccessful:   &Attempt{StartedAt: t1, Outcome: InSync},
		LastUnsuccessful: &Attempt{StartedAt: t0, Outcome: Uncompleted},
	}

	records, err := Decode(row)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, token.MustNew(-1368668084254826108, -1357170539642295314), r.Range)
	assert.Equal(t, InSync, r.Outcome)
	assert.Equal(t, t1, r.LastValidation)
	assert.True(t, r.LastSuccess.Valid)
	assert.Equal(t, t1, r.LastSuccess.Time)
}

func TestDecode_FailureMoreRecent(t *testing.T) {
	missing := []netip.Addr{netip.MustParseAddr("10.0.0.3"), netip.MustParseAddr("10.0.0.1")}
	row := Row{
		Keyspace:         "ks",
		Table:            "tbl",
		StartToken:       0,
		EndToken:         100,
		LastSuccessful:   &Attempt{StartedAt: t0, Outcome: InSync},
		LastUnsuccessful: &Attempt{StartedAt: t1, Outcome: PartiallyRepaired, MissingNodes: missing},
	}

	records, err := Decode(row)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, PartiallyRepaired, r.Outcome)
	assert.Equal(t, t1, r.LastValidation)
	assert.Equal(t, t0, r.LastSuccess.Time, "last success still comes from the successful attempt")
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("10.0.0.3")}, r.MissingNodes)
}

func TestDecode_EqualTimesPreferFailure(t *testing.T) {
	row := Row{
		Keyspace:         "ks",
		Table:            "tbl",
		EndToken:         1,
		LastSuccessful:   &Attempt{StartedAt: t0, Outcome: InSync},
		LastUnsuccessful: &Attempt{StartedAt: t0, Outcome: Failed},
	}

	records, err := Decode(row)
	require.NoError(t, err)
	assert.Equal(t, Failed, records[0].Outcome)
}

func TestDecode_OnlyFailure(t *testing.T) {
	row := Row{
		Keyspace:         "ks",
		Table:            "tbl",
		StartToken:       1,
		EndToken:         2,
		LastUnsuccessful: &Attempt{StartedAt: t0, Outcome: Failed},
	}

	records, err := Decode(row)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Failed, records[0].Outcome)
	assert.False(t, records[0].LastSuccess.Valid)
}

func TestDecode_Wraparound(t *testing.T) {
	row := Row{
		Keyspace:       "ks",
		Table:          "tbl",
		StartToken:     10,
		EndToken:       -10,
		LastSuccessful: &Attempt{StartedAt: t1, Outcome: Repaired, MissingNodes: []netip.Addr{netip.MustParseAddr("10.0.0.9")}},
	}
	require.True(t, row.Wraps())

	records, err := Decode(row)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, token.MustNew(10, math.MaxInt64), records[0].Range)
	assert.Equal(t, token.MustNew(math.MinInt64, -10), records[1].Range)

	for _, r := range records {
		assert.Equal(t, Repaired, r.Outcome)
		assert.Equal(t, t1, r.LastValidation)
		assert.Equal(t, t1, r.LastSuccess.Time)
		assert.Equal(t, []netip.Addr{netip.MustParseAddr("10.0.0.9")}, r.MissingNodes)
	}
}

func TestDecode_NoAttempt(t *testing.T) {
	_, err := Decode(Row{Keyspace: "ks", Table: "tbl", StartToken: 0, EndToken: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestDecode_MissingNames(t *testing.T) {
	_, err := Decode(Row{Table: "tbl", LastSuccessful: &Attempt{StartedAt: t0}})
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestDecodeAll(t *testing.T) {
	rows := []Row{
		{Keyspace: "ks", Table: "tbl", StartToken: 0, EndToken: 10, LastSuccessful: &Attempt{StartedAt: t0}},
		{Keyspace: "ks", Table: "tbl", StartToken: 20, EndToken: -20, LastSuccessful: &Attempt{StartedAt: t0}},
	}
	records, err := DecodeAll(rows)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	rows = append(rows, Row{Keyspace: "ks", Table: "tbl"})
	_, err = DecodeAll(rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRow)
	assert.Contains(t, err.Error(), "row 2")
}

func TestNodeSet(t *testing.T) {
	addrs := []netip.Addr{
		netip.MustParseAddr("::ffff:10.0.0.2"),
		netip.MustParseAddr("10.0.0.2"),
		netip.MustParseAddr("10.0.0.1"),
		{},
	}
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("10.0.0.2")}, NodeSet(addrs))
	assert.Nil(t, NodeSet(nil))
}
