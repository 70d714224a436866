package nodesync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome_Label(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{InSync, "0 (fully in sync)"},
		{Repaired, "1 (fully repaired)"},
		{PartiallyInSync, "2 (partially in sync)"},
		{PartiallyRepaired, "3 (partially repaired)"},
		{Uncompleted, "4 (validation uncompleted)"},
		{Failed, "5 (failed)"},
		{Outcome(6), "invalid outcome code (6)"},
		{Outcome(-1), "invalid outcome code (-1)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.Label())
		})
	}
}

func TestOutcome_Valid(t *testing.T) {
	for _, o := range Outcomes {
		assert.True(t, o.Valid(), o.Label())
	}
	assert.False(t, Outcome(6).Valid())
	assert.Equal(t, "invalid", Outcome(42).String())
	assert.Equal(t, "failed", Failed.String())
}
