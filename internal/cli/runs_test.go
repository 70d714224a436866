package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringaudit/internal/store"
)

func TestRecordRunsShow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")

	audited, err := execute(t, NewAuditCommand(newTestRootOptions(t, "text")),
		"--fixture", fixturePath, "--db", dbPath, "--record", "--summary")
	require.NoError(t, err)

	out, err := execute(t, NewRunsCommand(newTestRootOptions(t, "json")), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Data []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	run := resp.Data[0]
	assert.Equal(t, 2, run.Tables)
	assert.Equal(t, 0, run.Failed)
	assert.Equal(t, "fixture:"+fixturePath, run.Source)

	shown, err := execute(t, NewShowCommand(newTestRootOptions(t, "text")), "--db", dbPath, "--summary", run.ID)
	require.NoError(t, err)
	assert.Equal(t, audited, shown)

	text, err := execute(t, NewRunsCommand(newTestRootOptions(t, "text")), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, text, run.ID)
}

func TestRuns_Empty(t *testing.T) {
	out, err := execute(t, NewRunsCommand(newTestRootOptions(t, "text")), "--db", filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	assert.Equal(t, "No runs found in database.\n", out)
}

func TestRuns_RejectsArguments(t *testing.T) {
	_, err := execute(t, NewRunsCommand(newTestRootOptions(t, "text")), "--db", "x.db", "extra")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestShow_Errors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing run id", []string{"--db", dbPath}, "invalid arguments"},
		{"missing db", []string{"run-1"}, "--db is required"},
		{"unknown run", []string{"--db", dbPath, "run-1"}, "run run-1 not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewShowCommand(newTestRootOptions(t, "text")), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}
