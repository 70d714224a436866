package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestAudit_Fixture(t *testing.T) {
	out, err := execute(t, NewAuditCommand(newTestRootOptions(t, "text")), "--fixture", fixturePath)
	require.NoError(t, err)
	newGolden(t).Assert(t, "audit_fixture", []byte(out))
}

func TestAudit_FixtureJSON(t *testing.T) {
	out, err := execute(t, NewAuditCommand(newTestRootOptions(t, "json")), "--fixture", fixturePath, "--summary")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var doc struct {
		Table     string           `json:"table"`
		Records   []map[string]any `json:"records"`
		RingShare []map[string]any `json:"ring_share"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, "xml_doc_1305", doc.Table)
	assert.Len(t, doc.Records, 3)
	assert.Len(t, doc.RingShare, 2)
}

func TestAudit_FlushesLogger(t *testing.T) {
	var syncs atomic.Int32
	opts := newTestRootOptions(t, "text")
	opts.Logger = zap.New(syncCountingCore{Core: zapcore.NewNopCore(), syncs: &syncs})

	_, err := execute(t, NewAuditCommand(opts), "--fixture", fixturePath)
	require.NoError(t, err)
	assert.Equal(t, int32(1), syncs.Load())
}

func TestAudit_MalformedRowFailsTable(t *testing.T) {
	dir := t.TempDir()
	fx := filepath.Join(dir, "rows.yaml")
	require.NoError(t, os.WriteFile(fx, []byte(`
rows:
  - keyspace: domain_1300
    table: xml_doc_1300
    start_token: 1
    end_token: 2
  - keyspace: domain_1300
    table: xml_doc_1305
    start_token: 1
    end_token: 2
    last_successful_validation:
      started_at: 2020-10-15T01:38:29.591Z
      outcome: 0
`), 0644))

	out, err := execute(t, NewAuditCommand(newTestRootOptions(t, "text")), "--fixture", fx)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 tables")

	// the sibling table is still reported
	assert.Contains(t, out, "domain_1300.xml_doc_1300 failed [MALFORMED_ROW]")
	assert.Contains(t, out, "domain_1300.xml_doc_1305, range [1;2], lastOutcome=0 (fully in sync)")
}

func TestAudit_MetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringaudit.prom")

	_, err := execute(t, NewAuditCommand(newTestRootOptions(t, "text")),
		"--fixture", fixturePath, "--metrics-file", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ringaudit_coverage_records{keyspace="domain_1300",table="xml_doc_1305"} 3`)
	assert.Contains(t, string(data), "ringaudit_ring_share")
}

func TestAudit_CommandErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"too many args", []string{"--fixture", fixturePath, "h", "9042", "DC1", "extra"}, "invalid arguments"},
		{"bad port", []string{"--fixture", fixturePath, "localhost", "port"}, "invalid port"},
		{"snapshot without db", []string{"--snapshot", "abc"}, "--snapshot requires --db"},
		{"record without db", []string{"--fixture", fixturePath, "--record"}, "--record requires --db"},
		{"fixture and snapshot", []string{"--fixture", fixturePath, "--db", dbPath}, "cannot be combined"},
		{"missing fixture", []string{"--fixture", "does-not-exist.yaml"}, "failed to load fixture"},
		{"no snapshot stored", []string{"--db", dbPath}, "no snapshot found"},
		{"unknown snapshot", []string{"--db", dbPath, "--snapshot", "abc"}, "snapshot abc not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewAuditCommand(newTestRootOptions(t, "text")), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestAudit_InvalidConfig(t *testing.T) {
	opts := newTestRootOptions(t, "text")
	require.NoError(t, os.WriteFile(opts.Config, []byte(`audit: parallelism: 0`), 0644))

	_, err := execute(t, NewAuditCommand(opts), "--fixture", fixturePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
