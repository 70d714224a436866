package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const fixturePath = "../fixture/testdata/domain_1300.yaml"

const testConfig = `
targets: [{
	keyspace: "domain_1300"
	tables: ["xml_doc_1300", "xml_doc_1305"]
}]
`

// newTestRootOptions returns options with a quiet logger and a config that
// limits the audit to the tables present in the fixture.
func newTestRootOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	return newTestRootOptionsWithConfig(t, format, testConfig)
}

func newTestRootOptionsWithConfig(t *testing.T, format, config string) *RootOptions {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ringaudit.cue")
	require.NoError(t, os.WriteFile(path, []byte(config), 0644))
	return &RootOptions{Format: format, Config: path, Logger: zap.NewNop()}
}

// execute runs cmd with args and returns what it printed.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// syncCountingCore counts Sync calls on the logger handed to a command.
type syncCountingCore struct {
	zapcore.Core
	syncs *atomic.Int32
}

func (c syncCountingCore) Sync() error {
	c.syncs.Add(1)
	return c.Core.Sync()
}

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
