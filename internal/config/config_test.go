package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost", cfg.Connection.Host)
	assert.Equal(t, 9042, cfg.Connection.Port)
	assert.Equal(t, "DC1", cfg.Connection.Datacenter)
	assert.Equal(t, "LOCAL_ONE", cfg.Connection.Consistency)
	assert.Equal(t, 1, cfg.Audit.Parallelism)

	tables := cfg.Tables()
	require.Len(t, tables, 10)
	assert.Equal(t, Table{Keyspace: "domain_1300", Name: "xml_doc_1300"}, tables[0])
	assert.Equal(t, "domain_1300.xml_idx_1305_1", tables[9].String())

	timeout, err := cfg.Connection.DialTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringaudit.cue")
	src := `
connection: {
	host:       "10.0.0.5"
	datacenter: "eu-west"
	timeout:    "3s"
}
audit: parallelism: 4
targets: [
	{keyspace: "shop", tables: ["orders", "carts"]},
	{keyspace: "auth", tables: ["sessions"]},
]
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Connection.Host)
	assert.Equal(t, 9042, cfg.Connection.Port, "unset fields keep their default")
	assert.Equal(t, "eu-west", cfg.Connection.Datacenter)
	assert.Equal(t, 4, cfg.Audit.Parallelism)
	assert.Equal(t, []Table{
		{Keyspace: "shop", Name: "orders"},
		{Keyspace: "shop", Name: "carts"},
		{Keyspace: "auth", Name: "sessions"},
	}, cfg.Tables())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"port out of range", `connection: port: 70000`},
		{"unknown field", `connection: hostname: "x"`},
		{"empty keyspace", `targets: [{keyspace: "", tables: ["a"]}]`},
		{"bad consistency", `connection: consistency: "SOME"`},
		{"zero parallelism", `audit: parallelism: 0`},
		{"bad timeout", `connection: timeout: "soon"`},
		{"syntax", `connection: {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.cue", []byte(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParse_NonConcreteFailsValidation(t *testing.T) {
	_, err := Parse("test.cue", []byte(`targets: [{keyspace: "domain_1300", tables: [string]}]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "tables")
	assert.NotContains(t, err.Error(), "decode config")
}

func TestApplyArgs(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyArgs([]string{"db1", "19042", "DC2"}))
	assert.Equal(t, "db1", cfg.Connection.Host)
	assert.Equal(t, 19042, cfg.Connection.Port)
	assert.Equal(t, "DC2", cfg.Connection.Datacenter)
	assert.Equal(t, "db1:19042", cfg.Connection.Address())

	cfg = Default()
	require.NoError(t, cfg.ApplyArgs([]string{"db1"}))
	assert.Equal(t, "db1", cfg.Connection.Host)
	assert.Equal(t, 9042, cfg.Connection.Port)

	assert.Error(t, cfg.ApplyArgs([]string{"db1", "port"}))
	assert.Error(t, cfg.ApplyArgs([]string{"a", "1", "b", "c"}))
}
