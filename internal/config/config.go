// Package config loads the audit configuration.
//
// Configuration files are CUE. They are unified with an embedded schema that
// supplies defaults for every field, so an empty file (or no file at all)
// audits the default keyspace against localhost:9042 in DC1. Unknown fields
// are rejected.
//
// Example:
//
//	connection: {
//		host:       "10.0.0.5"
//		datacenter: "eu-west"
//	}
//	audit: parallelism: 4
//	targets: [{keyspace: "shop", tables: ["orders", "carts"]}]
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSrc string

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the decoded configuration.
type Config struct {
	Connection Connection `json:"connection"`
	Audit      Audit      `json:"audit"`
	Targets    []Target   `json:"targets"`
}

// Connection describes how to reach the cluster.
type Connection struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Datacenter  string `json:"datacenter"`
	Timeout     string `json:"timeout"`
	Consistency string `json:"consistency"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

// Audit tunes the audit driver.
type Audit struct {
	Parallelism int `json:"parallelism"`
}

// Target lists the tables to audit in one keyspace.
type Target struct {
	Keyspace string   `json:"keyspace"`
	Tables   []string `json:"tables"`
}

// Table identifies one audited table.
type Table struct {
	Keyspace string
	Name     string
}

func (t Table) String() string {
	return t.Keyspace + "." + t.Name
}

// Load reads the CUE file at path and applies defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var src []byte
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		src = data
	}
	return Parse(path, src)
}

// Parse decodes CUE source. filename is only used in error positions.
func Parse(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	if filename == "" {
		filename = "config.cue"
	}
	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode config: %v", ErrInvalidConfig, err)
	}
	if _, err := cfg.Connection.DialTimeout(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Parse("", nil)
	if err != nil {
		panic(fmt.Sprintf("embedded config schema: %v", err))
	}
	return cfg
}

// Tables flattens the targets in configuration order.
func (c *Config) Tables() []Table {
	var tables []Table
	for _, target := range c.Targets {
		for _, name := range target.Tables {
			tables = append(tables, Table{Keyspace: target.Keyspace, Name: name})
		}
	}
	return tables
}

// ApplyArgs overrides host, port and datacenter from positional arguments, in
// that order. Missing arguments keep the configured values.
func (c *Config) ApplyArgs(args []string) error {
	if len(args) > 3 {
		return fmt.Errorf("expected at most 3 arguments (host, port, datacenter), got %d", len(args))
	}
	if len(args) > 0 {
		c.Connection.Host = args[0]
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port %q", args[1])
		}
		c.Connection.Port = port
	}
	if len(args) > 2 {
		c.Connection.Datacenter = args[2]
	}
	return nil
}

// DialTimeout parses the connection timeout.
func (c Connection) DialTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("connection timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("connection timeout must be positive, got %s", c.Timeout)
	}
	return d, nil
}

// Address returns host:port.
func (c Connection) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
