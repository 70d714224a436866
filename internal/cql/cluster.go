package cql

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"github.com/roach88/ringaudit/internal/config"
)

// NewCluster translates connection settings into a gocql cluster config.
// Queries are routed token-aware within the local datacenter.
func NewCluster(conn config.Connection) (*gocql.ClusterConfig, error) {
	timeout, err := conn.DialTimeout()
	if err != nil {
		return nil, err
	}
	consistency, err := gocql.ParseConsistencyWrapper(conn.Consistency)
	if err != nil {
		return nil, fmt.Errorf("connection consistency: %w", err)
	}

	cluster := gocql.NewCluster(conn.Host)
	cluster.Port = conn.Port
	cluster.Timeout = timeout
	cluster.ConnectTimeout = timeout
	cluster.Consistency = consistency
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(
		gocql.DCAwareRoundRobinPolicy(conn.Datacenter),
	)
	if conn.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: conn.Username,
			Password: conn.Password,
		}
	}
	return cluster, nil
}

// Dial connects to the cluster described by conn.
func Dial(ctx context.Context, conn config.Connection, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cluster, err := NewCluster(conn)
	if err != nil {
		return nil, err
	}
	cluster.Logger = zap.NewStdLog(logger.Named("gocql"))

	logger.Info("connecting",
		zap.String("address", conn.Address()),
		zap.String("datacenter", conn.Datacenter),
		zap.String("consistency", cluster.Consistency.String()),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", conn.Address(), err)
	}
	return &Source{session: session, logger: logger}, nil
}
