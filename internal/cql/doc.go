// Package cql reads nodesync_status rows from a live cluster.
//
// Source satisfies the audit row source contract over a gocql session. One
// bound query is issued per table; the cluster filters by keyspace and table
// name, so rows arrive in whatever order the coordinator returns them.
package cql
