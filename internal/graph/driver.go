// Package graph is the only place the service touches Neo4j. Every statement
// it runs is scoped to a single user: callers hand over Cypher and parameters,
// the package resolves the authenticated user and forces the userId parameter,
// and the store has no native row-level security beyond that.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jcfg "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
)

// Config holds the connection settings for the graph database.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
	MaxPool  int
}

// Store wraps the long-lived driver. It is created once by the composition
// root, shared by handle, and closed on shutdown. Sessions are opened per
// call and never cached.
type Store struct {
	driver   neo4j.DriverWithContext
	database string

	newSession func(ctx context.Context) querySession
}

// Open creates the driver and verifies connectivity before returning.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4jcfg.Config) {
			if cfg.MaxPool > 0 {
				c.MaxConnectionPoolSize = cfg.MaxPool
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	s := &Store{driver: driver, database: cfg.Database}
	s.newSession = s.driverSession
	return s, nil
}

// Close releases the driver and its connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// querySession is the slice of a driver session this package uses: a plain
// run for reads, a managed transaction for writes, and close. Tests swap in
// a fake to observe effective statements without a live database.
type querySession interface {
	run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
	writeTx(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, int, error)
	close(ctx context.Context) error
}

type driverSession struct {
	inner neo4j.SessionWithContext
}

func (s *Store) driverSession(ctx context.Context) querySession {
	return &driverSession{inner: s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
	})}
}

func (d *driverSession) run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := d.inner.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

type txOutcome struct {
	records      []*neo4j.Record
	nodesDeleted int
}

// writeTx runs the statement inside a managed write transaction, so the
// driver retries transient failures. The second return value is the number
// of nodes the statement deleted, taken from the result summary.
func (d *driverSession) writeTx(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, int, error) {
	out, err := d.inner.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		summary, err := result.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return txOutcome{records: records, nodesDeleted: summary.Counters().NodesDeleted()}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	outcome := out.(txOutcome)
	return outcome.records, outcome.nodesDeleted, nil
}

func (d *driverSession) close(ctx context.Context) error {
	return d.inner.Close(ctx)
}
