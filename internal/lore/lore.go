// Package lore is the typed store for a user's story universe: characters,
// locations, items, the moment timeline, and notes. It reaches Neo4j only
// through the scoped graph layer, so every statement here runs against the
// calling user's nodes and nothing else.
package lore

import (
	"context"
	"errors"

	"github.com/grbellar/lore-tracker-sub000/internal/graph"
)

// ErrNotFound is returned when an entity does not exist for the calling
// user. An entity owned by someone else reports the same error.
var ErrNotFound = errors.New("not found")

// graphExec is the slice of the graph layer this store uses.
type graphExec interface {
	ReadQuery(ctx context.Context, cypher string, params map[string]any) ([]graph.Record, error)
	WriteQuery(ctx context.Context, cypher string, params map[string]any) ([]graph.Record, error)
}

// Store executes the lore domain's queries.
type Store struct {
	graph graphExec
}

// NewStore builds a store on top of the scoped graph layer.
func NewStore(g graphExec) *Store {
	return &Store{graph: g}
}

// Ref is a small pointer to another entity, used in detail views.
type Ref struct {
	ID   string
	Name string
}

// first unwraps the leading row of a result, reporting ErrNotFound when the
// query matched nothing.
func first(rows []graph.Record) (map[string]any, error) {
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return recordMap(rows[0]), nil
}

// deletedCount reads the single count field deletion statements return.
func deletedCount(rows []graph.Record, key string) int {
	if len(rows) == 0 {
		return 0
	}
	switch v := rows[0].(type) {
	case int64:
		return int(v)
	case map[string]any:
		if n, ok := v[key].(int64); ok {
			return int(n)
		}
	}
	return 0
}
