package graph

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// statement is one Cypher execution observed by a fake session.
type statement struct {
	cypher string
	params map[string]any
}

// fakeSession serves canned records and counts closes.
type fakeSession struct {
	records      []*neo4j.Record
	nodesDeleted int
	runErr       error
	writeErr     error

	runs   []statement
	writes []statement
	closed int
}

func (f *fakeSession) run(_ context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	f.runs = append(f.runs, statement{cypher: cypher, params: params})
	if f.runErr != nil {
		return nil, f.runErr
	}
	return f.records, nil
}

func (f *fakeSession) writeTx(_ context.Context, cypher string, params map[string]any) ([]*neo4j.Record, int, error) {
	f.writes = append(f.writes, statement{cypher: cypher, params: params})
	if f.writeErr != nil {
		return nil, 0, f.writeErr
	}
	return f.records, f.nodesDeleted, nil
}

func (f *fakeSession) close(context.Context) error {
	f.closed++
	return nil
}

// memoryGraph imitates the database for the isolation tests: it keeps nodes
// per user and answers purely from the effective userId parameter, the way
// the property-scoped Cypher in this package does.
type memoryGraph struct {
	nodes  map[string][]map[string]any
	closed int
}

func newMemoryGraph() *memoryGraph {
	return &memoryGraph{nodes: map[string][]map[string]any{}}
}

func (m *memoryGraph) run(_ context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	userID, _ := params["userId"].(string)

	if strings.Contains(cypher, "count(n) > 0") {
		owned := false
		for _, n := range m.nodes[userID] {
			if n["id"] == params["nodeId"] {
				owned = true
			}
		}
		return []*neo4j.Record{{Keys: []string{"owned"}, Values: []any{owned}}}, nil
	}

	var records []*neo4j.Record
	for _, n := range m.nodes[userID] {
		if id, ok := params["id"]; ok && n["id"] != id {
			continue
		}
		records = append(records, nodeRecord("c", n))
	}
	return records, nil
}

func (m *memoryGraph) writeTx(_ context.Context, cypher string, params map[string]any) ([]*neo4j.Record, int, error) {
	userID, _ := params["userId"].(string)

	switch {
	case strings.Contains(cypher, "DETACH DELETE"):
		deleted := len(m.nodes[userID])
		delete(m.nodes, userID)
		return nil, deleted, nil
	case strings.HasPrefix(cypher, "CREATE"):
		node := map[string]any{
			"id":      params["id"],
			"user_id": userID,
			"name":    params["name"],
		}
		m.nodes[userID] = append(m.nodes[userID], node)
		return []*neo4j.Record{nodeRecord("c", node)}, 0, nil
	default:
		var records []*neo4j.Record
		for _, n := range m.nodes[userID] {
			if n["id"] != params["id"] {
				continue
			}
			n["name"] = params["name"]
			records = append(records, nodeRecord("c", n))
		}
		return records, 0, nil
	}
}

func (m *memoryGraph) close(context.Context) error {
	m.closed++
	return nil
}

func nodeRecord(key string, props map[string]any) *neo4j.Record {
	return &neo4j.Record{Keys: []string{key}, Values: []any{dbtype.Node{Props: props}}}
}

// newTestStore wires a store to a fixed session implementation.
func newTestStore(sess querySession) *Store {
	return &Store{database: "neo4j", newSession: func(context.Context) querySession { return sess }}
}

func asUser(id string) *AuthContext {
	return &AuthContext{User: &AuthUser{ID: id, Name: id}}
}
