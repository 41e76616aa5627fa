package graph

import (
	"context"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Record is one normalized result row. A query returning a single named
// field yields that field's value directly: the property map for nodes and
// relationships, the raw driver value for anything else. Multiple named
// fields yield a map keyed by field name with the same per-field unwrapping.
type Record any

// ReadQuery runs a read statement scoped to the user in the ambient auth
// context. The statement must filter on $userId; the parameter is always
// bound to the authenticated user regardless of what the caller passed.
func (s *Store) ReadQuery(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	return s.ReadQueryAs(ctx, FromContext(ctx), cypher, params)
}

// ReadQueryAs is ReadQuery with an explicit auth context.
func (s *Store) ReadQueryAs(ctx context.Context, actx *AuthContext, cypher string, params map[string]any) ([]Record, error) {
	userID, err := UserID(actx)
	if err != nil {
		return nil, err
	}

	sess := s.newSession(ctx)
	defer sess.close(ctx)

	records, err := sess.run(ctx, cypher, scopeParams(params, userID))
	if err != nil {
		log.Printf("graph: read query failed: %v", err)
		return nil, err
	}
	return normalizeRecords(records), nil
}

// WriteQuery runs a write statement scoped to the user in the ambient auth
// context, inside a managed write transaction. Statements that need ordered
// application of several mutations compose multiple calls and get no
// atomicity across them.
func (s *Store) WriteQuery(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	return s.WriteQueryAs(ctx, FromContext(ctx), cypher, params)
}

// WriteQueryAs is WriteQuery with an explicit auth context.
func (s *Store) WriteQueryAs(ctx context.Context, actx *AuthContext, cypher string, params map[string]any) ([]Record, error) {
	userID, err := UserID(actx)
	if err != nil {
		return nil, err
	}

	sess := s.newSession(ctx)
	defer sess.close(ctx)

	records, _, err := sess.writeTx(ctx, cypher, scopeParams(params, userID))
	if err != nil {
		log.Printf("graph: write query failed: %v", err)
		return nil, err
	}
	return normalizeRecords(records), nil
}

// scopeParams builds the effective parameters: the caller's map is copied
// first, then userId is bound to the authenticated user. The order matters;
// a caller-supplied userId must never survive the merge.
func scopeParams(params map[string]any, userID string) map[string]any {
	scoped := make(map[string]any, len(params)+1)
	for k, v := range params {
		scoped[k] = v
	}
	scoped["userId"] = userID
	return scoped
}

func normalizeRecords(records []*neo4j.Record) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		out = append(out, normalizeRecord(rec))
	}
	return out
}

func normalizeRecord(rec *neo4j.Record) Record {
	if len(rec.Keys) == 1 {
		return unwrapValue(rec.Values[0])
	}
	fields := make(map[string]any, len(rec.Keys))
	for i, key := range rec.Keys {
		fields[key] = unwrapValue(rec.Values[i])
	}
	return fields
}

// unwrapValue flattens graph entities to their property maps and passes any
// other driver value through untouched.
func unwrapValue(v any) any {
	switch t := v.(type) {
	case dbtype.Node:
		return t.Props
	case dbtype.Relationship:
		return t.Props
	default:
		return v
	}
}
