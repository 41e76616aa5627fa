package graph

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

var errBoom = errors.New("boom")

func TestReadQueryForcesUserID(t *testing.T) {
	sess := &fakeSession{}
	store := newTestStore(sess)
	ctx := WithAuthContext(context.Background(), asUser("alice"))

	callerParams := map[string]any{"userId": "bob", "limit": int64(5)}
	if _, err := store.ReadQuery(ctx, "MATCH (c:Character {user_id: $userId}) RETURN c", callerParams); err != nil {
		t.Fatalf("ReadQuery: %v", err)
	}

	if len(sess.runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(sess.runs))
	}
	effective := sess.runs[0].params
	if effective["userId"] != "alice" {
		t.Errorf("effective userId = %v, want alice", effective["userId"])
	}
	if effective["limit"] != int64(5) {
		t.Errorf("caller parameter lost: %v", effective)
	}
	if callerParams["userId"] != "bob" {
		t.Errorf("caller map was mutated: %v", callerParams)
	}
}

func TestWriteQueryForcesUserID(t *testing.T) {
	sess := &fakeSession{}
	store := newTestStore(sess)

	_, err := store.WriteQueryAs(context.Background(), asUser("alice"),
		"CREATE (c:Character {id: $id, user_id: $userId}) RETURN c",
		map[string]any{"id": "c1", "userId": "bob"})
	if err != nil {
		t.Fatalf("WriteQueryAs: %v", err)
	}

	if len(sess.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(sess.writes))
	}
	if got := sess.writes[0].params["userId"]; got != "alice" {
		t.Errorf("effective userId = %v, want alice", got)
	}
}

func TestQueriesWithoutSessionOpenNoSession(t *testing.T) {
	opened := 0
	store := &Store{newSession: func(context.Context) querySession {
		opened++
		return &fakeSession{}
	}}

	if _, err := store.ReadQuery(context.Background(), "RETURN 1", nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("read err = %v, want ErrUnauthorized", err)
	}
	if _, err := store.WriteQuery(context.Background(), "RETURN 1", nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("write err = %v, want ErrUnauthorized", err)
	}
	if opened != 0 {
		t.Errorf("sessions opened = %d, want 0", opened)
	}
}

func TestSessionsCloseExactlyOnce(t *testing.T) {
	ctx := WithAuthContext(context.Background(), asUser("alice"))

	cases := []struct {
		name    string
		sess    *fakeSession
		call    func(*Store) error
		wantErr error
	}{
		{
			name: "read ok",
			sess: &fakeSession{},
			call: func(s *Store) error { _, err := s.ReadQuery(ctx, "RETURN 1", nil); return err },
		},
		{
			name:    "read error",
			sess:    &fakeSession{runErr: errBoom},
			call:    func(s *Store) error { _, err := s.ReadQuery(ctx, "RETURN 1", nil); return err },
			wantErr: errBoom,
		},
		{
			name: "write ok",
			sess: &fakeSession{},
			call: func(s *Store) error { _, err := s.WriteQuery(ctx, "RETURN 1", nil); return err },
		},
		{
			name:    "write error",
			sess:    &fakeSession{writeErr: errBoom},
			call:    func(s *Store) error { _, err := s.WriteQuery(ctx, "RETURN 1", nil); return err },
			wantErr: errBoom,
		},
	}

	for _, tc := range cases {
		err := tc.call(newTestStore(tc.sess))
		if tc.wantErr == nil && err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.wantErr)
		}
		if tc.sess.closed != 1 {
			t.Errorf("%s: session closed %d times, want 1", tc.name, tc.sess.closed)
		}
	}
}

func TestDriverErrorsComeBackUnaltered(t *testing.T) {
	store := newTestStore(&fakeSession{runErr: errBoom})
	ctx := WithAuthContext(context.Background(), asUser("alice"))

	_, err := store.ReadQuery(ctx, "RETURN 1", nil)
	if err != errBoom {
		t.Errorf("err = %#v, want the driver error itself", err)
	}
}

func TestEmptyResultIsEmptySlice(t *testing.T) {
	store := newTestStore(&fakeSession{})
	ctx := WithAuthContext(context.Background(), asUser("alice"))

	out, err := store.ReadQuery(ctx, "MATCH (c:Character {user_id: $userId}) RETURN c", nil)
	if err != nil {
		t.Fatalf("ReadQuery: %v", err)
	}
	if out == nil {
		t.Fatal("result is nil, want empty slice")
	}
	if len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
}

func TestNormalizeSingleFieldUnwraps(t *testing.T) {
	props := map[string]any{"id": "c1", "user_id": "alice", "name": "Hero"}
	sess := &fakeSession{records: []*neo4j.Record{
		nodeRecord("c", props),
		{Keys: []string{"total"}, Values: []any{int64(3)}},
		{Keys: []string{"knows"}, Values: []any{dbtype.Relationship{Type: "RELATES_TO", Props: map[string]any{"kind": "ally"}}}},
	}}
	store := newTestStore(sess)
	ctx := WithAuthContext(context.Background(), asUser("alice"))

	out, err := store.ReadQuery(ctx, "RETURN c", nil)
	if err != nil {
		t.Fatalf("ReadQuery: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if !reflect.DeepEqual(out[0], props) {
		t.Errorf("node row = %#v, want property map", out[0])
	}
	if out[1] != int64(3) {
		t.Errorf("scalar row = %#v, want int64(3)", out[1])
	}
	if !reflect.DeepEqual(out[2], map[string]any{"kind": "ally"}) {
		t.Errorf("relationship row = %#v, want property map", out[2])
	}
}

func TestNormalizeMultiFieldKeepsNames(t *testing.T) {
	props := map[string]any{"id": "c1"}
	sess := &fakeSession{records: []*neo4j.Record{
		{Keys: []string{"c", "total"}, Values: []any{dbtype.Node{Props: props}, int64(7)}},
	}}
	store := newTestStore(sess)
	ctx := WithAuthContext(context.Background(), asUser("alice"))

	out, err := store.ReadQuery(ctx, "RETURN c, total", nil)
	if err != nil {
		t.Fatalf("ReadQuery: %v", err)
	}
	want := map[string]any{"c": props, "total": int64(7)}
	if !reflect.DeepEqual(out[0], want) {
		t.Errorf("row = %#v, want %#v", out[0], want)
	}
}

func TestCrossTenantReadSeesNothing(t *testing.T) {
	mem := newMemoryGraph()
	store := newTestStore(mem)
	alice := WithAuthContext(context.Background(), asUser("alice"))
	bob := WithAuthContext(context.Background(), asUser("bob"))

	_, err := store.WriteQuery(alice,
		"CREATE (c:Character {id: $id, user_id: $userId, name: $name}) RETURN c",
		map[string]any{"id": "c1", "name": "Hero"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	fromBob, err := store.ReadQuery(bob, "MATCH (c:Character {user_id: $userId}) RETURN c", nil)
	if err != nil {
		t.Fatalf("read as bob: %v", err)
	}
	if len(fromBob) != 0 {
		t.Errorf("bob sees %d rows of alice's data", len(fromBob))
	}

	fromAlice, err := store.ReadQuery(alice, "MATCH (c:Character {user_id: $userId}) RETURN c", nil)
	if err != nil {
		t.Fatalf("read as alice: %v", err)
	}
	if len(fromAlice) != 1 {
		t.Fatalf("alice sees %d rows, want 1", len(fromAlice))
	}
}

func TestCrossTenantWriteTouchesNothing(t *testing.T) {
	mem := newMemoryGraph()
	store := newTestStore(mem)
	alice := WithAuthContext(context.Background(), asUser("alice"))
	bob := WithAuthContext(context.Background(), asUser("bob"))

	if _, err := store.WriteQuery(alice,
		"CREATE (c:Character {id: $id, user_id: $userId, name: $name}) RETURN c",
		map[string]any{"id": "c1", "name": "Hero"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	touched, err := store.WriteQuery(bob,
		"MATCH (c:Character {id: $id, user_id: $userId}) SET c.name = $name RETURN c",
		map[string]any{"id": "c1", "name": "Villain"})
	if err != nil {
		t.Fatalf("write as bob: %v", err)
	}
	if len(touched) != 0 {
		t.Errorf("bob's write matched %d rows, want 0", len(touched))
	}

	rows, err := store.ReadQuery(alice, "MATCH (c:Character {user_id: $userId}) RETURN c", nil)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	props, ok := rows[0].(map[string]any)
	if !ok || props["name"] != "Hero" {
		t.Errorf("alice's node changed: %#v", rows[0])
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	mem := newMemoryGraph()
	store := newTestStore(mem)
	alice := WithAuthContext(context.Background(), asUser("alice"))

	created, err := store.WriteQuery(alice,
		"CREATE (c:Character {id: $id, user_id: $userId, name: $name}) RETURN c",
		map[string]any{"id": "c1", "name": "Hero"})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d rows, want 1", len(created))
	}

	read, err := store.ReadQuery(alice,
		"MATCH (c:Character {id: $id, user_id: $userId}) RETURN c",
		map[string]any{"id": "c1"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(read) != 1 {
		t.Fatalf("read %d rows, want 1", len(read))
	}
	if !reflect.DeepEqual(created[0], read[0]) {
		t.Errorf("round trip mismatch: wrote %#v, read %#v", created[0], read[0])
	}
	props := read[0].(map[string]any)
	if props["user_id"] != "alice" {
		t.Errorf("stored user_id = %v, want alice", props["user_id"])
	}
}
