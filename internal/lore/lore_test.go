package lore

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/grbellar/lore-tracker-sub000/internal/graph"
)

var errBoom = errors.New("boom")

type statement struct {
	cypher string
	params map[string]any
}

// fakeGraph stands in for the scoped graph layer. It records every statement
// and answers through the optional function fields.
type fakeGraph struct {
	readFn  func(cypher string, params map[string]any) ([]graph.Record, error)
	writeFn func(cypher string, params map[string]any) ([]graph.Record, error)
	reads   []statement
	writes  []statement
}

func (f *fakeGraph) ReadQuery(ctx context.Context, cypher string, params map[string]any) ([]graph.Record, error) {
	f.reads = append(f.reads, statement{cypher: cypher, params: params})
	if f.readFn == nil {
		return []graph.Record{}, nil
	}
	return f.readFn(cypher, params)
}

func (f *fakeGraph) WriteQuery(ctx context.Context, cypher string, params map[string]any) ([]graph.Record, error) {
	f.writes = append(f.writes, statement{cypher: cypher, params: params})
	if f.writeFn == nil {
		return []graph.Record{}, nil
	}
	return f.writeFn(cypher, params)
}

var testTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// echoCharacter answers a character write with the node the statement would
// have produced.
func echoCharacter(cypher string, params map[string]any) ([]graph.Record, error) {
	return []graph.Record{map[string]any{
		"id":         params["id"],
		"user_id":    "usr_alice",
		"name":       params["name"],
		"summary":    params["summary"],
		"aliases":    params["aliases"],
		"created_at": testTime,
		"updated_at": testTime,
	}}, nil
}

func TestCreateCharacterReturnsNode(t *testing.T) {
	fg := &fakeGraph{writeFn: echoCharacter}
	s := NewStore(fg)

	ch, err := s.CreateCharacter(context.Background(), "Hero", "the protagonist", []string{"The Kid"})
	if err != nil {
		t.Fatalf("CreateCharacter: %v", err)
	}
	if !strings.HasPrefix(ch.ID, "chr_") {
		t.Fatalf("expected chr_ id, got %q", ch.ID)
	}
	if ch.Name != "Hero" || ch.Summary != "the protagonist" {
		t.Fatalf("unexpected character: %+v", ch)
	}
	if !reflect.DeepEqual(ch.Aliases, []string{"The Kid"}) {
		t.Fatalf("unexpected aliases: %v", ch.Aliases)
	}
	if !ch.CreatedAt.Equal(testTime) {
		t.Fatalf("unexpected created_at: %v", ch.CreatedAt)
	}

	if len(fg.writes) != 1 {
		t.Fatalf("expected one write, got %d", len(fg.writes))
	}
	if !strings.Contains(fg.writes[0].cypher, "CREATE (c:Character") {
		t.Fatalf("unexpected cypher: %s", fg.writes[0].cypher)
	}
	if fg.writes[0].params["id"] != ch.ID {
		t.Fatalf("statement id %v does not match returned id %q", fg.writes[0].params["id"], ch.ID)
	}
}

func TestCreateCharacterDefaultsAliases(t *testing.T) {
	fg := &fakeGraph{writeFn: echoCharacter}
	s := NewStore(fg)

	ch, err := s.CreateCharacter(context.Background(), "Hero", "", nil)
	if err != nil {
		t.Fatalf("CreateCharacter: %v", err)
	}
	sent, ok := fg.writes[0].params["aliases"].([]string)
	if !ok || sent == nil || len(sent) != 0 {
		t.Fatalf("expected empty alias list in params, got %v", fg.writes[0].params["aliases"])
	}
	if len(ch.Aliases) != 0 {
		t.Fatalf("expected no aliases, got %v", ch.Aliases)
	}
}

func TestGetCharacterMissing(t *testing.T) {
	s := NewStore(&fakeGraph{})

	if _, err := s.GetCharacter(context.Background(), "chr_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListCharactersDecodesRows(t *testing.T) {
	fg := &fakeGraph{readFn: func(cypher string, params map[string]any) ([]graph.Record, error) {
		return []graph.Record{
			map[string]any{"id": "chr_1", "name": "Hero", "aliases": []any{"The Kid"}},
			map[string]any{"id": "chr_2", "name": "Mentor"},
		}, nil
	}}
	s := NewStore(fg)

	chars, err := s.ListCharacters(context.Background())
	if err != nil {
		t.Fatalf("ListCharacters: %v", err)
	}
	if len(chars) != 2 {
		t.Fatalf("expected 2 characters, got %d", len(chars))
	}
	if chars[0].Name != "Hero" || chars[1].Name != "Mentor" {
		t.Fatalf("unexpected names: %q %q", chars[0].Name, chars[1].Name)
	}
	if !reflect.DeepEqual(chars[0].Aliases, []string{"The Kid"}) {
		t.Fatalf("unexpected aliases: %v", chars[0].Aliases)
	}
}

func TestDeleteCharacterReportsMissing(t *testing.T) {
	fg := &fakeGraph{writeFn: func(cypher string, params map[string]any) ([]graph.Record, error) {
		return []graph.Record{int64(0)}, nil
	}}
	s := NewStore(fg)

	if err := s.DeleteCharacter(context.Background(), "chr_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	fg.writeFn = func(cypher string, params map[string]any) ([]graph.Record, error) {
		return []graph.Record{int64(1)}, nil
	}
	if err := s.DeleteCharacter(context.Background(), "chr_1"); err != nil {
		t.Fatalf("DeleteCharacter: %v", err)
	}
}

func TestSetRelationRequiresBothEndpoints(t *testing.T) {
	fg := &fakeGraph{}
	s := NewStore(fg)

	if err := s.SetRelation(context.Background(), "chr_1", "chr_other", "ally"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	fg.writeFn = func(cypher string, params map[string]any) ([]graph.Record, error) {
		return []graph.Record{map[string]any{"kind": params["kind"]}}, nil
	}
	if err := s.SetRelation(context.Background(), "chr_1", "chr_2", "ally"); err != nil {
		t.Fatalf("SetRelation: %v", err)
	}

	last := fg.writes[len(fg.writes)-1]
	if !strings.Contains(last.cypher, "MERGE (a)-[r:RELATES_TO]->(b)") {
		t.Fatalf("unexpected cypher: %s", last.cypher)
	}
	if last.params["fromId"] != "chr_1" || last.params["toId"] != "chr_2" || last.params["kind"] != "ally" {
		t.Fatalf("unexpected params: %v", last.params)
	}
}

func TestSetRelationRejectsUnknownKind(t *testing.T) {
	fg := &fakeGraph{}
	s := NewStore(fg)

	if err := s.SetRelation(context.Background(), "chr_1", "chr_2", "nemesis"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if len(fg.writes) != 0 {
		t.Fatalf("invalid kind must not reach the graph, got %d writes", len(fg.writes))
	}
}

func TestParseRelationKind(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"ally", "ally", true},
		{" Mentor ", "mentor", true},
		{"ROMANCE", "romance", true},
		{"other", "other", true},
		{"nemesis", "nemesis", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRelationKind(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseRelationKind(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestListRelationsDecodesRows(t *testing.T) {
	fg := &fakeGraph{readFn: func(cypher string, params map[string]any) ([]graph.Record, error) {
		return []graph.Record{
			map[string]any{"id": "chr_2", "name": "Mentor", "kind": "mentor"},
			map[string]any{"id": "chr_3", "name": "Rival", "kind": "rival"},
		}, nil
	}}
	s := NewStore(fg)

	rels, err := s.ListRelations(context.Background(), "chr_1")
	if err != nil {
		t.Fatalf("ListRelations: %v", err)
	}
	want := []Relation{
		{ID: "chr_2", Name: "Mentor", Kind: "mentor"},
		{ID: "chr_3", Name: "Rival", Kind: "rival"},
	}
	if !reflect.DeepEqual(rels, want) {
		t.Fatalf("unexpected relations: %+v", rels)
	}
}

func TestGraphErrorsPropagate(t *testing.T) {
	fg := &fakeGraph{
		readFn: func(cypher string, params map[string]any) ([]graph.Record, error) {
			return nil, errBoom
		},
		writeFn: func(cypher string, params map[string]any) ([]graph.Record, error) {
			return nil, errBoom
		},
	}
	s := NewStore(fg)
	ctx := context.Background()

	if _, err := s.GetCharacter(ctx, "chr_1"); err != errBoom {
		t.Fatalf("expected the graph error unaltered, got %v", err)
	}
	if _, err := s.CreateLocation(ctx, "The Citadel", ""); err != errBoom {
		t.Fatalf("expected the graph error unaltered, got %v", err)
	}
	if err := s.DeleteItem(ctx, "itm_1"); err != errBoom {
		t.Fatalf("expected the graph error unaltered, got %v", err)
	}
}

func TestItemHolderDecoded(t *testing.T) {
	fg := &fakeGraph{readFn: func(cypher string, params map[string]any) ([]graph.Record, error) {
		return []graph.Record{map[string]any{
			"i":        map[string]any{"id": "itm_1", "name": "Lantern"},
			"holderId": "chr_1",
		}}, nil
	}}
	s := NewStore(fg)

	item, err := s.GetItem(context.Background(), "itm_1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.Name != "Lantern" || item.HolderID != "chr_1" {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestSetHolderReplacesCurrent(t *testing.T) {
	fg := &fakeGraph{writeFn: func(cypher string, params map[string]any) ([]graph.Record, error) {
		return []graph.Record{map[string]any{"id": params["itemId"]}}, nil
	}}
	s := NewStore(fg)

	if err := s.SetHolder(context.Background(), "itm_1", "chr_1"); err != nil {
		t.Fatalf("SetHolder: %v", err)
	}
	cy := fg.writes[0].cypher
	if !strings.Contains(cy, "OPTIONAL MATCH (i)-[old:HELD_BY]->(:Character)") || !strings.Contains(cy, "DELETE old") {
		t.Fatalf("expected old holder to be dropped, got: %s", cy)
	}
	if !strings.Contains(cy, "MERGE (i)-[:HELD_BY]->(c)") {
		t.Fatalf("expected new holder edge, got: %s", cy)
	}
}
