package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/grbellar/lore-tracker-sub000/internal/graph"
)

type scanCall struct {
	userID string
	cypher string
	params map[string]any
}

// fakeReader stands in for the scoped graph layer. It records every read and
// answers through the optional function field.
type fakeReader struct {
	readFn func(cypher string, params map[string]any) ([]graph.Record, error)
	reads  []scanCall
}

func (f *fakeReader) ReadQueryAs(ctx context.Context, actx *graph.AuthContext, cypher string, params map[string]any) ([]graph.Record, error) {
	userID, err := graph.UserID(actx)
	if err != nil {
		return nil, err
	}
	f.reads = append(f.reads, scanCall{userID: userID, cypher: cypher, params: params})
	if f.readFn == nil {
		return []graph.Record{}, nil
	}
	return f.readFn(cypher, params)
}

func hit(id, name, text string, nameMiss int64) map[string]any {
	return map[string]any{"id": id, "name": name, "text": text, "nameMiss": nameMiss}
}

func TestGraphScanScopesEveryQuery(t *testing.T) {
	fr := &fakeReader{}
	gs := NewGraphScan(fr)

	if _, _, err := gs.Search(Query{Text: "Dragon", UserID: "usr_alice"}); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(fr.reads) != 5 {
		t.Fatalf("reads = %d, want one per label", len(fr.reads))
	}
	for _, call := range fr.reads {
		if call.userID != "usr_alice" {
			t.Errorf("query ran as %q, want usr_alice", call.userID)
		}
		if !strings.Contains(call.cypher, "{user_id: $userId}") {
			t.Errorf("unscoped scan query: %s", call.cypher)
		}
		if call.params["term"] != "dragon" {
			t.Errorf("term = %v, want lowercased dragon", call.params["term"])
		}
	}
}

func TestGraphScanWithoutUserRefuses(t *testing.T) {
	fr := &fakeReader{}
	gs := NewGraphScan(fr)

	if _, _, err := gs.Search(Query{Text: "dragon"}); err == nil {
		t.Fatal("unscoped search did not fail")
	}
	if len(fr.reads) != 0 {
		t.Errorf("reads = %d, want 0", len(fr.reads))
	}
}

func TestGraphScanBlankTermShortCircuits(t *testing.T) {
	fr := &fakeReader{}
	gs := NewGraphScan(fr)

	results, total, err := gs.Search(Query{Text: "   ", UserID: "usr_alice"})
	if err != nil || total != 0 || len(results) != 0 {
		t.Fatalf("blank search = %v, %d, %v", results, total, err)
	}
	if len(fr.reads) != 0 {
		t.Errorf("reads = %d, want 0", len(fr.reads))
	}
}

func TestGraphScanFilterTypeLimitsLabels(t *testing.T) {
	fr := &fakeReader{}
	gs := NewGraphScan(fr)

	if _, _, err := gs.Search(Query{Text: "x", UserID: "usr_alice", FilterType: "Note"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(fr.reads) != 1 {
		t.Fatalf("reads = %d, want 1", len(fr.reads))
	}
	if !strings.Contains(fr.reads[0].cypher, ":Note") {
		t.Errorf("query targets wrong label: %s", fr.reads[0].cypher)
	}
}

func TestGraphScanRanksNameMatchesFirst(t *testing.T) {
	fr := &fakeReader{readFn: func(cypher string, params map[string]any) ([]graph.Record, error) {
		if !strings.Contains(cypher, ":Character") {
			return []graph.Record{}, nil
		}
		return []graph.Record{
			hit("chr_1", "Arn", "met a zed once", 1),
			hit("chr_2", "Zed", "", 0),
		}, nil
	}}
	gs := NewGraphScan(fr)

	results, total, err := gs.Search(Query{Text: "zed", UserID: "usr_alice"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if results[0].ID != "chr_2" || results[1].ID != "chr_1" {
		t.Fatalf("name match did not rank first: %+v", results)
	}
	if results[0].Type != "Character" {
		t.Errorf("type = %q, want Character", results[0].Type)
	}
	if want := "met a <mark>zed</mark> once"; results[1].Snippet != want {
		t.Errorf("snippet = %q, want %q", results[1].Snippet, want)
	}
}

func TestGraphScanPaginatesMergedHits(t *testing.T) {
	fr := &fakeReader{readFn: func(cypher string, params map[string]any) ([]graph.Record, error) {
		if !strings.Contains(cypher, ":Location") {
			return []graph.Record{}, nil
		}
		return []graph.Record{
			hit("loc_1", "Arbor", "", 0),
			hit("loc_2", "Bay", "", 0),
			hit("loc_3", "Cove", "", 0),
		}, nil
	}}
	gs := NewGraphScan(fr)

	results, total, err := gs.Search(Query{Text: "a", UserID: "usr_alice", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(results) != 1 || results[0].ID != "loc_3" {
		t.Fatalf("page = %+v, want just loc_3", results)
	}

	_, total, err = gs.Search(Query{Text: "a", UserID: "usr_alice", Limit: 2, Offset: 9})
	if err != nil || total != 3 {
		t.Fatalf("past-the-end page: total = %d, err = %v", total, err)
	}
}

func TestGraphScanPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	fr := &fakeReader{readFn: func(string, map[string]any) ([]graph.Record, error) {
		return nil, boom
	}}
	gs := NewGraphScan(fr)

	if _, _, err := gs.Search(Query{Text: "x", UserID: "usr_alice"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestLoadUserRecordsCoversEveryLabel(t *testing.T) {
	fr := &fakeReader{readFn: func(cypher string, params map[string]any) ([]graph.Record, error) {
		switch {
		case strings.Contains(cypher, ":Character"):
			return []graph.Record{hit("chr_1", "Hero", "the protagonist Kid", 0)}, nil
		case strings.Contains(cypher, ":Note"):
			return []graph.Record{hit("nte_1", "Worldbuilding", "  ", 0)}, nil
		default:
			return []graph.Record{}, nil
		}
	}}
	gs := NewGraphScan(fr)

	records, err := gs.LoadUserRecords(context.Background(), "usr_alice")
	if err != nil {
		t.Fatalf("LoadUserRecords: %v", err)
	}
	if len(fr.reads) != 5 {
		t.Fatalf("reads = %d, want one per label", len(fr.reads))
	}
	if len(records) != 2 {
		t.Fatalf("records = %+v, want 2", records)
	}
	if records[0].UserID != "usr_alice" || records[0].Type != "Character" {
		t.Errorf("record not stamped with owner and type: %+v", records[0])
	}
	if records[1].Text != "" {
		t.Errorf("note text = %q, want trimmed empty", records[1].Text)
	}
}

func TestExcerpt(t *testing.T) {
	if got := excerpt("a dragon sleeps", "dragon"); got != "a <mark>dragon</mark> sleeps" {
		t.Errorf("excerpt = %q", got)
	}

	long := strings.Repeat("x", 200) + "dragon" + strings.Repeat("y", 200)
	got := excerpt(long, "dragon")
	if !strings.HasPrefix(got, "…") || !strings.HasSuffix(got, "…") {
		t.Errorf("long excerpt not elided on both sides: %q", got)
	}
	if !strings.Contains(got, "<mark>dragon</mark>") {
		t.Errorf("long excerpt lost the match: %q", got)
	}

	if got := excerpt("no match here", "dragon"); got != "no match here" {
		t.Errorf("miss excerpt = %q", got)
	}
	if got := excerpt("   ", "dragon"); got != "" {
		t.Errorf("blank excerpt = %q", got)
	}
}
