package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/grbellar/lore-tracker-sub000/internal/graph"
)

func TestServiceAnswersFromScanWithoutMeili(t *testing.T) {
	fr := &fakeReader{readFn: func(cypher string, params map[string]any) ([]graph.Record, error) {
		if !strings.Contains(cypher, ":Item") {
			return []graph.Record{}, nil
		}
		return []graph.Record{hit("itm_1", "Sword", "a sharp sword", 0)}, nil
	}}
	svc := NewService(nil, NewGraphScan(fr))

	resp := svc.Search(Query{Text: "sword", UserID: "usr_alice"})
	if resp.Query != "sword" || resp.Total != 1 {
		t.Fatalf("response = %+v", resp)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "itm_1" {
		t.Fatalf("results = %+v", resp.Results)
	}
}

func TestServiceSearchErrorYieldsEmptyEnvelope(t *testing.T) {
	fr := &fakeReader{readFn: func(string, map[string]any) ([]graph.Record, error) {
		return nil, errors.New("boom")
	}}
	svc := NewService(nil, NewGraphScan(fr))

	resp := svc.Search(Query{Text: "x", UserID: "usr_alice"})
	if resp.Results == nil || len(resp.Results) != 0 || resp.Total != 0 {
		t.Fatalf("error response = %+v, want empty envelope", resp)
	}
}

func TestServiceIndexingWithoutMeiliIsNoOp(t *testing.T) {
	svc := NewService(nil, NewGraphScan(&fakeReader{}))

	svc.IndexEntity(EntityRecord{ID: "chr_1"})
	svc.DeleteEntity("chr_1")
	svc.DeleteUserEntities("usr_alice")
	svc.ReindexUsers(context.Background(), []string{"usr_alice"})
}
