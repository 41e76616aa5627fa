package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/grbellar/lore-tracker-sub000/internal/graph"
)

// graphReader is the slice of the graph layer the scan uses.
type graphReader interface {
	ReadQueryAs(ctx context.Context, actx *graph.AuthContext, cypher string, params map[string]any) ([]graph.Record, error)
}

// GraphScan implements Searcher as a fallback by scanning the user's own
// nodes with case-insensitive CONTAINS matching. Every statement goes
// through the scoped graph layer, so the scan is user-bounded by
// construction.
type GraphScan struct {
	graph graphReader
}

// NewGraphScan creates a graph-backed searcher.
func NewGraphScan(g graphReader) *GraphScan {
	return &GraphScan{graph: g}
}

// Healthy always returns true: if Neo4j is down, the whole app is down.
func (g *GraphScan) Healthy() bool {
	return true
}

// scanCap bounds how many rows one label contributes, keeping the fallback
// cheap on large universes. Totals above the cap read as the cap.
const scanCap = 500

const snippetRadius = 60

// scanTarget describes how one label is matched: which property names it,
// which carries its prose, and whether an alias list exists.
type scanTarget struct {
	label    graph.Label
	nameProp string
	textProp string
	aliases  bool
}

var scanTargets = []scanTarget{
	{label: graph.LabelCharacter, nameProp: "name", textProp: "summary", aliases: true},
	{label: graph.LabelLocation, nameProp: "name", textProp: "summary"},
	{label: graph.LabelItem, nameProp: "name", textProp: "summary"},
	{label: graph.LabelMoment, nameProp: "title", textProp: "summary"},
	{label: graph.LabelNote, nameProp: "title"},
}

// textExpr is the Cypher expression for the target's searchable prose.
// Aliases fold in so they match the same way the index's text field does.
func (t scanTarget) textExpr() string {
	expr := "''"
	if t.textProp != "" {
		expr = fmt.Sprintf("coalesce(n.%s, '')", t.textProp)
	}
	if t.aliases {
		expr += " + reduce(acc = '', a IN coalesce(n.aliases, []) | acc + ' ' + a)"
	}
	return expr
}

// Labels and property names come from the closed table above, never from
// callers, so interpolating them is safe.
func (t scanTarget) matchQuery() string {
	return fmt.Sprintf(`
		MATCH (n:%s {user_id: $userId})
		WHERE toLower(n.%s) CONTAINS $term OR toLower(%s) CONTAINS $term
		RETURN n.id AS id, n.%s AS name, %s AS text,
			CASE WHEN toLower(n.%s) CONTAINS $term THEN 0 ELSE 1 END AS nameMiss
		LIMIT %d`,
		t.label, t.nameProp, t.textExpr(), t.nameProp, t.textExpr(), t.nameProp, scanCap)
}

func (t scanTarget) loadQuery() string {
	return fmt.Sprintf(`
		MATCH (n:%s {user_id: $userId})
		RETURN n.id AS id, n.%s AS name, %s AS text`,
		t.label, t.nameProp, t.textExpr())
}

// Search scans each requested label and merges the hits, name matches ahead
// of prose matches.
func (g *GraphScan) Search(q Query) ([]Result, int, error) {
	term := strings.ToLower(strings.TrimSpace(q.Text))
	if term == "" {
		return nil, 0, nil
	}
	if q.UserID == "" {
		return nil, 0, fmt.Errorf("search query without a user scope")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	ctx := context.Background()
	actx := &graph.AuthContext{User: &graph.AuthUser{ID: q.UserID}}

	type ranked struct {
		res      Result
		nameMiss bool
	}
	var hits []ranked
	for _, target := range scanTargets {
		if q.FilterType != "" && q.FilterType != string(target.label) {
			continue
		}
		rows, err := g.graph.ReadQueryAs(ctx, actx, target.matchQuery(), map[string]any{"term": term})
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", target.label, err)
		}
		for _, row := range rows {
			fields, ok := row.(map[string]any)
			if !ok {
				continue
			}
			id, _ := fields["id"].(string)
			name, _ := fields["name"].(string)
			text, _ := fields["text"].(string)
			nameMiss, _ := fields["nameMiss"].(int64)
			hits = append(hits, ranked{
				res: Result{
					Type:    string(target.label),
					ID:      id,
					Name:    name,
					Snippet: excerpt(text, term),
				},
				nameMiss: nameMiss != 0,
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].nameMiss != hits[j].nameMiss {
			return !hits[i].nameMiss
		}
		return strings.ToLower(hits[i].res.Name) < strings.ToLower(hits[j].res.Name)
	})

	total := len(hits)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	results := make([]Result, 0, end-offset)
	for _, h := range hits[offset:end] {
		results = append(results, h.res)
	}
	return results, total, nil
}

// LoadUserRecords returns every entity a user owns in index form, for bulk
// reindexing into Meilisearch.
func (g *GraphScan) LoadUserRecords(ctx context.Context, userID string) ([]EntityRecord, error) {
	actx := &graph.AuthContext{User: &graph.AuthUser{ID: userID}}
	records := make([]EntityRecord, 0)
	for _, target := range scanTargets {
		rows, err := g.graph.ReadQueryAs(ctx, actx, target.loadQuery(), nil)
		if err != nil {
			return nil, fmt.Errorf("load %s records: %w", target.label, err)
		}
		for _, row := range rows {
			fields, ok := row.(map[string]any)
			if !ok {
				continue
			}
			id, _ := fields["id"].(string)
			name, _ := fields["name"].(string)
			text, _ := fields["text"].(string)
			records = append(records, EntityRecord{
				ID:     id,
				UserID: userID,
				Type:   string(target.label),
				Name:   name,
				Text:   strings.TrimSpace(text),
			})
		}
	}
	return records, nil
}

// excerpt trims the prose to a window around the first match and wraps the
// match in the tags Meilisearch highlights with, so both backends hand the
// client the same snippet shape. term must already be lowercased.
func excerpt(text, term string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	at := strings.Index(strings.ToLower(text), term)
	// Lowercasing can shift byte offsets for a few scripts; fall back to a
	// plain clip whenever the located range does not fit the original.
	if at < 0 || at+len(term) > len(text) {
		return clip(text, 2*snippetRadius)
	}

	start := at - snippetRadius
	if start < 0 {
		start = 0
	}
	end := at + len(term) + snippetRadius
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("…")
	}
	b.WriteString(text[start:at])
	b.WriteString("<mark>")
	b.WriteString(text[at : at+len(term)])
	b.WriteString("</mark>")
	b.WriteString(text[at+len(term) : end])
	if end < len(text) {
		b.WriteString("…")
	}
	return b.String()
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
