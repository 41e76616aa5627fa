// Package search finds lore entities by name or text. Meilisearch is the
// primary backend; when it is down or not configured, a scoped scan of the
// user's graph answers instead, so search never goes fully dark.
package search

// Result is a single search hit returned to the caller.
type Result struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Snippet string `json:"snippet,omitempty"`
}

// Query describes a search request. UserID is mandatory: both backends
// refuse to run an unscoped query.
type Query struct {
	Text       string
	UserID     string
	FilterType string // entity label, empty = all kinds
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// EntityRecord is the document we index for one lore entity. Text carries
// whatever prose the entity has (summary, aliases, note body) flattened to a
// single searchable string.
type EntityRecord struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Text   string `json:"text"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexEntity(e EntityRecord) error
	IndexEntities(entities []EntityRecord) error
	DeleteEntity(id string) error
	DeleteUserEntities(userID string) error
}
