package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to the
// graph scan. meili may be nil when Meilisearch is not configured.
type Service struct {
	meili *Meili
	scan  *GraphScan
}

// NewService creates a search service.
func NewService(meili *Meili, scan *GraphScan) *Service {
	return &Service{meili: meili, scan: scan}
}

// Search tries Meilisearch if healthy, otherwise scans the graph.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to graph scan: %v", err)
	}

	results, total, err := s.scan.Search(q)
	if err != nil {
		log.Printf("search: graph scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexEntity indexes an entity (fire-and-forget to Meilisearch). The graph
// stays the source of truth, so a missed write costs a stale hit at worst.
func (s *Service) IndexEntity(e EntityRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexEntity(e); err != nil {
			log.Printf("search: index entity %s: %v", e.ID, err)
		}
	}()
}

// DeleteEntity removes an entity from the search index (fire-and-forget).
func (s *Service) DeleteEntity(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteEntity(id); err != nil {
			log.Printf("search: delete entity %s: %v", id, err)
		}
	}()
}

// DeleteUserEntities removes a user's whole document set (fire-and-forget),
// used by account erasure.
func (s *Service) DeleteUserEntities(userID string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteUserEntities(userID); err != nil {
			log.Printf("search: delete user entities %s: %v", userID, err)
		}
	}()
}

// ReindexUsers reads each user's entities from the graph and pushes them to
// Meilisearch. Called at startup so the index catches up with whatever
// changed while Meilisearch was away.
func (s *Service) ReindexUsers(ctx context.Context, userIDs []string) {
	if s.meili == nil || !s.meili.Healthy() || s.scan == nil {
		return
	}
	for _, userID := range userIDs {
		records, err := s.scan.LoadUserRecords(ctx, userID)
		if err != nil {
			log.Printf("search: reindex load for %s failed: %v", userID, err)
			continue
		}
		if len(records) == 0 {
			continue
		}
		if err := s.meili.IndexEntities(records); err != nil {
			log.Printf("search: reindex %s: %v", userID, err)
		}
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
