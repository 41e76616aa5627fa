package lore

import (
	"context"
	"time"

	"github.com/grbellar/lore-tracker-sub000/internal/util"
)

// Moment is one beat on the user's timeline. Moments form a single chain
// linked by NEXT edges; List returns them in chain order.
type Moment struct {
	ID         string
	Title      string
	Summary    string
	When       string
	LocationID string
	Cast       []Ref
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func momentFromFields(fields map[string]any) Moment {
	props := fieldMap(fields, "m")
	return Moment{
		ID:         propString(props, "id"),
		Title:      propString(props, "title"),
		Summary:    propString(props, "summary"),
		When:       propString(props, "when"),
		LocationID: propString(fields, "locationId"),
		Cast:       refsFrom(fields["cast"]),
		CreatedAt:  propTime(props, "created_at"),
		UpdatedAt:  propTime(props, "updated_at"),
	}
}

// CreateMoment appends a new moment at the tail of the timeline.
func (s *Store) CreateMoment(ctx context.Context, title, summary, when string) (Moment, error) {
	rows, err := s.graph.WriteQuery(ctx, `
		CREATE (m:Moment {
			id: $id, user_id: $userId, title: $title, summary: $summary,
			when: $when, created_at: datetime(), updated_at: datetime()
		})
		WITH m
		OPTIONAL MATCH (tail:Moment {user_id: $userId})
		WHERE tail.id <> m.id AND NOT (tail)-[:NEXT]->(:Moment)
		FOREACH (t IN CASE WHEN tail IS NULL THEN [] ELSE [tail] END | CREATE (t)-[:NEXT]->(m))
		RETURN m, null AS locationId, [] AS cast`,
		map[string]any{"id": util.NewID("mom"), "title": title, "summary": summary, "when": when})
	if err != nil {
		return Moment{}, err
	}
	if len(rows) == 0 {
		return Moment{}, ErrNotFound
	}
	return momentFromFields(recordMap(rows[0])), nil
}

// ListMoments walks the NEXT chain from its head and returns moments in
// timeline order. Cast lists are left empty; Get loads them.
func (s *Store) ListMoments(ctx context.Context) ([]Moment, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (first:Moment {user_id: $userId})
		WHERE NOT ((:Moment {user_id: $userId})-[:NEXT]->(first))
		MATCH path = (first)-[:NEXT*0..]->(m:Moment)
		WITH m, length(path) AS pos
		OPTIONAL MATCH (m)-[:OCCURS_AT]->(l:Location {user_id: $userId})
		RETURN m, l.id AS locationId, pos
		ORDER BY pos`, nil)
	if err != nil {
		return nil, err
	}
	moments := make([]Moment, 0, len(rows))
	for _, row := range rows {
		moments = append(moments, momentFromFields(recordMap(row)))
	}
	return moments, nil
}

func (s *Store) GetMoment(ctx context.Context, id string) (Moment, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (m:Moment {id: $id, user_id: $userId})
		OPTIONAL MATCH (m)-[:OCCURS_AT]->(l:Location {user_id: $userId})
		OPTIONAL MATCH (c:Character {user_id: $userId})-[:APPEARS_IN]->(m)
		RETURN m, l.id AS locationId,
			[x IN collect(DISTINCT c) | {id: x.id, name: x.name}] AS cast`,
		map[string]any{"id": id})
	if err != nil {
		return Moment{}, err
	}
	if len(rows) == 0 {
		return Moment{}, ErrNotFound
	}
	return momentFromFields(recordMap(rows[0])), nil
}

func (s *Store) UpdateMoment(ctx context.Context, id, title, summary, when string) (Moment, error) {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (m:Moment {id: $id, user_id: $userId})
		SET m.title = $title, m.summary = $summary, m.when = $when, m.updated_at = datetime()
		WITH m
		OPTIONAL MATCH (m)-[:OCCURS_AT]->(l:Location {user_id: $userId})
		OPTIONAL MATCH (c:Character {user_id: $userId})-[:APPEARS_IN]->(m)
		RETURN m, l.id AS locationId,
			[x IN collect(DISTINCT c) | {id: x.id, name: x.name}] AS cast`,
		map[string]any{"id": id, "title": title, "summary": summary, "when": when})
	if err != nil {
		return Moment{}, err
	}
	if len(rows) == 0 {
		return Moment{}, ErrNotFound
	}
	return momentFromFields(recordMap(rows[0])), nil
}

// DeleteMoment removes a moment and reconnects its chain neighbors.
func (s *Store) DeleteMoment(ctx context.Context, id string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (m:Moment {id: $id, user_id: $userId})
		OPTIONAL MATCH (p:Moment)-[:NEXT]->(m)
		OPTIONAL MATCH (m)-[:NEXT]->(n:Moment)
		FOREACH (x IN CASE WHEN p IS NULL OR n IS NULL THEN [] ELSE [1] END | CREATE (p)-[:NEXT]->(n))
		DETACH DELETE m
		RETURN count(m) AS deleted`,
		map[string]any{"id": id})
	if err != nil {
		return err
	}
	if deletedCount(rows, "deleted") == 0 {
		return ErrNotFound
	}
	return nil
}

// MoveMoment reorders the timeline so that the moment follows afterID, or
// becomes the head when afterID is empty. The reorder is two writes; a
// concurrent reorder can interleave between them.
func (s *Store) MoveMoment(ctx context.Context, id, afterID string) error {
	if id == afterID {
		return nil
	}
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (m:Moment {id: $id, user_id: $userId})
		OPTIONAL MATCH (p:Moment)-[pn:NEXT]->(m)
		OPTIONAL MATCH (m)-[mn:NEXT]->(n:Moment)
		DELETE pn, mn
		FOREACH (x IN CASE WHEN p IS NULL OR n IS NULL THEN [] ELSE [1] END | CREATE (p)-[:NEXT]->(n))
		RETURN m.id AS id`,
		map[string]any{"id": id})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}

	if afterID == "" {
		_, err = s.graph.WriteQuery(ctx, `
			MATCH (m:Moment {id: $id, user_id: $userId})
			OPTIONAL MATCH (first:Moment {user_id: $userId})
			WHERE first.id <> m.id AND NOT ((:Moment {user_id: $userId})-[:NEXT]->(first))
			FOREACH (x IN CASE WHEN first IS NULL THEN [] ELSE [1] END | CREATE (m)-[:NEXT]->(first))
			RETURN m.id AS id`,
			map[string]any{"id": id})
		return err
	}

	rows, err = s.graph.WriteQuery(ctx, `
		MATCH (m:Moment {id: $id, user_id: $userId})
		MATCH (a:Moment {id: $afterId, user_id: $userId})
		OPTIONAL MATCH (a)-[an:NEXT]->(n:Moment)
		DELETE an
		CREATE (a)-[:NEXT]->(m)
		FOREACH (x IN CASE WHEN n IS NULL THEN [] ELSE [1] END | CREATE (m)-[:NEXT]->(n))
		RETURN m.id AS id`,
		map[string]any{"id": id, "afterId": afterID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AddCast(ctx context.Context, momentID, characterID string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (m:Moment {id: $momentId, user_id: $userId})
		MATCH (c:Character {id: $characterId, user_id: $userId})
		MERGE (c)-[:APPEARS_IN]->(m)
		RETURN c.id AS id`,
		map[string]any{"momentId": momentID, "characterId": characterID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) RemoveCast(ctx context.Context, momentID, characterID string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (c:Character {id: $characterId, user_id: $userId})-[r:APPEARS_IN]->(m:Moment {id: $momentId, user_id: $userId})
		DELETE r
		RETURN count(r) AS removed`,
		map[string]any{"momentId": momentID, "characterId": characterID})
	if err != nil {
		return err
	}
	if deletedCount(rows, "removed") == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMomentLocation pins the moment to a location, replacing any current one.
func (s *Store) SetMomentLocation(ctx context.Context, momentID, locationID string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (m:Moment {id: $momentId, user_id: $userId})
		MATCH (l:Location {id: $locationId, user_id: $userId})
		OPTIONAL MATCH (m)-[old:OCCURS_AT]->(:Location)
		DELETE old
		MERGE (m)-[:OCCURS_AT]->(l)
		SET m.updated_at = datetime()
		RETURN m`,
		map[string]any{"momentId": momentID, "locationId": locationID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ClearMomentLocation(ctx context.Context, momentID string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (m:Moment {id: $momentId, user_id: $userId})
		OPTIONAL MATCH (m)-[old:OCCURS_AT]->(:Location)
		DELETE old
		SET m.updated_at = datetime()
		RETURN m`,
		map[string]any{"momentId": momentID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}
