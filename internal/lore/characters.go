package lore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/grbellar/lore-tracker-sub000/internal/util"
)

// ErrInvalidKind rejects a relationship kind outside the closed set.
var ErrInvalidKind = errors.New("invalid relationship kind")

var relationKinds = map[string]struct{}{
	"ally":    {},
	"rival":   {},
	"family":  {},
	"mentor":  {},
	"romance": {},
	"other":   {},
}

// ParseRelationKind normalizes a relationship kind and reports whether it is
// one of the kinds the graph accepts.
func ParseRelationKind(s string) (string, bool) {
	kind := strings.ToLower(strings.TrimSpace(s))
	_, ok := relationKinds[kind]
	return kind, ok
}

type Character struct {
	ID        string
	Name      string
	Summary   string
	Aliases   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Relation is one edge of a character's relationship list.
type Relation struct {
	ID   string
	Name string
	Kind string
}

func characterFromProps(props map[string]any) Character {
	return Character{
		ID:        propString(props, "id"),
		Name:      propString(props, "name"),
		Summary:   propString(props, "summary"),
		Aliases:   propStrings(props, "aliases"),
		CreatedAt: propTime(props, "created_at"),
		UpdatedAt: propTime(props, "updated_at"),
	}
}

func (s *Store) CreateCharacter(ctx context.Context, name, summary string, aliases []string) (Character, error) {
	if aliases == nil {
		aliases = []string{}
	}
	rows, err := s.graph.WriteQuery(ctx, `
		CREATE (c:Character {
			id: $id, user_id: $userId, name: $name, summary: $summary,
			aliases: $aliases, created_at: datetime(), updated_at: datetime()
		})
		RETURN c`,
		map[string]any{"id": util.NewID("chr"), "name": name, "summary": summary, "aliases": aliases})
	if err != nil {
		return Character{}, err
	}
	props, err := first(rows)
	if err != nil {
		return Character{}, err
	}
	return characterFromProps(props), nil
}

func (s *Store) ListCharacters(ctx context.Context) ([]Character, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (c:Character {user_id: $userId})
		RETURN c
		ORDER BY toLower(c.name)`, nil)
	if err != nil {
		return nil, err
	}
	characters := make([]Character, 0, len(rows))
	for _, row := range rows {
		characters = append(characters, characterFromProps(recordMap(row)))
	}
	return characters, nil
}

func (s *Store) GetCharacter(ctx context.Context, id string) (Character, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (c:Character {id: $id, user_id: $userId})
		RETURN c`,
		map[string]any{"id": id})
	if err != nil {
		return Character{}, err
	}
	props, err := first(rows)
	if err != nil {
		return Character{}, err
	}
	return characterFromProps(props), nil
}

func (s *Store) UpdateCharacter(ctx context.Context, id, name, summary string, aliases []string) (Character, error) {
	if aliases == nil {
		aliases = []string{}
	}
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (c:Character {id: $id, user_id: $userId})
		SET c.name = $name, c.summary = $summary, c.aliases = $aliases, c.updated_at = datetime()
		RETURN c`,
		map[string]any{"id": id, "name": name, "summary": summary, "aliases": aliases})
	if err != nil {
		return Character{}, err
	}
	props, err := first(rows)
	if err != nil {
		return Character{}, err
	}
	return characterFromProps(props), nil
}

func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (c:Character {id: $id, user_id: $userId})
		DETACH DELETE c
		RETURN count(c) AS deleted`,
		map[string]any{"id": id})
	if err != nil {
		return err
	}
	if deletedCount(rows, "deleted") == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRelation links two of the user's characters with a kind, replacing the
// kind when the link already exists. Both endpoints must belong to the user.
func (s *Store) SetRelation(ctx context.Context, fromID, toID, kind string) error {
	kind, ok := ParseRelationKind(kind)
	if !ok {
		return ErrInvalidKind
	}
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (a:Character {id: $fromId, user_id: $userId})
		MATCH (b:Character {id: $toId, user_id: $userId})
		MERGE (a)-[r:RELATES_TO]->(b)
		SET r.kind = $kind
		RETURN r`,
		map[string]any{"fromId": fromID, "toId": toID, "kind": kind})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) RemoveRelation(ctx context.Context, fromID, toID string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (a:Character {id: $fromId, user_id: $userId})-[r:RELATES_TO]-(b:Character {id: $toId, user_id: $userId})
		DELETE r
		RETURN count(r) AS removed`,
		map[string]any{"fromId": fromID, "toId": toID})
	if err != nil {
		return err
	}
	if deletedCount(rows, "removed") == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListRelations(ctx context.Context, id string) ([]Relation, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (a:Character {id: $id, user_id: $userId})-[r:RELATES_TO]-(b:Character {user_id: $userId})
		RETURN b.id AS id, b.name AS name, r.kind AS kind
		ORDER BY toLower(b.name)`,
		map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	relations := make([]Relation, 0, len(rows))
	for _, row := range rows {
		fields := recordMap(row)
		relations = append(relations, Relation{
			ID:   propString(fields, "id"),
			Name: propString(fields, "name"),
			Kind: propString(fields, "kind"),
		})
	}
	return relations, nil
}
