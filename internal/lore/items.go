package lore

import (
	"context"
	"time"

	"github.com/grbellar/lore-tracker-sub000/internal/util"
)

type Item struct {
	ID        string
	Name      string
	Summary   string
	HolderID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func itemFromFields(fields map[string]any) Item {
	props := fieldMap(fields, "i")
	return Item{
		ID:        propString(props, "id"),
		Name:      propString(props, "name"),
		Summary:   propString(props, "summary"),
		HolderID:  propString(fields, "holderId"),
		CreatedAt: propTime(props, "created_at"),
		UpdatedAt: propTime(props, "updated_at"),
	}
}

func (s *Store) CreateItem(ctx context.Context, name, summary string) (Item, error) {
	rows, err := s.graph.WriteQuery(ctx, `
		CREATE (i:Item {
			id: $id, user_id: $userId, name: $name, summary: $summary,
			created_at: datetime(), updated_at: datetime()
		})
		RETURN i, null AS holderId`,
		map[string]any{"id": util.NewID("itm"), "name": name, "summary": summary})
	if err != nil {
		return Item{}, err
	}
	if len(rows) == 0 {
		return Item{}, ErrNotFound
	}
	return itemFromFields(recordMap(rows[0])), nil
}

func (s *Store) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (i:Item {user_id: $userId})
		OPTIONAL MATCH (i)-[:HELD_BY]->(c:Character {user_id: $userId})
		RETURN i, c.id AS holderId
		ORDER BY toLower(i.name)`, nil)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, itemFromFields(recordMap(row)))
	}
	return items, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (Item, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (i:Item {id: $id, user_id: $userId})
		OPTIONAL MATCH (i)-[:HELD_BY]->(c:Character {user_id: $userId})
		RETURN i, c.id AS holderId`,
		map[string]any{"id": id})
	if err != nil {
		return Item{}, err
	}
	if len(rows) == 0 {
		return Item{}, ErrNotFound
	}
	return itemFromFields(recordMap(rows[0])), nil
}

func (s *Store) UpdateItem(ctx context.Context, id, name, summary string) (Item, error) {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (i:Item {id: $id, user_id: $userId})
		SET i.name = $name, i.summary = $summary, i.updated_at = datetime()
		WITH i
		OPTIONAL MATCH (i)-[:HELD_BY]->(c:Character {user_id: $userId})
		RETURN i, c.id AS holderId`,
		map[string]any{"id": id, "name": name, "summary": summary})
	if err != nil {
		return Item{}, err
	}
	if len(rows) == 0 {
		return Item{}, ErrNotFound
	}
	return itemFromFields(recordMap(rows[0])), nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (i:Item {id: $id, user_id: $userId})
		DETACH DELETE i
		RETURN count(i) AS deleted`,
		map[string]any{"id": id})
	if err != nil {
		return err
	}
	if deletedCount(rows, "deleted") == 0 {
		return ErrNotFound
	}
	return nil
}

// SetHolder hands the item to a character, replacing any current holder.
func (s *Store) SetHolder(ctx context.Context, itemID, characterID string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (i:Item {id: $itemId, user_id: $userId})
		MATCH (c:Character {id: $characterId, user_id: $userId})
		OPTIONAL MATCH (i)-[old:HELD_BY]->(:Character)
		DELETE old
		MERGE (i)-[:HELD_BY]->(c)
		SET i.updated_at = datetime()
		RETURN i`,
		map[string]any{"itemId": itemID, "characterId": characterID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ClearHolder(ctx context.Context, itemID string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (i:Item {id: $itemId, user_id: $userId})
		OPTIONAL MATCH (i)-[old:HELD_BY]->(:Character)
		DELETE old
		SET i.updated_at = datetime()
		RETURN i`,
		map[string]any{"itemId": itemID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}
