package lore

import (
	"context"
	"time"

	"github.com/grbellar/lore-tracker-sub000/internal/util"
)

type Location struct {
	ID        string
	Name      string
	Summary   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func locationFromProps(props map[string]any) Location {
	return Location{
		ID:        propString(props, "id"),
		Name:      propString(props, "name"),
		Summary:   propString(props, "summary"),
		CreatedAt: propTime(props, "created_at"),
		UpdatedAt: propTime(props, "updated_at"),
	}
}

func (s *Store) CreateLocation(ctx context.Context, name, summary string) (Location, error) {
	rows, err := s.graph.WriteQuery(ctx, `
		CREATE (l:Location {
			id: $id, user_id: $userId, name: $name, summary: $summary,
			created_at: datetime(), updated_at: datetime()
		})
		RETURN l`,
		map[string]any{"id": util.NewID("loc"), "name": name, "summary": summary})
	if err != nil {
		return Location{}, err
	}
	props, err := first(rows)
	if err != nil {
		return Location{}, err
	}
	return locationFromProps(props), nil
}

func (s *Store) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (l:Location {user_id: $userId})
		RETURN l
		ORDER BY toLower(l.name)`, nil)
	if err != nil {
		return nil, err
	}
	locations := make([]Location, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, locationFromProps(recordMap(row)))
	}
	return locations, nil
}

func (s *Store) GetLocation(ctx context.Context, id string) (Location, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (l:Location {id: $id, user_id: $userId})
		RETURN l`,
		map[string]any{"id": id})
	if err != nil {
		return Location{}, err
	}
	props, err := first(rows)
	if err != nil {
		return Location{}, err
	}
	return locationFromProps(props), nil
}

func (s *Store) UpdateLocation(ctx context.Context, id, name, summary string) (Location, error) {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (l:Location {id: $id, user_id: $userId})
		SET l.name = $name, l.summary = $summary, l.updated_at = datetime()
		RETURN l`,
		map[string]any{"id": id, "name": name, "summary": summary})
	if err != nil {
		return Location{}, err
	}
	props, err := first(rows)
	if err != nil {
		return Location{}, err
	}
	return locationFromProps(props), nil
}

func (s *Store) DeleteLocation(ctx context.Context, id string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (l:Location {id: $id, user_id: $userId})
		DETACH DELETE l
		RETURN count(l) AS deleted`,
		map[string]any{"id": id})
	if err != nil {
		return err
	}
	if deletedCount(rows, "deleted") == 0 {
		return ErrNotFound
	}
	return nil
}
