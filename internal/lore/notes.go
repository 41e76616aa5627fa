package lore

import (
	"context"
	"fmt"
	"time"

	"github.com/grbellar/lore-tracker-sub000/internal/graph"
	"github.com/grbellar/lore-tracker-sub000/internal/util"
)

// Note is the graph side of a note: identity and title. The note body lives
// in the content store and is keyed by the note id.
type Note struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Mention is a link from a note to any lore node it references.
type Mention struct {
	Label string
	ID    string
	Name  string
}

func noteFromProps(props map[string]any) Note {
	return Note{
		ID:        propString(props, "id"),
		Title:     propString(props, "title"),
		CreatedAt: propTime(props, "created_at"),
		UpdatedAt: propTime(props, "updated_at"),
	}
}

func (s *Store) CreateNote(ctx context.Context, title string) (Note, error) {
	rows, err := s.graph.WriteQuery(ctx, `
		CREATE (n:Note {
			id: $id, user_id: $userId, title: $title,
			created_at: datetime(), updated_at: datetime()
		})
		RETURN n`,
		map[string]any{"id": util.NewID("nte"), "title": title})
	if err != nil {
		return Note{}, err
	}
	props, err := first(rows)
	if err != nil {
		return Note{}, err
	}
	return noteFromProps(props), nil
}

func (s *Store) ListNotes(ctx context.Context) ([]Note, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (n:Note {user_id: $userId})
		RETURN n
		ORDER BY n.updated_at DESC`, nil)
	if err != nil {
		return nil, err
	}
	notes := make([]Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, noteFromProps(recordMap(row)))
	}
	return notes, nil
}

func (s *Store) GetNote(ctx context.Context, id string) (Note, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (n:Note {id: $id, user_id: $userId})
		RETURN n`,
		map[string]any{"id": id})
	if err != nil {
		return Note{}, err
	}
	props, err := first(rows)
	if err != nil {
		return Note{}, err
	}
	return noteFromProps(props), nil
}

func (s *Store) UpdateNote(ctx context.Context, id, title string) (Note, error) {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (n:Note {id: $id, user_id: $userId})
		SET n.title = $title, n.updated_at = datetime()
		RETURN n`,
		map[string]any{"id": id, "title": title})
	if err != nil {
		return Note{}, err
	}
	props, err := first(rows)
	if err != nil {
		return Note{}, err
	}
	return noteFromProps(props), nil
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (n:Note {id: $id, user_id: $userId})
		DETACH DELETE n
		RETURN count(n) AS deleted`,
		map[string]any{"id": id})
	if err != nil {
		return err
	}
	if deletedCount(rows, "deleted") == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMention links a note to a lore node. The label must be one of the known
// node labels; anything else reports the target as missing.
func (s *Store) AddMention(ctx context.Context, noteID, label, targetID string) error {
	parsed, ok := graph.ParseLabel(label)
	if !ok {
		return ErrNotFound
	}
	rows, err := s.graph.WriteQuery(ctx, fmt.Sprintf(`
		MATCH (n:Note {id: $noteId, user_id: $userId})
		MATCH (t:%s {id: $targetId, user_id: $userId})
		MERGE (n)-[:MENTIONS]->(t)
		RETURN t.id AS id`, parsed),
		map[string]any{"noteId": noteID, "targetId": targetID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) RemoveMention(ctx context.Context, noteID, targetID string) error {
	rows, err := s.graph.WriteQuery(ctx, `
		MATCH (n:Note {id: $noteId, user_id: $userId})-[r:MENTIONS]->(t {id: $targetId, user_id: $userId})
		DELETE r
		RETURN count(r) AS removed`,
		map[string]any{"noteId": noteID, "targetId": targetID})
	if err != nil {
		return err
	}
	if deletedCount(rows, "removed") == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListMentions(ctx context.Context, noteID string) ([]Mention, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (n:Note {id: $noteId, user_id: $userId})-[:MENTIONS]->(t {user_id: $userId})
		RETURN labels(t)[0] AS label, t.id AS id, coalesce(t.name, t.title) AS name
		ORDER BY label, toLower(coalesce(t.name, t.title))`,
		map[string]any{"noteId": noteID})
	if err != nil {
		return nil, err
	}
	mentions := make([]Mention, 0, len(rows))
	for _, row := range rows {
		fields := recordMap(row)
		mentions = append(mentions, Mention{
			Label: propString(fields, "label"),
			ID:    propString(fields, "id"),
			Name:  propString(fields, "name"),
		})
	}
	return mentions, nil
}

// ListBacklinks returns the notes that mention a given lore node.
func (s *Store) ListBacklinks(ctx context.Context, targetID string) ([]Note, error) {
	rows, err := s.graph.ReadQuery(ctx, `
		MATCH (n:Note {user_id: $userId})-[:MENTIONS]->(t {id: $targetId, user_id: $userId})
		RETURN n
		ORDER BY n.updated_at DESC`,
		map[string]any{"targetId": targetID})
	if err != nil {
		return nil, err
	}
	notes := make([]Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, noteFromProps(recordMap(row)))
	}
	return notes, nil
}
