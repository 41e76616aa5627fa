package export

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"time"
)

// DataStore is the slice of the domain the exporter reads. The app layer
// implements it over the lore store and the note repositories; every call
// answers for the user in the ambient auth context.
type DataStore interface {
	ListCharacters(ctx context.Context) ([]CharacterInfo, error)
	CharacterRelations(ctx context.Context, id string) ([]RelationInfo, error)
	ListLocations(ctx context.Context) ([]LocationInfo, error)
	ListItems(ctx context.Context) ([]ItemInfo, error)
	ListTimeline(ctx context.Context) ([]MomentInfo, error)
	ListNotes(ctx context.Context) ([]NoteInfo, error)
	NoteContent(ctx context.Context, noteID string) (interface{}, error)
}

// Service gathers a universe and renders it.
type Service struct {
	store DataStore
}

// NewService creates an export service.
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Gather assembles the user's full universe.
func (s *Service) Gather(ctx context.Context, owner string) (Universe, error) {
	characters, err := s.store.ListCharacters(ctx)
	if err != nil {
		return Universe{}, fmt.Errorf("list characters: %w", err)
	}
	for i := range characters {
		relations, err := s.store.CharacterRelations(ctx, characters[i].ID)
		if err != nil {
			return Universe{}, fmt.Errorf("character relations: %w", err)
		}
		characters[i].Relations = relations
	}

	locations, err := s.store.ListLocations(ctx)
	if err != nil {
		return Universe{}, fmt.Errorf("list locations: %w", err)
	}
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return Universe{}, fmt.Errorf("list items: %w", err)
	}
	timeline, err := s.store.ListTimeline(ctx)
	if err != nil {
		return Universe{}, fmt.Errorf("list timeline: %w", err)
	}

	notes, err := s.store.ListNotes(ctx)
	if err != nil {
		return Universe{}, fmt.Errorf("list notes: %w", err)
	}
	for i := range notes {
		// A note whose repository is missing still exports its title.
		doc, err := s.store.NoteContent(ctx, notes[i].ID)
		if err != nil {
			continue
		}
		notes[i].Doc = doc
	}

	return Universe{
		Owner:      owner,
		ExportedAt: time.Now().UTC(),
		Characters: characters,
		Locations:  locations,
		Items:      items,
		Timeline:   timeline,
		Notes:      notes,
	}, nil
}

// Bible exports the story bible in the requested format.
func (s *Service) Bible(ctx context.Context, req Request) (*Result, error) {
	universe, err := s.Gather(ctx, req.Owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}

	data := BibleData{
		Title:      "Story Bible",
		Owner:      universe.Owner,
		ExportedAt: universe.ExportedAt,
		Characters: universe.Characters,
		Locations:  universe.Locations,
		Items:      universe.Items,
		Timeline:   universe.Timeline,
		Notes:      make([]BibleNote, 0, len(universe.Notes)),
	}
	for _, note := range universe.Notes {
		data.Notes = append(data.Notes, BibleNote{
			Title:    note.Title,
			BodyHTML: template.HTML(ProseMirrorToHTML(note.Doc)),
		})
	}

	html, err := RenderBibleHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, "story-bible")
	case FormatDOCX:
		return exportDOCX(html, "story-bible", data.Title)
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: "story-bible.html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

// Takeout exports the gathered universe as a JSON document.
func (s *Service) Takeout(ctx context.Context, owner string) (*Result, error) {
	universe, err := s.Gather(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}

	payload, err := json.MarshalIndent(universe, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal takeout: %w", err)
	}

	return &Result{
		Data:     append(payload, '\n'),
		Filename: "account-export.json",
		MimeType: "application/json",
	}, nil
}
