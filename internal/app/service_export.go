package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/grbellar/lore-tracker-sub000/internal/export"
)

// Takeout exports the caller's entire universe as JSON.
func (s *Service) Takeout(ctx context.Context, session Session) (*export.Result, error) {
	return s.export.Takeout(ctx, session.UserName)
}

// ExportBible renders the story bible in the requested format.
func (s *Service) ExportBible(ctx context.Context, session Session, format export.Format) (*export.Result, error) {
	return s.export.Bible(ctx, export.Request{Format: format, Owner: session.UserName})
}

// exportAdapter implements export.DataStore over the lore store and the note
// repositories. Every call reads for the user in the ambient auth context.
type exportAdapter struct {
	lore  loreStore
	notes noteRepo
}

func (a *exportAdapter) ListCharacters(ctx context.Context) ([]export.CharacterInfo, error) {
	characters, err := a.lore.ListCharacters(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]export.CharacterInfo, 0, len(characters))
	for _, c := range characters {
		infos = append(infos, export.CharacterInfo{
			ID:      c.ID,
			Name:    c.Name,
			Summary: c.Summary,
			Aliases: c.Aliases,
		})
	}
	return infos, nil
}

func (a *exportAdapter) CharacterRelations(ctx context.Context, id string) ([]export.RelationInfo, error) {
	relations, err := a.lore.ListRelations(ctx, id)
	if err != nil {
		return nil, err
	}
	infos := make([]export.RelationInfo, 0, len(relations))
	for _, rel := range relations {
		infos = append(infos, export.RelationInfo{Name: rel.Name, Kind: rel.Kind})
	}
	return infos, nil
}

func (a *exportAdapter) ListLocations(ctx context.Context) ([]export.LocationInfo, error) {
	locations, err := a.lore.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]export.LocationInfo, 0, len(locations))
	for _, l := range locations {
		infos = append(infos, export.LocationInfo{ID: l.ID, Name: l.Name, Summary: l.Summary})
	}
	return infos, nil
}

func (a *exportAdapter) ListItems(ctx context.Context) ([]export.ItemInfo, error) {
	items, err := a.lore.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	characters, err := a.lore.ListCharacters(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(characters))
	for _, c := range characters {
		names[c.ID] = c.Name
	}
	infos := make([]export.ItemInfo, 0, len(items))
	for _, i := range items {
		infos = append(infos, export.ItemInfo{
			ID:         i.ID,
			Name:       i.Name,
			Summary:    i.Summary,
			HolderName: names[i.HolderID],
		})
	}
	return infos, nil
}

func (a *exportAdapter) ListTimeline(ctx context.Context) ([]export.MomentInfo, error) {
	moments, err := a.lore.ListMoments(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := a.lore.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	locationNames := make(map[string]string, len(locations))
	for _, l := range locations {
		locationNames[l.ID] = l.Name
	}
	infos := make([]export.MomentInfo, 0, len(moments))
	for _, m := range moments {
		info := export.MomentInfo{
			ID:           m.ID,
			Title:        m.Title,
			Summary:      m.Summary,
			When:         m.When,
			LocationName: locationNames[m.LocationID],
		}
		// The list walk leaves cast empty; load it per moment. A moment
		// deleted mid-export keeps an empty cast.
		if full, err := a.lore.GetMoment(ctx, m.ID); err == nil {
			for _, ref := range full.Cast {
				info.Cast = append(info.Cast, ref.Name)
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (a *exportAdapter) ListNotes(ctx context.Context) ([]export.NoteInfo, error) {
	notes, err := a.lore.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]export.NoteInfo, 0, len(notes))
	for _, n := range notes {
		infos = append(infos, export.NoteInfo{ID: n.ID, Title: n.Title})
	}
	return infos, nil
}

func (a *exportAdapter) NoteContent(ctx context.Context, noteID string) (interface{}, error) {
	content, _, err := a.notes.HeadContent(noteID)
	if err != nil {
		return nil, err
	}
	if len(content.Doc) == 0 {
		return nil, nil
	}
	var doc interface{}
	if err := json.Unmarshal(content.Doc, &doc); err != nil {
		return nil, fmt.Errorf("decode note %s doc: %w", noteID, err)
	}
	return doc, nil
}
