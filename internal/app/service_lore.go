package app

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/grbellar/lore-tracker-sub000/internal/export"
	"github.com/grbellar/lore-tracker-sub000/internal/gitrepo"
	"github.com/grbellar/lore-tracker-sub000/internal/graph"
	"github.com/grbellar/lore-tracker-sub000/internal/lore"
	"github.com/grbellar/lore-tracker-sub000/internal/search"
)

type CharacterInput struct {
	Name    string   `json:"name"`
	Summary string   `json:"summary"`
	Aliases []string `json:"aliases"`
}

type LocationInput struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

type ItemInput struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

type MomentInput struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	When    string `json:"when"`
}

type NoteInput struct {
	Title string          `json:"title"`
	Doc   json.RawMessage `json:"doc"`
}

type NoteContentInput struct {
	Doc json.RawMessage `json:"doc"`
}

type RelationInput struct {
	Kind string `json:"kind"`
}

var errMediaUnavailable = domainError(http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE", "Media storage not configured", nil)

// indexEntity pushes one entity into the search index under the user's scope.
func (s *Service) indexEntity(userID string, label graph.Label, id, name, text string) {
	s.search.IndexEntity(search.EntityRecord{
		ID:     id,
		UserID: userID,
		Type:   string(label),
		Name:   name,
		Text:   strings.TrimSpace(text),
	})
}

// Search runs a scoped lore search. An unknown type filter is rejected
// before it reaches the index.
func (s *Service) Search(session Session, text, filterType string, limit, offset int) (search.Response, error) {
	if filterType != "" {
		label, ok := graph.ParseLabel(filterType)
		if !ok {
			return search.Response{}, validationError("type must be one of Character, Location, Item, Moment, Note")
		}
		filterType = string(label)
	}
	return s.search.Search(search.Query{
		Text:       text,
		UserID:     session.UserID,
		FilterType: filterType,
		Limit:      limit,
		Offset:     offset,
	}), nil
}

// Characters

func (s *Service) CreateCharacter(ctx context.Context, session Session, input CharacterInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	character, err := s.lore.CreateCharacter(ctx, name, input.Summary, input.Aliases)
	if err != nil {
		return nil, err
	}
	s.indexEntity(session.UserID, graph.LabelCharacter, character.ID, character.Name, character.Summary+" "+strings.Join(character.Aliases, " "))
	return map[string]any{"character": characterPayload(character)}, nil
}

func (s *Service) ListCharacters(ctx context.Context) (map[string]any, error) {
	characters, err := s.lore.ListCharacters(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(characters))
	for _, c := range characters {
		items = append(items, characterPayload(c))
	}
	return map[string]any{"characters": items}, nil
}

func (s *Service) GetCharacter(ctx context.Context, id string) (map[string]any, error) {
	character, err := s.lore.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	relations, err := s.lore.ListRelations(ctx, id)
	if err != nil {
		return nil, err
	}
	backlinks, err := s.lore.ListBacklinks(ctx, id)
	if err != nil {
		return nil, err
	}
	payload := characterPayload(character)
	payload["relations"] = relationPayloads(relations)
	payload["mentionedIn"] = backlinkPayloads(backlinks)
	return map[string]any{"character": payload}, nil
}

func (s *Service) UpdateCharacter(ctx context.Context, session Session, id string, input CharacterInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	character, err := s.lore.UpdateCharacter(ctx, id, name, input.Summary, input.Aliases)
	if err != nil {
		return nil, err
	}
	s.indexEntity(session.UserID, graph.LabelCharacter, character.ID, character.Name, character.Summary+" "+strings.Join(character.Aliases, " "))
	return map[string]any{"character": characterPayload(character)}, nil
}

func (s *Service) DeleteCharacter(ctx context.Context, session Session, id string) (map[string]any, error) {
	if err := s.lore.DeleteCharacter(ctx, id); err != nil {
		return nil, err
	}
	s.search.DeleteEntity(id)
	if s.media != nil {
		if err := s.media.Remove(ctx, session.UserID, string(graph.LabelCharacter), id); err != nil {
			log.Printf("character %s: remove image: %v", id, err)
		}
	}
	return map[string]any{"ok": true}, nil
}

func (s *Service) SetCharacterRelation(ctx context.Context, id, otherID string, input RelationInput) (map[string]any, error) {
	if err := s.lore.SetRelation(ctx, id, otherID, input.Kind); err != nil {
		return nil, err
	}
	relations, err := s.lore.ListRelations(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"relations": relationPayloads(relations)}, nil
}

func (s *Service) RemoveCharacterRelation(ctx context.Context, id, otherID string) (map[string]any, error) {
	if err := s.lore.RemoveRelation(ctx, id, otherID); err != nil {
		return nil, err
	}
	relations, err := s.lore.ListRelations(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"relations": relationPayloads(relations)}, nil
}

// Locations

func (s *Service) CreateLocation(ctx context.Context, session Session, input LocationInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	location, err := s.lore.CreateLocation(ctx, name, input.Summary)
	if err != nil {
		return nil, err
	}
	s.indexEntity(session.UserID, graph.LabelLocation, location.ID, location.Name, location.Summary)
	return map[string]any{"location": locationPayload(location)}, nil
}

func (s *Service) ListLocations(ctx context.Context) (map[string]any, error) {
	locations, err := s.lore.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(locations))
	for _, l := range locations {
		items = append(items, locationPayload(l))
	}
	return map[string]any{"locations": items}, nil
}

func (s *Service) GetLocation(ctx context.Context, id string) (map[string]any, error) {
	location, err := s.lore.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	backlinks, err := s.lore.ListBacklinks(ctx, id)
	if err != nil {
		return nil, err
	}
	payload := locationPayload(location)
	payload["mentionedIn"] = backlinkPayloads(backlinks)
	return map[string]any{"location": payload}, nil
}

func (s *Service) UpdateLocation(ctx context.Context, session Session, id string, input LocationInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	location, err := s.lore.UpdateLocation(ctx, id, name, input.Summary)
	if err != nil {
		return nil, err
	}
	s.indexEntity(session.UserID, graph.LabelLocation, location.ID, location.Name, location.Summary)
	return map[string]any{"location": locationPayload(location)}, nil
}

func (s *Service) DeleteLocation(ctx context.Context, session Session, id string) (map[string]any, error) {
	if err := s.lore.DeleteLocation(ctx, id); err != nil {
		return nil, err
	}
	s.search.DeleteEntity(id)
	if s.media != nil {
		if err := s.media.Remove(ctx, session.UserID, string(graph.LabelLocation), id); err != nil {
			log.Printf("location %s: remove image: %v", id, err)
		}
	}
	return map[string]any{"ok": true}, nil
}

// Items

func (s *Service) CreateItem(ctx context.Context, session Session, input ItemInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	item, err := s.lore.CreateItem(ctx, name, input.Summary)
	if err != nil {
		return nil, err
	}
	s.indexEntity(session.UserID, graph.LabelItem, item.ID, item.Name, item.Summary)
	return map[string]any{"item": itemPayload(item)}, nil
}

func (s *Service) ListItems(ctx context.Context) (map[string]any, error) {
	items, err := s.lore.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	payloads := make([]map[string]any, 0, len(items))
	for _, i := range items {
		payloads = append(payloads, itemPayload(i))
	}
	return map[string]any{"items": payloads}, nil
}

func (s *Service) GetItem(ctx context.Context, id string) (map[string]any, error) {
	item, err := s.lore.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	payload := itemPayload(item)
	if item.HolderID != "" {
		if holder, err := s.lore.GetCharacter(ctx, item.HolderID); err == nil {
			payload["holder"] = map[string]any{"id": holder.ID, "name": holder.Name}
		}
	}
	backlinks, err := s.lore.ListBacklinks(ctx, id)
	if err != nil {
		return nil, err
	}
	payload["mentionedIn"] = backlinkPayloads(backlinks)
	return map[string]any{"item": payload}, nil
}

func (s *Service) UpdateItem(ctx context.Context, session Session, id string, input ItemInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	item, err := s.lore.UpdateItem(ctx, id, name, input.Summary)
	if err != nil {
		return nil, err
	}
	s.indexEntity(session.UserID, graph.LabelItem, item.ID, item.Name, item.Summary)
	return map[string]any{"item": itemPayload(item)}, nil
}

func (s *Service) DeleteItem(ctx context.Context, id string) (map[string]any, error) {
	if err := s.lore.DeleteItem(ctx, id); err != nil {
		return nil, err
	}
	s.search.DeleteEntity(id)
	return map[string]any{"ok": true}, nil
}

func (s *Service) SetItemHolder(ctx context.Context, itemID, characterID string) (map[string]any, error) {
	if strings.TrimSpace(characterID) == "" {
		return nil, validationError("characterId is required")
	}
	if err := s.lore.SetHolder(ctx, itemID, characterID); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, itemID)
}

func (s *Service) ClearItemHolder(ctx context.Context, itemID string) (map[string]any, error) {
	if err := s.lore.ClearHolder(ctx, itemID); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, itemID)
}

// Moments

func (s *Service) CreateMoment(ctx context.Context, session Session, input MomentInput) (map[string]any, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	moment, err := s.lore.CreateMoment(ctx, title, input.Summary, input.When)
	if err != nil {
		return nil, err
	}
	s.indexEntity(session.UserID, graph.LabelMoment, moment.ID, moment.Title, moment.Summary+" "+moment.When)
	return map[string]any{"moment": momentPayload(moment)}, nil
}

func (s *Service) ListMoments(ctx context.Context) (map[string]any, error) {
	moments, err := s.lore.ListMoments(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"moments": momentPayloads(moments)}, nil
}

func (s *Service) GetMoment(ctx context.Context, id string) (map[string]any, error) {
	moment, err := s.lore.GetMoment(ctx, id)
	if err != nil {
		return nil, err
	}
	payload := momentPayload(moment)
	if moment.LocationID != "" {
		if location, err := s.lore.GetLocation(ctx, moment.LocationID); err == nil {
			payload["location"] = map[string]any{"id": location.ID, "name": location.Name}
		}
	}
	backlinks, err := s.lore.ListBacklinks(ctx, id)
	if err != nil {
		return nil, err
	}
	payload["mentionedIn"] = backlinkPayloads(backlinks)
	return map[string]any{"moment": payload}, nil
}

func (s *Service) UpdateMoment(ctx context.Context, session Session, id string, input MomentInput) (map[string]any, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	moment, err := s.lore.UpdateMoment(ctx, id, title, input.Summary, input.When)
	if err != nil {
		return nil, err
	}
	s.indexEntity(session.UserID, graph.LabelMoment, moment.ID, moment.Title, moment.Summary+" "+moment.When)
	return map[string]any{"moment": momentPayload(moment)}, nil
}

func (s *Service) DeleteMoment(ctx context.Context, id string) (map[string]any, error) {
	if err := s.lore.DeleteMoment(ctx, id); err != nil {
		return nil, err
	}
	s.search.DeleteEntity(id)
	return map[string]any{"ok": true}, nil
}

// MoveMoment reorders the timeline and returns it in the new order.
func (s *Service) MoveMoment(ctx context.Context, id, afterID string) (map[string]any, error) {
	if err := s.lore.MoveMoment(ctx, id, afterID); err != nil {
		return nil, err
	}
	return s.ListMoments(ctx)
}

func (s *Service) AddMomentCast(ctx context.Context, momentID, characterID string) (map[string]any, error) {
	if err := s.lore.AddCast(ctx, momentID, characterID); err != nil {
		return nil, err
	}
	return s.GetMoment(ctx, momentID)
}

func (s *Service) RemoveMomentCast(ctx context.Context, momentID, characterID string) (map[string]any, error) {
	if err := s.lore.RemoveCast(ctx, momentID, characterID); err != nil {
		return nil, err
	}
	return s.GetMoment(ctx, momentID)
}

func (s *Service) SetMomentLocation(ctx context.Context, momentID, locationID string) (map[string]any, error) {
	if strings.TrimSpace(locationID) == "" {
		return nil, validationError("locationId is required")
	}
	if err := s.lore.SetMomentLocation(ctx, momentID, locationID); err != nil {
		return nil, err
	}
	return s.GetMoment(ctx, momentID)
}

func (s *Service) ClearMomentLocation(ctx context.Context, momentID string) (map[string]any, error) {
	if err := s.lore.ClearMomentLocation(ctx, momentID); err != nil {
		return nil, err
	}
	return s.GetMoment(ctx, momentID)
}

// Notes

func (s *Service) CreateNote(ctx context.Context, session Session, input NoteInput) (map[string]any, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	note, err := s.lore.CreateNote(ctx, title)
	if err != nil {
		return nil, err
	}
	if err := s.notes.EnsureRepo(note.ID, gitrepo.Content{Title: note.Title, Doc: input.Doc}, session.UserName); err != nil {
		return nil, err
	}
	s.indexEntity(session.UserID, graph.LabelNote, note.ID, note.Title, plainTextOf(input.Doc))
	return map[string]any{"note": notePayload(note)}, nil
}

func (s *Service) ListNotes(ctx context.Context) (map[string]any, error) {
	notes, err := s.lore.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(notes))
	for _, n := range notes {
		items = append(items, notePayload(n))
	}
	return map[string]any{"notes": items}, nil
}

func (s *Service) GetNote(ctx context.Context, id string) (map[string]any, error) {
	note, err := s.lore.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	mentions, err := s.lore.ListMentions(ctx, id)
	if err != nil {
		return nil, err
	}
	payload := notePayload(note)
	payload["mentions"] = mentionPayloads(mentions)
	return map[string]any{"note": payload}, nil
}

func (s *Service) UpdateNote(ctx context.Context, session Session, id string, input NoteInput) (map[string]any, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	note, err := s.lore.UpdateNote(ctx, id, title)
	if err != nil {
		return nil, err
	}
	// Mirror the rename into the note's repository.
	var docText string
	if current, _, err := s.notes.HeadContent(note.ID); err == nil {
		docText = plainTextOf(current.Doc)
		if _, err := s.notes.SaveContent(note.ID, gitrepo.Content{Title: note.Title, Doc: current.Doc}, session.UserName, "Rename note"); err != nil {
			log.Printf("note %s: rename mirror: %v", note.ID, err)
		}
	}
	s.indexEntity(session.UserID, graph.LabelNote, note.ID, note.Title, docText)
	return map[string]any{"note": notePayload(note)}, nil
}

func (s *Service) DeleteNote(ctx context.Context, id string) (map[string]any, error) {
	if err := s.lore.DeleteNote(ctx, id); err != nil {
		return nil, err
	}
	if err := s.notes.RemoveRepo(id); err != nil {
		log.Printf("note %s: remove repo: %v", id, err)
	}
	s.search.DeleteEntity(id)
	return map[string]any{"ok": true}, nil
}

// NoteContent returns the head of the note's repository.
func (s *Service) NoteContent(ctx context.Context, id string) (map[string]any, error) {
	note, err := s.lore.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	content, commit, err := s.notes.HeadContent(note.ID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"noteId": note.ID,
		"title":  note.Title,
		"doc":    docValue(content.Doc),
		"commit": commit,
	}, nil
}

// SaveNoteContent commits a new body for the note. Saving an unchanged body
// is a no-op that answers with the current head commit.
func (s *Service) SaveNoteContent(ctx context.Context, session Session, id string, input NoteContentInput) (map[string]any, error) {
	note, err := s.lore.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	content := gitrepo.Content{Title: note.Title, Doc: input.Doc}
	if err := s.notes.EnsureRepo(note.ID, content, session.UserName); err != nil {
		return nil, err
	}
	commit, err := s.notes.SaveContent(note.ID, content, session.UserName, "Update note")
	if err != nil {
		return nil, err
	}
	if _, err := s.lore.UpdateNote(ctx, note.ID, note.Title); err != nil {
		log.Printf("note %s: bump updated_at: %v", note.ID, err)
	}
	s.indexEntity(session.UserID, graph.LabelNote, note.ID, note.Title, plainTextOf(input.Doc))
	return map[string]any{"noteId": note.ID, "commit": commit}, nil
}

func (s *Service) NoteHistory(ctx context.Context, id string, limit int) (map[string]any, error) {
	note, err := s.lore.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	commits, err := s.notes.History(note.ID, limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"noteId": note.ID, "commits": commits}, nil
}

// NoteContentAt returns the note body as of a commit.
func (s *Service) NoteContentAt(ctx context.Context, id, hash string) (map[string]any, error) {
	note, err := s.lore.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := s.notes.ContentAt(note.ID, hash)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"noteId": note.ID,
		"hash":   hash,
		"title":  content.Title,
		"doc":    docValue(content.Doc),
	}, nil
}

func (s *Service) AddNoteMention(ctx context.Context, noteID, label, targetID string) (map[string]any, error) {
	if err := s.lore.AddMention(ctx, noteID, label, targetID); err != nil {
		return nil, err
	}
	mentions, err := s.lore.ListMentions(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"mentions": mentionPayloads(mentions)}, nil
}

func (s *Service) RemoveNoteMention(ctx context.Context, noteID, targetID string) (map[string]any, error) {
	if err := s.lore.RemoveMention(ctx, noteID, targetID); err != nil {
		return nil, err
	}
	mentions, err := s.lore.ListMentions(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"mentions": mentionPayloads(mentions)}, nil
}

// Images

func (s *Service) UploadImage(ctx context.Context, session Session, label graph.Label, id, contentType string, size int64, body io.Reader) (map[string]any, error) {
	if s.media == nil {
		return nil, errMediaUnavailable
	}
	if !s.graph.VerifyOwnership(ctx, label, id) {
		return nil, lore.ErrNotFound
	}
	if err := s.media.Put(ctx, session.UserID, string(label), id, contentType, size, body); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}

func (s *Service) GetImage(ctx context.Context, session Session, label graph.Label, id string) (io.ReadCloser, string, int64, error) {
	if s.media == nil {
		return nil, "", 0, errMediaUnavailable
	}
	if !s.graph.VerifyOwnership(ctx, label, id) {
		return nil, "", 0, lore.ErrNotFound
	}
	return s.media.Get(ctx, session.UserID, string(label), id)
}

func (s *Service) DeleteImage(ctx context.Context, session Session, label graph.Label, id string) (map[string]any, error) {
	if s.media == nil {
		return nil, errMediaUnavailable
	}
	if !s.graph.VerifyOwnership(ctx, label, id) {
		return nil, lore.ErrNotFound
	}
	if err := s.media.Remove(ctx, session.UserID, string(label), id); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}

// Payload shaping

func characterPayload(c lore.Character) map[string]any {
	aliases := c.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	return map[string]any{
		"id":        c.ID,
		"name":      c.Name,
		"summary":   c.Summary,
		"aliases":   aliases,
		"createdAt": c.CreatedAt.Format(time.RFC3339),
		"updatedAt": c.UpdatedAt.Format(time.RFC3339),
	}
}

func locationPayload(l lore.Location) map[string]any {
	return map[string]any{
		"id":        l.ID,
		"name":      l.Name,
		"summary":   l.Summary,
		"createdAt": l.CreatedAt.Format(time.RFC3339),
		"updatedAt": l.UpdatedAt.Format(time.RFC3339),
	}
}

func itemPayload(i lore.Item) map[string]any {
	return map[string]any{
		"id":        i.ID,
		"name":      i.Name,
		"summary":   i.Summary,
		"holderId":  nilIfEmpty(i.HolderID),
		"createdAt": i.CreatedAt.Format(time.RFC3339),
		"updatedAt": i.UpdatedAt.Format(time.RFC3339),
	}
}

func momentPayload(m lore.Moment) map[string]any {
	cast := make([]map[string]any, 0, len(m.Cast))
	for _, ref := range m.Cast {
		cast = append(cast, map[string]any{"id": ref.ID, "name": ref.Name})
	}
	return map[string]any{
		"id":         m.ID,
		"title":      m.Title,
		"summary":    m.Summary,
		"when":       m.When,
		"locationId": nilIfEmpty(m.LocationID),
		"cast":       cast,
		"createdAt":  m.CreatedAt.Format(time.RFC3339),
		"updatedAt":  m.UpdatedAt.Format(time.RFC3339),
	}
}

func momentPayloads(moments []lore.Moment) []map[string]any {
	items := make([]map[string]any, 0, len(moments))
	for _, m := range moments {
		items = append(items, momentPayload(m))
	}
	return items
}

func notePayload(n lore.Note) map[string]any {
	return map[string]any{
		"id":        n.ID,
		"title":     n.Title,
		"createdAt": n.CreatedAt.Format(time.RFC3339),
		"updatedAt": n.UpdatedAt.Format(time.RFC3339),
	}
}

func relationPayloads(relations []lore.Relation) []map[string]any {
	items := make([]map[string]any, 0, len(relations))
	for _, rel := range relations {
		items = append(items, map[string]any{"id": rel.ID, "name": rel.Name, "kind": rel.Kind})
	}
	return items
}

func mentionPayloads(mentions []lore.Mention) []map[string]any {
	items := make([]map[string]any, 0, len(mentions))
	for _, m := range mentions {
		items = append(items, map[string]any{"label": m.Label, "id": m.ID, "name": m.Name})
	}
	return items
}

func backlinkPayloads(notes []lore.Note) []map[string]any {
	items := make([]map[string]any, 0, len(notes))
	for _, n := range notes {
		items = append(items, map[string]any{
			"id":        n.ID,
			"title":     n.Title,
			"updatedAt": n.UpdatedAt.Format(time.RFC3339),
		})
	}
	return items
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// docValue keeps an absent doc out of payloads as JSON null.
func docValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// plainTextOf flattens an editor doc for indexing.
func plainTextOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	return export.PlainText(doc)
}
