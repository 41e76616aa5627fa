package export

import (
	"context"
	"encoding/json"
	"html/template"
	"strings"
	"testing"
)

func TestProseMirrorToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{
			name:     "nil input",
			input:    nil,
			expected: "",
		},
		{
			name: "simple paragraph",
			input: map[string]interface{}{
				"type": "doc",
				"content": []interface{}{
					map[string]interface{}{
						"type": "paragraph",
						"content": []interface{}{
							map[string]interface{}{
								"type": "text",
								"text": "Hello world",
							},
						},
					},
				},
			},
			expected: "<p>Hello world</p>",
		},
		{
			name: "heading with levels",
			input: map[string]interface{}{
				"type": "doc",
				"content": []interface{}{
					map[string]interface{}{
						"type":  "heading",
						"attrs": map[string]interface{}{"level": 2.0},
						"content": []interface{}{
							map[string]interface{}{
								"type": "text",
								"text": "Section Title",
							},
						},
					},
				},
			},
			expected: "<h2>Section Title</h2>",
		},
		{
			name: "bold and italic text",
			input: map[string]interface{}{
				"type": "doc",
				"content": []interface{}{
					map[string]interface{}{
						"type": "paragraph",
						"content": []interface{}{
							map[string]interface{}{
								"type": "text",
								"text": "Bold and italic",
								"marks": []interface{}{
									map[string]interface{}{"type": "bold"},
									map[string]interface{}{"type": "italic"},
								},
							},
						},
					},
				},
			},
			expected: "<strong><em>Bold and italic</em></strong>",
		},
		{
			name: "bullet list",
			input: map[string]interface{}{
				"type": "doc",
				"content": []interface{}{
					map[string]interface{}{
						"type": "bulletList",
						"content": []interface{}{
							map[string]interface{}{
								"type": "listItem",
								"content": []interface{}{
									map[string]interface{}{
										"type": "paragraph",
										"content": []interface{}{
											map[string]interface{}{
												"type": "text",
												"text": "Item 1",
											},
										},
									},
								},
							},
						},
					},
				},
			},
			expected: "<ul>",
		},
		{
			name: "code block",
			input: map[string]interface{}{
				"type": "doc",
				"content": []interface{}{
					map[string]interface{}{
						"type": "codeBlock",
						"content": []interface{}{
							map[string]interface{}{
								"type": "text",
								"text": "func main() {}",
							},
						},
					},
				},
			},
			expected: "<pre><code>func main() {}</code></pre>",
		},
		{
			name: "entity mention",
			input: map[string]interface{}{
				"type": "doc",
				"content": []interface{}{
					map[string]interface{}{
						"type": "paragraph",
						"content": []interface{}{
							map[string]interface{}{
								"type": "entityMention",
								"attrs": map[string]interface{}{
									"id":    "chr_1",
									"label": "Character",
									"name":  "Hero",
								},
							},
						},
					},
				},
			},
			expected: `<span class="mention mention-character">Hero</span>`,
		},
		{
			name: "image",
			input: map[string]interface{}{
				"type": "doc",
				"content": []interface{}{
					map[string]interface{}{
						"type": "image",
						"attrs": map[string]interface{}{
							"src": "https://example.com/map.png",
							"alt": "World map",
						},
					},
				},
			},
			expected: `<img src="https://example.com/map.png" alt="World map">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ProseMirrorToHTML(tt.input)
			// Normalize whitespace for comparison
			result = strings.TrimSpace(result)
			expected := strings.TrimSpace(tt.expected)
			if !strings.Contains(result, expected) {
				t.Errorf("ProseMirrorToHTML() = %v, want %v", result, expected)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	doc := map[string]interface{}{
		"type": "doc",
		"content": []interface{}{
			map[string]interface{}{
				"type": "heading",
				"content": []interface{}{
					map[string]interface{}{"type": "text", "text": "The Fall"},
				},
			},
			map[string]interface{}{
				"type": "paragraph",
				"content": []interface{}{
					map[string]interface{}{"type": "text", "text": "It began when"},
					map[string]interface{}{
						"type":  "entityMention",
						"attrs": map[string]interface{}{"name": "Hero", "label": "Character"},
					},
					map[string]interface{}{"type": "text", "text": "left."},
				},
			},
		},
	}

	got := PlainText(doc)
	want := "The Fall It began when Hero left."
	if got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}

	if got := PlainText(nil); got != "" {
		t.Errorf("PlainText(nil) = %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello-World"},
		{"My Universe v1.2", "My-Universe-v12"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "export"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},       // Spaces encoded as %20, not +
		{"test+sign", "test%2Bsign"},           // + signs are encoded
		{"special<>", "special%3C%3E"},         // Special chars encoded
		{"normal-text.txt", "normal-text.txt"}, // Unreserved chars pass through
		{"", ""},                               // Empty string
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRenderBibleHTML(t *testing.T) {
	data := BibleData{
		Title: "Story Bible",
		Owner: "Avery",
		Characters: []CharacterInfo{
			{Name: "Hero", Summary: "the protagonist", Aliases: []string{"The Kid"},
				Relations: []RelationInfo{{Name: "Sage", Kind: "mentor"}}},
		},
		Locations: []LocationInfo{{Name: "Harbor Town"}},
		Items:     []ItemInfo{{Name: "Lantern", HolderName: "Hero"}},
		Timeline:  []MomentInfo{{Title: "The Fall", When: "Year 3", Cast: []string{"Hero", "Sage"}}},
		Notes: []BibleNote{
			{Title: "Backstory", BodyHTML: template.HTML("<p>It began at sea.</p>")},
		},
	}

	html, err := RenderBibleHTML(data)
	if err != nil {
		t.Fatalf("RenderBibleHTML() error = %v", err)
	}

	for _, want := range []string{
		"Story Bible", "Avery", "Hero", "The Kid", "Sage", "mentor",
		"Harbor Town", "Lantern", "The Fall", "Year 3", "Backstory",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}

	// Note bodies must land as raw HTML, not escaped text.
	if strings.Contains(html, "&lt;p&gt;") {
		t.Error("note body was escaped - should be rendered as raw HTML")
	}
	if !strings.Contains(html, "<p>It began at sea.</p>") {
		t.Error("HTML should contain the unescaped note body")
	}
}

// stubStore returns a small fixed universe.
type stubStore struct{}

func (stubStore) ListCharacters(context.Context) ([]CharacterInfo, error) {
	return []CharacterInfo{{ID: "chr_1", Name: "Hero", Summary: "the protagonist", Aliases: []string{"The Kid"}}}, nil
}

func (stubStore) CharacterRelations(_ context.Context, id string) ([]RelationInfo, error) {
	if id != "chr_1" {
		return nil, nil
	}
	return []RelationInfo{{Name: "Sage", Kind: "mentor"}}, nil
}

func (stubStore) ListLocations(context.Context) ([]LocationInfo, error) {
	return []LocationInfo{{ID: "loc_1", Name: "Harbor Town"}}, nil
}

func (stubStore) ListItems(context.Context) ([]ItemInfo, error) {
	return []ItemInfo{{ID: "itm_1", Name: "Lantern", HolderName: "Hero"}}, nil
}

func (stubStore) ListTimeline(context.Context) ([]MomentInfo, error) {
	return []MomentInfo{
		{ID: "mom_1", Title: "The Fall", When: "Year 3"},
		{ID: "mom_2", Title: "The Return"},
	}, nil
}

func (stubStore) ListNotes(context.Context) ([]NoteInfo, error) {
	return []NoteInfo{{ID: "nte_1", Title: "Backstory"}}, nil
}

func (stubStore) NoteContent(context.Context, string) (interface{}, error) {
	return map[string]interface{}{
		"type": "doc",
		"content": []interface{}{
			map[string]interface{}{
				"type": "paragraph",
				"content": []interface{}{
					map[string]interface{}{"type": "text", "text": "It began at sea."},
				},
			},
		},
	}, nil
}

func TestBibleHTMLFormat(t *testing.T) {
	svc := NewService(stubStore{})

	result, err := svc.Bible(context.Background(), Request{Format: FormatHTML, Owner: "Avery"})
	if err != nil {
		t.Fatalf("Bible() error = %v", err)
	}
	if result.Filename != "story-bible.html" {
		t.Errorf("filename = %q", result.Filename)
	}
	if !strings.HasPrefix(result.MimeType, "text/html") {
		t.Errorf("mime type = %q", result.MimeType)
	}

	html := string(result.Data)
	for _, want := range []string{"Hero", "Harbor Town", "Lantern", "The Fall", "The Return", "It began at sea."} {
		if !strings.Contains(html, want) {
			t.Errorf("bible missing %q", want)
		}
	}

	// Timeline keeps chain order.
	if strings.Index(html, "The Fall") > strings.Index(html, "The Return") {
		t.Error("timeline out of order")
	}
}

func TestBibleRejectsUnknownFormat(t *testing.T) {
	svc := NewService(stubStore{})
	if _, err := svc.Bible(context.Background(), Request{Format: Format("epub")}); err == nil {
		t.Fatal("unknown format accepted")
	}
}

func TestTakeout(t *testing.T) {
	svc := NewService(stubStore{})

	result, err := svc.Takeout(context.Background(), "Avery")
	if err != nil {
		t.Fatalf("Takeout() error = %v", err)
	}
	if result.MimeType != "application/json" {
		t.Errorf("mime type = %q", result.MimeType)
	}

	var universe Universe
	if err := json.Unmarshal(result.Data, &universe); err != nil {
		t.Fatalf("takeout is not valid JSON: %v", err)
	}
	if universe.Owner != "Avery" {
		t.Errorf("owner = %q", universe.Owner)
	}
	if len(universe.Characters) != 1 || universe.Characters[0].Relations[0].Kind != "mentor" {
		t.Errorf("characters = %+v", universe.Characters)
	}
	if len(universe.Notes) != 1 || universe.Notes[0].Doc == nil {
		t.Errorf("notes = %+v", universe.Notes)
	}
}

func TestParseFormat(t *testing.T) {
	for _, good := range []string{"pdf", "docx", "html"} {
		if _, ok := ParseFormat(good); !ok {
			t.Errorf("ParseFormat(%q) rejected", good)
		}
	}
	for _, bad := range []string{"", "epub", "PDF"} {
		if _, ok := ParseFormat(bad); ok {
			t.Errorf("ParseFormat(%q) accepted", bad)
		}
	}
}
