package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

// SafeHTML is a template function that marks a string as safe HTML
func SafeHTML(s interface{}) template.HTML {
	switch v := s.(type) {
	case string:
		return template.HTML(v)
	case template.HTML:
		return v
	default:
		return template.HTML("")
	}
}

//go:embed templates/*.html
var templateFS embed.FS

var bibleTemplate *template.Template

func init() {
	// Custom template functions
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"join":  strings.Join,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"safeHTML": SafeHTML,
	}

	templateContent, err := templateFS.ReadFile("templates/bible.html")
	if err != nil {
		// Fallback to built-in template if file not found
		bibleTemplate = template.Must(template.New("bible").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	bibleTemplate = template.Must(template.New("bible").Funcs(funcMap).Parse(string(templateContent)))
}

// BibleData holds everything the story bible template renders.
type BibleData struct {
	Title      string
	Owner      string
	ExportedAt time.Time
	Characters []CharacterInfo
	Locations  []LocationInfo
	Items      []ItemInfo
	Timeline   []MomentInfo
	Notes      []BibleNote
}

// BibleNote is a note with its body already rendered to HTML.
type BibleNote struct {
	Title    string
	BodyHTML template.HTML
}

// RenderBibleHTML renders the story bible template with provided data
func RenderBibleHTML(data BibleData) (string, error) {
	var buf bytes.Buffer
	if err := bibleTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Georgia, serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .entry { margin: 1rem 0; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">{{.Owner}} | {{.ExportedAt.Format "Jan 2, 2006"}}</div>
  {{if .Characters}}<h2>Characters</h2>
  {{range .Characters}}<div class="entry"><strong>{{.Name}}</strong> {{.Summary}}</div>{{end}}{{end}}
  {{if .Timeline}}<h2>Timeline</h2>
  {{range .Timeline}}<div class="entry"><strong>{{.Title}}</strong> {{.Summary}}</div>{{end}}{{end}}
  {{if .Notes}}<h2>Notes</h2>
  {{range .Notes}}<div class="entry"><h3>{{.Title}}</h3>{{.BodyHTML | safeHTML}}</div>{{end}}{{end}}
</body>
</html>`
