// Package export renders a user's whole universe into a story bible (PDF,
// DOCX, or HTML) and into a JSON takeout for account export.
package export

import (
	"errors"
	"time"
)

// Format is the export output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
)

// ParseFormat maps a query-string value onto a known format.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatPDF, FormatDOCX, FormatHTML:
		return Format(s), true
	default:
		return "", false
	}
}

// Request describes a story bible export.
type Request struct {
	Format Format
	Owner  string // display name for the byline
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrContentUnavailable indicates universe content could not be loaded.
	ErrContentUnavailable = errors.New("export content unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)

// Universe is a user's gathered lore, the common shape behind the story
// bible and the JSON takeout.
type Universe struct {
	Owner      string          `json:"owner"`
	ExportedAt time.Time       `json:"exportedAt"`
	Characters []CharacterInfo `json:"characters"`
	Locations  []LocationInfo  `json:"locations"`
	Items      []ItemInfo      `json:"items"`
	Timeline   []MomentInfo    `json:"timeline"`
	Notes      []NoteInfo      `json:"notes"`
}

// CharacterInfo holds one character with its relationship edges.
type CharacterInfo struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Summary   string         `json:"summary,omitempty"`
	Aliases   []string       `json:"aliases,omitempty"`
	Relations []RelationInfo `json:"relations,omitempty"`
}

// RelationInfo is one edge of a character's relationship list.
type RelationInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// LocationInfo holds location metadata.
type LocationInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Summary string `json:"summary,omitempty"`
}

// ItemInfo holds item metadata with the holder resolved to a name.
type ItemInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Summary    string `json:"summary,omitempty"`
	HolderName string `json:"holderName,omitempty"`
}

// MomentInfo is one timeline beat in chain order.
type MomentInfo struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Summary      string   `json:"summary,omitempty"`
	When         string   `json:"when,omitempty"`
	LocationName string   `json:"locationName,omitempty"`
	Cast         []string `json:"cast,omitempty"`
}

// NoteInfo holds a note with its head content from the note's repository.
type NoteInfo struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Doc   interface{} `json:"doc,omitempty"` // rich-text editor JSON
}
