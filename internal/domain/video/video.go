// Package video defines the catalogued video record and its auxiliary
// metadata (chapter markers, transcriptions).
package video

import "strings"

// DefaultSpace is the bucket for records with a missing or empty space label.
const DefaultSpace = "Unassigned"

// Source tags distinguishing record provenance.
const (
	SourceCatalog = "catalog"
	SourceYouTube = "youtube"
)

// Record is one catalogued video. The merged collection it belongs to is
// built once at load/refresh time; readers treat records as immutable.
//
// ID uniqueness within a collection is the loader's responsibility; the
// catalog and search layers do not deduplicate by ID.
type Record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Space       string `json:"space_name"`
	Source      string `json:"source"`

	// ISO-8601 timestamps used only for sort order. An absent value sorts
	// as the lexicographically smallest string.
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`

	// Media locators are owned by the streaming/thumbnail collaborators
	// and passed through untouched.
	PlaybackURL  string `json:"playback_url,omitempty"`
	ThumbnailURL string `json:"thumbnail,omitempty"`
	EmbedURL     string `json:"embed_url,omitempty"`

	Duration int `json:"duration,omitempty"` // seconds
}

// Normalize substitutes safe defaults for missing fields: empty titles
// stay empty strings (never "null"), a blank space label becomes
// DefaultSpace. Returns the record by value, inputs are not mutated.
func Normalize(r Record) Record {
	r.Title = strings.TrimSpace(r.Title)
	if strings.TrimSpace(r.Space) == "" {
		r.Space = DefaultSpace
	}
	return r
}

// NormalizeAll applies Normalize to every record of a collection.
func NormalizeAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Normalize(r)
	}
	return out
}

// Timestop is a structural chapter marker within a video, searchable
// independently of title and description.
type Timestop struct {
	VideoID       string `json:"content_id"`
	Timestamp     int    `json:"timestamp"`
	TimeFormatted string `json:"time_formatted"`
	Label         string `json:"label"`
	Summary       string `json:"summary,omitempty"`
	Kind          string `json:"type,omitempty"`
}

// Transcription is the spoken-word text of a video.
type Transcription struct {
	VideoID   string  `json:"content_id"`
	Text      string  `json:"text"`
	Language  string  `json:"language,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	WordCount int     `json:"word_count,omitempty"`
}
