package videolib

import (
	"github.com/staycurrentmd/videolib/internal/catalog/spaces"
	"github.com/staycurrentmd/videolib/internal/domain/search"
	"github.com/staycurrentmd/videolib/internal/domain/video"
)

// Video is one catalogued video.
type Video struct {
	ID          string
	Title       string
	Description string
	Space       string
	Source      string

	CreatedAt string
	UpdatedAt string

	PlaybackURL  string
	ThumbnailURL string
	EmbedURL     string

	Duration int // seconds
}

// Timestop is a chapter marker within a video.
type Timestop struct {
	VideoID       string
	Timestamp     int // seconds from start
	TimeFormatted string
	Label         string
	Summary       string
	Kind          string
}

// Transcription is the spoken-word text of a video.
type Transcription struct {
	VideoID   string
	Text      string
	Language  string
	Duration  float64
	WordCount int
}

// SearchHit is one ranked search result.
type SearchHit struct {
	Video     Video
	Score     float64
	MatchType string

	// RelevantTimestops are the chapter markers mentioning the query term.
	RelevantTimestops []Timestop
}

// SearchPage is one page of ranked search results.
type SearchPage struct {
	Hits       []SearchHit
	Page       int
	PerPage    int
	Total      int
	TotalPages int

	SearchTerm string
	Engine     string

	// TimestopMatches counts videos whose chapter markers matched the
	// term, including videos the primary result set already contains.
	TimestopMatches int
}

// SpaceSummary describes one space of the catalog.
type SpaceSummary struct {
	Name                   string
	VideoCount             int
	VideosWithDescriptions int
}

// SpacePage is one page of a space's videos.
type SpacePage struct {
	Space      string
	Videos     []Video
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

func fromRecord(r video.Record) Video {
	return Video{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Space:        r.Space,
		Source:       r.Source,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		PlaybackURL:  r.PlaybackURL,
		ThumbnailURL: r.ThumbnailURL,
		EmbedURL:     r.EmbedURL,
		Duration:     r.Duration,
	}
}

func fromRecords(records []video.Record) []Video {
	out := make([]Video, len(records))
	for i, r := range records {
		out[i] = fromRecord(r)
	}
	return out
}

func fromTimestop(ts video.Timestop) Timestop {
	return Timestop{
		VideoID:       ts.VideoID,
		Timestamp:     ts.Timestamp,
		TimeFormatted: ts.TimeFormatted,
		Label:         ts.Label,
		Summary:       ts.Summary,
		Kind:          ts.Kind,
	}
}

func fromTimestops(stops []video.Timestop) []Timestop {
	if len(stops) == 0 {
		return nil
	}
	out := make([]Timestop, len(stops))
	for i, ts := range stops {
		out[i] = fromTimestop(ts)
	}
	return out
}

func fromTranscription(tr video.Transcription) Transcription {
	return Transcription{
		VideoID:   tr.VideoID,
		Text:      tr.Text,
		Language:  tr.Language,
		Duration:  tr.Duration,
		WordCount: tr.WordCount,
	}
}

func fromSearchPage(p search.Page) SearchPage {
	hits := make([]SearchHit, len(p.Hits))
	for i, h := range p.Hits {
		hits[i] = SearchHit{
			Video:             fromRecord(h.Video),
			Score:             h.Score,
			MatchType:         string(h.MatchType),
			RelevantTimestops: fromTimestops(h.RelevantTimestops),
		}
	}
	return SearchPage{
		Hits:            hits,
		Page:            p.Page,
		PerPage:         p.PerPage,
		Total:           p.Total,
		TotalPages:      p.TotalPages,
		SearchTerm:      p.SearchTerm,
		Engine:          p.Engine,
		TimestopMatches: p.TimestopMatches,
	}
}

func fromSummaries(sums []spaces.Summary) []SpaceSummary {
	out := make([]SpaceSummary, len(sums))
	for i, s := range sums {
		out[i] = SpaceSummary(s)
	}
	return out
}

func fromPageResult(p spaces.PageResult) SpacePage {
	return SpacePage{
		Space:      p.Space,
		Videos:     fromRecords(p.Videos),
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}
