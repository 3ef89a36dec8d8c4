// Package search defines search hits, match types, and the pagination
// envelope shared by the search backends and the HTTP surface.
package search

import "github.com/staycurrentmd/videolib/internal/domain/video"

// MatchType tags which ranking stage produced a hit's score.
type MatchType string

// Stage tags emitted by the local fuzzy engine.
const (
	MatchExactTitle       MatchType = "exact_title"
	MatchPhraseTitle      MatchType = "phrase_title"
	MatchFuzzyTitle       MatchType = "fuzzy_title"
	MatchFuzzyWordTitle   MatchType = "fuzzy_word_title"
	MatchExactDescription MatchType = "exact_description"
	MatchPhraseDesc       MatchType = "phrase_description"
	MatchFuzzyDesc        MatchType = "fuzzy_description"
	MatchPartial          MatchType = "partial"
)

// Orchestrator-level tags: primary-set hits are reported as metadata
// matches, auxiliary-store-only hits as timestop matches.
const (
	MatchMetadata MatchType = "metadata"
	MatchTimestop MatchType = "timestop"
)

// Engine names reported in the response for observability.
const (
	EngineElasticsearch = "elasticsearch"
	EngineFuzzy         = "fuzzy"
)

// TimestopScore is the fixed score assigned to hits discoverable only
// through chapter markers or transcripts.
const TimestopScore = 0.5

// Hit is a scored search result. Ordering of a hit slice is part of the
// contract: descending score, ties broken by descending CreatedAt.
type Hit struct {
	Video     video.Record `json:"video"`
	Score     float64      `json:"score"`
	MatchType MatchType    `json:"match_type"`

	// RelevantTimestops carries up to five chapter markers whose label or
	// summary contains the search term, for UI deep-linking.
	RelevantTimestops []video.Timestop `json:"relevant_timestops,omitempty"`
}

// Page is a paginated, merged result set.
type Page struct {
	Hits            []Hit  `json:"videos"`
	Page            int    `json:"page"`
	PerPage         int    `json:"per_page"`
	Total           int    `json:"total"`
	TotalPages      int    `json:"total_pages"`
	SearchTerm      string `json:"search_term,omitempty"`
	Engine          string `json:"search_engine,omitempty"`
	TimestopMatches int    `json:"timestop_matches"`
}

// EmptyPage returns a well-formed zero-result page for the given paging
// parameters. Used for empty queries and the no-data case.
func EmptyPage(page, perPage int) Page {
	return Page{Hits: []Hit{}, Page: page, PerPage: perPage}
}

// TotalPagesFor computes ceil(total / perPage) guarding perPage <= 0.
func TotalPagesFor(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
