// Package fuzzy ranks an in-memory video collection against a free-text
// query with graded tolerance for typos and partial matches. It is the
// default search path and the fallback when the indexed-search service is
// unreachable.
package fuzzy

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/staycurrentmd/videolib/internal/catalog/similarity"
	"github.com/staycurrentmd/videolib/internal/domain/search"
	"github.com/staycurrentmd/videolib/internal/domain/video"
)

// DefaultThreshold is the base acceptance threshold for whole-string
// fuzzy comparisons. Short queries relax it, long queries tighten it.
const DefaultThreshold = 0.5

// Score ceilings per ranking stage. Layering exact > phrase > fuzzy >
// partial keeps a near-exact title match ahead of any loose description
// hit while still surfacing typo-tolerant results.
const (
	phraseTitleCap  = 0.95
	fuzzyTitleScale = 0.85
	fuzzyWordScale  = 0.75
	exactDescScore  = 0.65
	phraseDescScore = 0.55
	fuzzyDescScale  = 0.45
	partialScale    = 0.35

	descGate    = 0.6 // description stages run only while score is below this
	partialGate = 0.4

	descPhraseTokens  = 50  // tokens of description considered for phrase match
	descFuzzyRunes    = 300 // leading description runes for whole-string fuzzy
	descPartialTokens = 30  // tokens of description considered for partial match
)

// Engine is a stateless ranker; one instance serves all queries.
type Engine struct {
	baseThreshold float64
}

// New creates an engine with the given base threshold; values <= 0 fall
// back to DefaultThreshold.
func New(baseThreshold float64) *Engine {
	if baseThreshold <= 0 {
		baseThreshold = DefaultThreshold
	}
	return &Engine{baseThreshold: baseThreshold}
}

// Search scores every video against the query and returns hits ordered by
// descending score, ties broken by descending CreatedAt. Videos scoring
// zero are omitted.
func (e *Engine) Search(videos []video.Record, query string) []search.Hit {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	queryWords := significantWords(q, 2)
	threshold := e.effectiveThreshold(q)

	var hits []search.Hit
	for _, v := range videos {
		score, matchType := scoreVideo(v, q, queryWords, threshold)
		if score > 0 {
			hits = append(hits, search.Hit{Video: v, Score: score, MatchType: matchType})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Video.CreatedAt > hits[j].Video.CreatedAt
	})
	return hits
}

// effectiveThreshold adapts the base threshold to query length: short
// queries get more lenient matching, long queries stricter.
func (e *Engine) effectiveThreshold(q string) float64 {
	switch n := utf8.RuneCountInString(q); {
	case n < 4:
		return 0.4
	case n >= 10:
		return 0.6
	default:
		return e.baseThreshold
	}
}

func scoreVideo(v video.Record, q string, queryWords []string, threshold float64) (float64, search.MatchType) {
	titleLower := strings.ToLower(v.Title)
	descLower := strings.ToLower(StripHTML(v.Description))
	titleWords := strings.Fields(titleLower)

	score := 0.0
	var matchType search.MatchType

	switch {
	// 1. Exact substring in title short-circuits the other title stages.
	case strings.Contains(titleLower, q):
		score = 1.0
		matchType = search.MatchExactTitle

	// 2. Every query word fuzzily matches some title word.
	case len(queryWords) > 0 && allWordsMatch(queryWords, titleWords):
		sum := 0.0
		for _, qw := range queryWords {
			sum += bestWordScore(qw, titleWords)
		}
		avg := sum / float64(len(queryWords))
		if s := min(avg*phraseTitleCap, 1.0); s > score {
			score = s
		}
		matchType = search.MatchPhraseTitle

	// 3. Whole-string fuzzy comparison against the title, plus a check of
	// the query against each significant title word.
	case utf8.RuneCountInString(q) >= 3:
		if ratio := similarity.Ratio(q, titleLower); ratio >= threshold {
			score = ratio * fuzzyTitleScale
			matchType = search.MatchFuzzyTitle
		}
		for _, tw := range titleWords {
			if utf8.RuneCountInString(tw) < 3 {
				continue
			}
			if ok, ws := wordMatch(q, tw); ok {
				if s := ws * fuzzyWordScale; s > score {
					score = s
				}
				matchType = search.MatchFuzzyWordTitle
				break
			}
		}
	}

	// 4. Description fallback, only while the title score is low.
	if score < descGate {
		descWords := strings.Fields(descLower)
		switch {
		case q != "" && strings.Contains(descLower, q):
			if exactDescScore > score {
				score = exactDescScore
			}
			matchType = search.MatchExactDescription
		case len(queryWords) > 0 && allWordsMatch(queryWords, headTokens(descWords, descPhraseTokens)):
			if phraseDescScore > score {
				score = phraseDescScore
			}
			matchType = search.MatchPhraseDesc
		case utf8.RuneCountInString(q) >= 3:
			sample := headRunes(descLower, descFuzzyRunes)
			if ratio := similarity.Ratio(q, sample); ratio >= threshold {
				if s := ratio * fuzzyDescScale; s > score {
					score = s
				}
				matchType = search.MatchFuzzyDesc
			}
		}
	}

	// 5. Partial fallback: the fraction of query words matching anywhere.
	if score < partialGate && len(queryWords) > 0 {
		descHead := headTokens(strings.Fields(descLower), descPartialTokens)
		matched := 0
		for _, qw := range queryWords {
			if anyWordMatches(qw, titleWords) || anyWordMatches(qw, descHead) {
				matched++
			}
		}
		if matched > 0 {
			if s := float64(matched) / float64(len(queryWords)) * partialScale; s > score {
				score = s
			}
			matchType = search.MatchPartial
		}
	}

	return score, matchType
}

// wordMatch reports whether a query word matches a candidate word with
// typo tolerance, and the quality of the match. Words shorter than three
// runes compare by substring containment only.
func wordMatch(queryWord, candidate string) (bool, float64) {
	if utf8.RuneCountInString(queryWord) < 3 || utf8.RuneCountInString(candidate) < 3 {
		if strings.Contains(candidate, queryWord) {
			return true, 1.0
		}
		return false, 0.0
	}

	if queryWord == candidate {
		return true, 1.0
	}
	if strings.Contains(candidate, queryWord) || strings.Contains(queryWord, candidate) {
		return true, 0.9
	}

	ratio := similarity.Ratio(queryWord, candidate)
	threshold := 0.5
	if utf8.RuneCountInString(queryWord) >= 5 {
		threshold = 0.6
	}
	if ratio >= threshold {
		return true, ratio
	}
	return false, 0.0
}

func allWordsMatch(queryWords, candidates []string) bool {
	for _, qw := range queryWords {
		if !anyWordMatches(qw, candidates) {
			return false
		}
	}
	return true
}

func anyWordMatches(queryWord string, candidates []string) bool {
	for _, c := range candidates {
		if ok, _ := wordMatch(queryWord, c); ok {
			return true
		}
	}
	return false
}

func bestWordScore(queryWord string, candidates []string) float64 {
	best := 0.0
	for _, c := range candidates {
		if _, ws := wordMatch(queryWord, c); ws > best {
			best = ws
		}
	}
	return best
}

// significantWords splits q on whitespace keeping words of at least
// minLen runes.
func significantWords(q string, minLen int) []string {
	var out []string
	for _, w := range strings.Fields(q) {
		if utf8.RuneCountInString(w) >= minLen {
			out = append(out, w)
		}
	}
	return out
}

func headTokens(tokens []string, n int) []string {
	if len(tokens) > n {
		return tokens[:n]
	}
	return tokens
}

func headRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
