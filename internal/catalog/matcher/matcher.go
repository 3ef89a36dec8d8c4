// Package matcher reconciles two independently sourced video collections
// by title similarity, assigning primary-catalog space labels to matched
// secondary records and surfacing unmatched records from both sides.
package matcher

import (
	"github.com/staycurrentmd/videolib/internal/catalog/similarity"
	"github.com/staycurrentmd/videolib/internal/domain/video"
)

// DefaultThreshold is the score a best candidate must strictly exceed to
// count as a match. A score exactly at the threshold does NOT match.
const DefaultThreshold = 0.85

// Match records the winning primary candidate for one secondary record.
// Both original titles are kept for auditability.
type Match struct {
	PrimaryID      string
	Space          string
	Score          float64
	PrimaryTitle   string
	SecondaryTitle string
}

// MatchCollections pairs every secondary record with its best-scoring
// primary record. The result maps secondary ID to the winning match;
// secondary records whose best score does not strictly exceed threshold
// are returned in the second value.
//
// This is an all-pairs O(n*m) scan, acceptable for catalogs of hundreds
// to low thousands of records. A blocking prefilter can be added here
// without changing the contract.
//
// When several primary candidates tie on the best score, the one with the
// lexicographically smallest ID wins, so results are reproducible under
// any iteration order.
func MatchCollections(primary, secondary []video.Record, threshold float64) (map[string]Match, []video.Record) {
	matches := make(map[string]Match, len(secondary))
	var unmatched []video.Record

	normPrimary := make([]string, len(primary))
	for i, p := range primary {
		normPrimary[i] = similarity.NormalizeTitle(p.Title)
	}

	for _, sec := range secondary {
		secTitle := similarity.NormalizeTitle(sec.Title)

		var best *video.Record
		bestScore := 0.0
		for i := range primary {
			score := similarity.Ratio(secTitle, normPrimary[i])
			if score > bestScore {
				bestScore = score
				best = &primary[i]
			} else if best != nil && score == bestScore && primary[i].ID < best.ID {
				best = &primary[i]
			}
		}

		if best != nil && bestScore > threshold {
			matches[sec.ID] = Match{
				PrimaryID:      best.ID,
				Space:          best.Space,
				Score:          bestScore,
				PrimaryTitle:   best.Title,
				SecondaryTitle: sec.Title,
			}
		} else {
			unmatched = append(unmatched, sec)
		}
	}

	return matches, unmatched
}

// UnmatchedPrimary returns every primary record with no secondary
// counterpart above the threshold, the symmetric view of MatchCollections.
func UnmatchedPrimary(primary, secondary []video.Record, threshold float64) []video.Record {
	normSecondary := make([]string, len(secondary))
	for i, s := range secondary {
		normSecondary[i] = similarity.NormalizeTitle(s.Title)
	}

	var unmatched []video.Record
	for _, p := range primary {
		priTitle := similarity.NormalizeTitle(p.Title)

		found := false
		for i := range secondary {
			if similarity.Ratio(priTitle, normSecondary[i]) > threshold {
				found = true
				break
			}
		}
		if !found {
			unmatched = append(unmatched, p)
		}
	}
	return unmatched
}

// MergeCollections builds one superset with no information loss: every
// secondary record (with the matched primary's space label applied where a
// match exists) plus every primary record with no secondary counterpart.
// Unmatched secondary records keep their own space label so all content
// stays browsable.
func MergeCollections(primary, secondary []video.Record, threshold float64) []video.Record {
	matches, _ := MatchCollections(primary, secondary, threshold)

	merged := make([]video.Record, 0, len(secondary)+len(primary))
	for _, sec := range secondary {
		if m, ok := matches[sec.ID]; ok {
			sec.Space = m.Space
		}
		merged = append(merged, video.Normalize(sec))
	}
	for _, p := range UnmatchedPrimary(primary, secondary, threshold) {
		merged = append(merged, video.Normalize(p))
	}
	return merged
}
