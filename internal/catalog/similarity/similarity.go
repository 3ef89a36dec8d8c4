// Package similarity provides the normalized string comparison primitive
// used for cross-source title matching and fuzzy search ranking.
package similarity

import "strings"

// Ratio returns a similarity ratio in [0, 1] between two strings using the
// Ratcliff/Obershelp longest-matching-block technique over case-folded,
// whitespace-trimmed inputs. Identical strings score 1.0; either side
// empty scores 0.0. The function is deterministic and symmetric.
func Ratio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	ra := []rune(a)
	rb := []rune(b)
	// The matching-block recursion partitions differently depending on
	// argument order, so fix a canonical order: shorter string first,
	// lexicographic on equal length. Symmetry is an invariant here.
	if len(rb) < len(ra) || (len(rb) == len(ra) && b < a) {
		ra, rb = rb, ra
	}
	matched := matchingTotal(ra, rb)
	return 2.0 * float64(matched) / float64(len(ra)+len(rb))
}

// matchingTotal sums the sizes of all matching blocks: find the longest
// common block, then recurse on the pieces to its left and right.
func matchingTotal(a, b []rune) int {
	i, j, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingTotal(a[:i], b[:j])
	total += matchingTotal(a[i+size:], b[j+size:])
	return total
}

// longestMatch finds the leftmost longest common block between a and b,
// returning its start in a, start in b, and length.
func longestMatch(a, b []rune) (bestA, bestB, bestSize int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	positions := make(map[rune][]int, len(b))
	for j, r := range b {
		positions[r] = append(positions[r], j)
	}

	// lengths[j] = length of the common suffix ending at a[i-1] / b[j]
	lengths := make(map[int]int)
	for i, r := range a {
		next := make(map[int]int, len(positions[r]))
		for _, j := range positions[r] {
			k := lengths[j-1] + 1
			next[j] = k
			if k > bestSize {
				bestA = i - k + 1
				bestB = j - k + 1
				bestSize = k
			}
		}
		lengths = next
	}
	return bestA, bestB, bestSize
}

// brand decorations appended by the external channel; stripped so the same
// video titled differently across sources compares equal.
var brandSuffixes = []string{
	" - staycurrentmd",
	" | staycurrentmd",
}

// NormalizeTitle lower-cases and trims a title and strips known brand
// suffixes. Empty input yields an empty string.
func NormalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, suffix := range brandSuffixes {
		t = strings.ReplaceAll(t, suffix, "")
	}
	return strings.TrimSpace(t)
}
