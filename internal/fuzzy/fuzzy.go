// Package fuzzy implements the edit-distance similarity scores used to verify
// model-quoted excerpts against source text. Scores are integers on a 0–100
// scale, computed over Unicode code points.
package fuzzy

import (
	"math"

	"github.com/pmezard/go-difflib/difflib"
)

// perfect is the ratio above which a partial alignment counts as an exact hit.
const perfect = 0.995

// Ratio returns the normalized indel similarity of a and b:
// 100 * 2*LCS(a, b) / (len(a) + len(b)), rounded half to even.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	return round(ratio(ra, rb))
}

// PartialRatio scores how well the shorter string aligns as an approximate
// substring of the longer one. Every matching block between the two proposes
// an alignment of the shorter string against a same-length window of the
// longer string; the best window ratio wins.
func PartialRatio(a, b string) int {
	if a == b {
		return 100
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	shorter, longer := ra, rb
	if len(ra) > len(rb) {
		shorter, longer = rb, ra
	}

	matcher := difflib.NewMatcherWithJunk(runeStrings(shorter), runeStrings(longer), false, nil)
	best := 0.0
	for _, block := range matcher.GetMatchingBlocks() {
		start := block.B - block.A
		if start < 0 {
			start = 0
		}
		end := start + len(shorter)
		if end > len(longer) {
			end = len(longer)
		}
		r := ratio(shorter, longer[start:end])
		if r > perfect {
			return 100
		}
		if r > best {
			best = r
		}
	}
	return round(best)
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(lcs(a, b)) / float64(total)
}

// lcs returns the length of the longest common subsequence of a and b.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func runeStrings(rs []rune) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

func round(r float64) int {
	return int(math.RoundToEven(100 * r))
}
