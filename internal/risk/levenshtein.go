package risk

import (
	"math"
	"unicode/utf8"
)

// Levenshtein returns the unit-cost edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Similarity scores how alike two domains look, from 0 (nothing shared) to 100 (identical).
func Similarity(root, candidate string) int {
	longest := max(utf8.RuneCountInString(root), utf8.RuneCountInString(candidate))
	if longest == 0 {
		return 100
	}
	dist := Levenshtein(root, candidate)
	score := int(math.Round((1 - float64(dist)/float64(longest)) * 100))
	return min(100, max(0, score))
}
