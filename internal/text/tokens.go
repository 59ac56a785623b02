package text

import (
	"regexp"
	"strings"
)

var nonToken = regexp.MustCompile(`[^\p{L}\p{N}+#]+`)

const minTokenLength = 3

// Tokenize lowercases the input, strips punctuation and splits on whitespace.
// Tokens shorter than three characters are dropped.
func Tokenize(s string) []string {
	var tokens []string
	for _, t := range nonToken.Split(strings.ToLower(s), -1) {
		if len([]rune(t)) >= minTokenLength {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// TokenSet returns the tokens of s as a set.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokenize(s) {
		set[t] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b| for two token sets.
// Two empty sets are considered identical.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// OverlapRatio returns the fraction of needles whose token set shares at
// least one token with the haystack token set.
func OverlapRatio(needles []string, haystack map[string]struct{}) float64 {
	if len(needles) == 0 {
		return 0
	}

	hits := 0
	for _, needle := range needles {
		for t := range TokenSet(needle) {
			if _, ok := haystack[t]; ok {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(needles))
}

// Equal reports whether two token sets contain the same tokens.
func Equal(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for t := range a {
		if _, ok := b[t]; !ok {
			return false
		}
	}
	return true
}
