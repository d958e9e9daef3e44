// Package similarity provides the string-similarity primitives used by the
// matching engine: a character-bag cosine metric on the primary path and a
// Levenshtein edit distance as a secondary utility.
package similarity

import (
	"math"
	"regexp"
	"strings"
)

// Token patterns are compiled once at process start and never mutated.
var (
	alphaPattern = regexp.MustCompile(`\w`)
	wordPattern  = regexp.MustCompile(`\w+`)
)

// Tokenization selects the unit a string is broken into before counting
type Tokenization int

const (
	// TokenizeChars counts individual alphanumeric characters. This is the
	// metric the matching engine uses.
	TokenizeChars Tokenization = iota
	// TokenizeWords counts whole words. Available, unused by the engine.
	TokenizeWords
)

// Cosine returns the cosine similarity of the character-frequency vectors of
// a and b, in [0, 1]. Identical strings score 1.0, disjoint character sets
// score 0.0, and either input being empty scores 0.0 (zero norm). Case is
// folded before counting. The metric is a bag-of-characters comparison, not
// an edit distance: repeated characters contribute by count, position does
// not matter.
func Cosine(a, b string) float64 {
	return CosineTokens(a, b, TokenizeChars)
}

// CosineTokens is Cosine with an explicit tokenization unit.
func CosineTokens(a, b string, unit Tokenization) float64 {
	pattern := alphaPattern
	if unit == TokenizeWords {
		pattern = wordPattern
	}

	counts1 := tokenCounts(pattern, a)
	counts2 := tokenCounts(pattern, b)

	var dot int
	for token, n1 := range counts1 {
		if n2, ok := counts2[token]; ok {
			dot += n1 * n2
		}
	}

	denominator := math.Sqrt(float64(sumSquares(counts1))) * math.Sqrt(float64(sumSquares(counts2)))
	if denominator == 0 {
		return 0.0
	}
	return float64(dot) / denominator
}

// Initials returns the first character of each word in s, concatenated.
// "State College of Arts" -> "scoa". Used by the institution-affiliation
// heuristic as the fallback comparison key.
func Initials(s string, skip func(word string) bool) string {
	var b strings.Builder
	for _, word := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		if skip != nil && skip(word) {
			continue
		}
		b.WriteByte(word[0])
	}
	return b.String()
}

// Words returns the lowercased word tokens of s.
func Words(s string) []string {
	return wordPattern.FindAllString(strings.ToLower(s), -1)
}

func tokenCounts(pattern *regexp.Regexp, s string) map[string]int {
	counts := make(map[string]int)
	for _, token := range pattern.FindAllString(strings.ToLower(s), -1) {
		counts[token]++
	}
	return counts
}

func sumSquares(counts map[string]int) int {
	var sum int
	for _, n := range counts {
		sum += n * n
	}
	return sum
}
