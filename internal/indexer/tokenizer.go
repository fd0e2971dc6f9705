package indexer

import (
	"regexp"
	"strings"
)

// nonTokenRe strips everything except word characters, whitespace, and
// hyphens before splitting.
var nonTokenRe = regexp.MustCompile(`[^\w\s-]+`)

// Tokenize lowercases text, strips punctuation, splits on whitespace, and
// drops tokens shorter than minLength. Duplicates are kept so callers can
// count occurrences.
func Tokenize(text string, minLength int) []string {
	if minLength < 1 {
		minLength = 1
	}
	cleaned := nonTokenRe.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < minLength {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// QueryTokens tokenizes a search query, deduplicating terms while keeping
// first-seen order.
func QueryTokens(query string, minLength int) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, token := range Tokenize(query, minLength) {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}
	return terms
}

// countTokens aggregates token occurrence counts.
func countTokens(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return counts
}
