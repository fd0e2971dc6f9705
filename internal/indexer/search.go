package indexer

import (
	"math"
	"sort"
	"strings"

	"github.com/restkit/restkit-mcp/internal/markdown"
)

// SearchResult is one ranked document with match context.
type SearchResult struct {
	Document *markdown.Document `json:"document"`
	Score    float64            `json:"score"`
	// Snippet is built from content sentences containing query terms.
	Snippet string `json:"snippet"`
	// MatchedHeadings are headings containing at least one query term.
	MatchedHeadings []HeadingMatch `json:"matched_headings,omitempty"`
	// MatchedExamples are up to three code examples containing a query term.
	MatchedExamples []ExampleMatch `json:"matched_examples,omitempty"`
}

// HeadingMatch tags a heading with its query-term hit count.
type HeadingMatch struct {
	Heading markdown.Heading `json:"heading"`
	Matches int              `json:"matches"`
}

// ExampleMatch tags a code example with its query-term hit count.
type ExampleMatch struct {
	Example markdown.CodeExample `json:"example"`
	Matches int                  `json:"matches"`
}

// maxMatchedExamples caps code examples attached to a search result.
const maxMatchedExamples = 3

// Search ranks indexed documents against the query. Scores sum per-term
// occurrence counts weighted by field boost, normalized by
// sqrt(wordCount+1) to avoid long-document bias. Only strictly positive
// scores survive; ties keep table insertion order. An empty token set or an
// unknown category yields an empty result, never an error.
func (ix *Indexer) Search(query, category string, limit int) []SearchResult {
	terms := QueryTokens(query, ix.cfg.MinTokenLength)
	if len(terms) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = ix.cfg.DefaultLimit
	}
	if ix.cfg.MaxResults > 0 && limit > ix.cfg.MaxResults {
		limit = ix.cfg.MaxResults
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	type scored struct {
		doc   *markdown.Document
		score float64
	}
	var candidates []scored

	for _, doc := range ix.table {
		if category != "" && doc.Category != category {
			continue
		}
		var score float64
		for _, term := range terms {
			fields, ok := ix.inverted[term][doc.ID]
			if !ok {
				continue
			}
			for field, count := range fields {
				score += float64(count) * ix.boost(field)
			}
		}
		if score <= 0 {
			continue
		}
		score /= math.Sqrt(float64(doc.WordCount) + 1)
		candidates = append(candidates, scored{doc: doc, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, SearchResult{
			Document:        c.doc,
			Score:           c.score,
			Snippet:         ix.snippet(c.doc, terms),
			MatchedHeadings: matchHeadings(c.doc, terms, ix.cfg.MinTokenLength),
			MatchedExamples: matchExamples(c.doc, terms, ix.cfg.MinTokenLength),
		})
	}
	return results
}

func (ix *Indexer) boost(field string) float64 {
	switch field {
	case FieldTitle:
		return ix.cfg.TitleBoost
	case FieldHeading:
		return ix.cfg.HeadingBoost
	case FieldCode:
		return ix.cfg.CodeBoost
	default:
		return ix.cfg.ContentBoost
	}
}

// snippet greedily concatenates content sentences containing at least one
// query term, up to the configured snippet budget. Falls back to a blunt
// prefix when no sentence matches.
func (ix *Indexer) snippet(doc *markdown.Document, terms []string) string {
	budget := ix.cfg.SnippetLength
	if budget <= 0 {
		budget = 200
	}

	var sb strings.Builder
	for _, sentence := range markdown.SplitSentences(doc.Content) {
		lower := strings.ToLower(sentence)
		matched := false
		for _, term := range terms {
			if strings.Contains(lower, term) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if sb.Len() > 0 && sb.Len()+len(sentence)+1 > budget {
			break
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(sentence)
		if sb.Len() >= budget {
			break
		}
	}
	if sb.Len() > 0 {
		return truncate(sb.String(), budget)
	}
	return truncate(doc.Content, budget)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return strings.TrimSpace(s[:limit])
}

// matchHeadings returns headings containing any query term, each tagged
// with its total term hit count.
func matchHeadings(doc *markdown.Document, terms []string, minLen int) []HeadingMatch {
	var matches []HeadingMatch
	for _, heading := range doc.Headings {
		hits := countTermHits(heading.Text, terms, minLen)
		if hits == 0 {
			continue
		}
		matches = append(matches, HeadingMatch{Heading: heading, Matches: hits})
	}
	return matches
}

// matchExamples returns up to maxMatchedExamples code examples containing
// any query term, in document order.
func matchExamples(doc *markdown.Document, terms []string, minLen int) []ExampleMatch {
	var matches []ExampleMatch
	for _, example := range doc.CodeExamples {
		hits := countTermHits(example.Code, terms, minLen)
		if hits == 0 {
			continue
		}
		matches = append(matches, ExampleMatch{Example: example, Matches: hits})
		if len(matches) == maxMatchedExamples {
			break
		}
	}
	return matches
}

// CountTermHits counts query-term occurrences in arbitrary text using the
// index tokenizer, so scoring and match tagging agree on what a term is.
func CountTermHits(text string, terms []string, minLength int) int {
	return countTermHits(text, terms, minLength)
}

func countTermHits(text string, terms []string, minLen int) int {
	counts := countTokens(Tokenize(text, minLen))
	hits := 0
	for _, term := range terms {
		hits += counts[term]
	}
	return hits
}

// CategoryInfo describes one category group.
type CategoryInfo struct {
	Name      string        `json:"name"`
	Count     int           `json:"count"`
	Documents []CategoryDoc `json:"documents"`
}

// CategoryDoc is a lightweight document reference inside a category group.
type CategoryDoc struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Categories groups the document table by category in one pass. Display
// names come from the configured taxonomy, falling back to a titleized key.
func (ix *Indexer) Categories() map[string]CategoryInfo {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make(map[string]CategoryInfo)
	for _, doc := range ix.table {
		info, ok := out[doc.Category]
		if !ok {
			name := markdown.Titleize(doc.Category)
			if cat, configured := ix.docs.Categories[doc.Category]; configured && cat.Name != "" {
				name = cat.Name
			}
			info = CategoryInfo{Name: name}
		}
		info.Count++
		info.Documents = append(info.Documents, CategoryDoc{
			ID:    doc.ID,
			Title: doc.Title,
			Path:  doc.FilePath,
		})
		out[doc.Category] = info
	}
	return out
}

// DocumentsByCategory returns documents with an exact category match,
// preserving table order.
func (ix *Indexer) DocumentsByCategory(category string) []*markdown.Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []*markdown.Document
	for _, doc := range ix.table {
		if doc.Category == category {
			out = append(out, doc)
		}
	}
	return out
}
