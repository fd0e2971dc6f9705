package mcp

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/restkit/restkit-mcp/internal/config"
	"github.com/restkit/restkit-mcp/internal/indexer"
	"github.com/restkit/restkit-mcp/internal/markdown"
)

// exampleQueries is offered when a search finds nothing.
var exampleQueries = []string{"repository fields", "match filter", "standalone action", "validation rules", "authorization"}

// ensureIndexed discovers the corpus and (re)indexes it. The mtime-gated
// cache makes repeated calls cheap.
func ensureIndexed(ctx context.Context, ix *indexer.Indexer) error {
	_, err := ix.IndexDocuments(ctx, ix.Discover())
	return err
}

// categorySuggestions lists available categories with counts, sorted by key.
func categorySuggestions(ix *indexer.Indexer) []string {
	categories := ix.Categories()
	keys := make([]string, 0, len(categories))
	for key := range categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	suggestions := make([]string, 0, len(keys))
	for _, key := range keys {
		info := categories[key]
		suggestions = append(suggestions, fmt.Sprintf("%s (%s, %d docs)", key, info.Name, info.Count))
	}
	return suggestions
}

// estimateTokens approximates model cost as characters divided by four.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// makeSearchHandler creates the search_docs tool handler. Invalid input is
// reported in the output payload, never as a protocol failure; only
// internal errors (index build failures) propagate as tool errors.
func makeSearchHandler(ix *indexer.Indexer, cfg config.IndexConfig) func(
	context.Context, *mcp.CallToolRequest, SearchDocsInput,
) (*mcp.CallToolResult, SearchDocsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchDocsInput) (
		*mcp.CallToolResult, SearchDocsOutput, error,
	) {
		queries := make([]string, 0, len(input.Queries))
		for _, q := range input.Queries {
			if len(indexer.QueryTokens(q, cfg.MinTokenLength)) > 0 {
				queries = append(queries, strings.TrimSpace(q))
			}
		}
		if len(queries) == 0 {
			return nil, SearchDocsOutput{
				Error: fmt.Sprintf("queries must contain at least one term of %d+ characters", cfg.MinTokenLength),
			}, nil
		}

		if err := ensureIndexed(ctx, ix); err != nil {
			return nil, SearchDocsOutput{}, fmt.Errorf("indexing documentation: %w", err)
		}

		limit := input.Limit
		if limit <= 0 {
			limit = cfg.DefaultLimit
		}

		var sb strings.Builder
		output := SearchDocsOutput{}
		budget := input.TokenLimit

		for _, query := range queries {
			results := ix.Search(query, input.Category, limit)
			output.TotalResults += len(results)

			section := formatSearchSection(query, results)
			if budget > 0 && estimateTokens(sb.String())+estimateTokens(section) > budget {
				sb.WriteString("\n_Response truncated: token limit reached. Narrow your queries or raise token_limit._\n")
				output.Truncated = true
				break
			}
			sb.WriteString(section)
		}

		if output.TotalResults == 0 {
			output.Suggestions = categorySuggestions(ix)
			sb.Reset()
			sb.WriteString("No documentation matched your queries.\n\n")
			sb.WriteString("Available categories:\n")
			for _, suggestion := range output.Suggestions {
				sb.WriteString("- " + suggestion + "\n")
			}
			sb.WriteString("\nExample queries: " + strings.Join(exampleQueries, ", ") + "\n")
		}

		output.Content = sb.String()
		return nil, output, nil
	}
}

func formatSearchSection(query string, results []indexer.SearchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Results for %q\n\n", query)
	if len(results) == 0 {
		sb.WriteString("No matches.\n\n")
		return sb.String()
	}
	for i, result := range results {
		doc := result.Document
		fmt.Fprintf(&sb, "### %d. %s\n", i+1, doc.Title)
		fmt.Fprintf(&sb, "- Path: %s\n- Category: %s\n- Score: %.2f\n- Tokens: ~%d\n",
			doc.FilePath, doc.Category, result.Score, doc.EstimatedTokens)
		if result.Snippet != "" {
			fmt.Fprintf(&sb, "\n> %s\n", result.Snippet)
		}
		if len(result.MatchedHeadings) > 0 {
			sb.WriteString("\nMatching sections:\n")
			for _, match := range result.MatchedHeadings {
				fmt.Fprintf(&sb, "- %s (#%s, %d hits)\n", match.Heading.Text, match.Heading.Anchor, match.Matches)
			}
		}
		if len(result.MatchedExamples) > 0 {
			fmt.Fprintf(&sb, "\n%d code example(s) mention your terms; use get_code_examples for the code.\n",
				len(result.MatchedExamples))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// makeExamplesHandler creates the get_code_examples tool handler. Document
// relevance is blended 70/30 with code-block-local term density so examples
// that actually contain the topic rank above examples from merely relevant
// documents.
func makeExamplesHandler(ix *indexer.Indexer, cfg config.IndexConfig) func(
	context.Context, *mcp.CallToolRequest, GetCodeExamplesInput,
) (*mcp.CallToolResult, GetCodeExamplesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetCodeExamplesInput) (
		*mcp.CallToolResult, GetCodeExamplesOutput, error,
	) {
		if len(indexer.QueryTokens(input.Topic, cfg.MinTokenLength)) == 0 {
			return nil, GetCodeExamplesOutput{
				Error: "topic must contain at least one searchable term",
			}, nil
		}

		if err := ensureIndexed(ctx, ix); err != nil {
			return nil, GetCodeExamplesOutput{}, fmt.Errorf("indexing documentation: %w", err)
		}

		limit := input.Limit
		if limit <= 0 {
			limit = cfg.DefaultLimit
		}

		type rankedExample struct {
			doc     *markdown.Document
			example markdown.CodeExample
			score   float64
		}
		var ranked []rankedExample

		results := ix.Search(input.Topic, "", cfg.MaxResults)
		terms := indexer.QueryTokens(input.Topic, cfg.MinTokenLength)

		for _, result := range results {
			for _, example := range result.Document.CodeExamples {
				if input.Language != "" && !strings.EqualFold(example.Language, input.Language) {
					continue
				}
				hits := indexer.CountTermHits(example.Code, terms, cfg.MinTokenLength)
				if hits == 0 {
					continue
				}
				local := float64(hits) / math.Sqrt(float64(len(example.Code))+1)
				ranked = append(ranked, rankedExample{
					doc:     result.Document,
					example: example,
					score:   0.7*result.Score + 0.3*local,
				})
			}
		}

		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
		if len(ranked) > limit {
			ranked = ranked[:limit]
		}

		output := GetCodeExamplesOutput{TotalExamples: len(ranked)}
		if len(ranked) == 0 {
			output.Suggestions = categorySuggestions(ix)
			output.Content = fmt.Sprintf(
				"No code examples found for %q.\n\nTry browsing a category with navigate_docs, or one of: %s\n",
				input.Topic, strings.Join(exampleQueries, ", "))
			return nil, output, nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "# Code examples for %q\n\n", input.Topic)
		for i, entry := range ranked {
			fmt.Fprintf(&sb, "## Example %d (%s, score %.2f)\n", i+1, entry.example.Language, entry.score)
			if input.IncludeContext {
				fmt.Fprintf(&sb, "From **%s** (%s): %s\n\n", entry.doc.Title, entry.doc.FilePath, entry.doc.Summary)
			} else {
				fmt.Fprintf(&sb, "From %s\n\n", entry.doc.FilePath)
			}
			fmt.Fprintf(&sb, "```%s\n%s\n```\n\n", entry.example.Language, entry.example.Code)
		}
		output.Content = sb.String()
		return nil, output, nil
	}
}

// makeNavigateHandler creates the navigate_docs tool handler.
func makeNavigateHandler(ix *indexer.Indexer, parser *markdown.Parser) func(
	context.Context, *mcp.CallToolRequest, NavigateDocsInput,
) (*mcp.CallToolResult, NavigateDocsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input NavigateDocsInput) (
		*mcp.CallToolResult, NavigateDocsOutput, error,
	) {
		action := strings.ToLower(strings.TrimSpace(input.Action))
		if action == "" {
			return nil, NavigateDocsOutput{
				Error: "action is required: overview, categories, category, or document",
			}, nil
		}

		if err := ensureIndexed(ctx, ix); err != nil {
			return nil, NavigateDocsOutput{}, fmt.Errorf("indexing documentation: %w", err)
		}

		switch action {
		case "overview":
			return nil, navigateOverview(ix), nil
		case "categories":
			return nil, navigateCategories(ix), nil
		case "category":
			return nil, navigateCategory(ix, input.Category), nil
		case "document":
			return nil, navigateDocument(ix, parser, input.Document), nil
		default:
			return nil, NavigateDocsOutput{
				Error: fmt.Sprintf("unknown action %q: expected overview, categories, category, or document", input.Action),
			}, nil
		}
	}
}

func navigateOverview(ix *indexer.Indexer) NavigateDocsOutput {
	docs := ix.Documents()
	categories := ix.Categories()

	var sb strings.Builder
	sb.WriteString("# RestKit Documentation\n\n")
	fmt.Fprintf(&sb, "%d documents across %d categories.\n\n", len(docs), len(categories))
	sb.WriteString("## Categories\n")
	for _, suggestion := range categorySuggestions(ix) {
		sb.WriteString("- " + suggestion + "\n")
	}
	sb.WriteString("\nUse `navigate_docs` with action=category to browse, ")
	sb.WriteString("`search_docs` to search, and `get_code_examples` for code.\n")
	return NavigateDocsOutput{Content: sb.String()}
}

func navigateCategories(ix *indexer.Indexer) NavigateDocsOutput {
	var sb strings.Builder
	sb.WriteString("# Documentation categories\n\n")
	for _, suggestion := range categorySuggestions(ix) {
		sb.WriteString("- " + suggestion + "\n")
	}
	return NavigateDocsOutput{Content: sb.String()}
}

func navigateCategory(ix *indexer.Indexer, category string) NavigateDocsOutput {
	if strings.TrimSpace(category) == "" {
		return NavigateDocsOutput{
			Error:       "category is required for action=category",
			Suggestions: categorySuggestions(ix),
		}
	}
	docs := ix.DocumentsByCategory(category)
	if len(docs) == 0 {
		return NavigateDocsOutput{
			Error:       fmt.Sprintf("no documents in category %q", category),
			Suggestions: categorySuggestions(ix),
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Category: %s (%d documents)\n\n", category, len(docs))
	for _, doc := range docs {
		fmt.Fprintf(&sb, "## %s\n- Path: %s\n- Tokens: ~%d\n", doc.Title, doc.FilePath, doc.EstimatedTokens)
		if doc.Summary != "" {
			fmt.Fprintf(&sb, "\n%s\n", doc.Summary)
		}
		sb.WriteString("\n")
	}
	return NavigateDocsOutput{Content: sb.String()}
}

func navigateDocument(ix *indexer.Indexer, parser *markdown.Parser, ref string) NavigateDocsOutput {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return NavigateDocsOutput{Error: "document is required for action=document"}
	}

	var found *markdown.Document
	for _, doc := range ix.Documents() {
		if doc.ID == ref || doc.FilePath == ref || strings.HasSuffix(doc.FilePath, ref) {
			found = doc
			break
		}
	}
	if found == nil {
		return NavigateDocsOutput{
			Error:       fmt.Sprintf("document %q not found", ref),
			Suggestions: categorySuggestions(ix),
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n- Path: %s\n- Category: %s\n- Words: %d\n- Tokens: ~%d\n",
		found.Title, found.FilePath, found.Category, found.WordCount, found.EstimatedTokens)
	if found.Summary != "" {
		fmt.Fprintf(&sb, "\n%s\n", found.Summary)
	}
	if outline := parser.Outline(found); outline != "" {
		sb.WriteString("\n## Outline\n")
		sb.WriteString(outline)
		sb.WriteString("\n")
	}
	if len(found.CodeExamples) > 0 {
		fmt.Fprintf(&sb, "\n%d code example(s); use get_code_examples for the code.\n", len(found.CodeExamples))
	}
	return NavigateDocsOutput{Content: sb.String()}
}
