package markdown

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restkit/restkit-mcp/internal/cache"
	"github.com/restkit/restkit-mcp/internal/config"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestParser() *Parser {
	return NewParser(nil, config.Default().Docs, 300)
}

func TestParse_MissingFile(t *testing.T) {
	parser := newTestParser()
	doc := parser.Parse(context.Background(), filepath.Join(t.TempDir(), "missing.md"))
	if doc != nil {
		t.Fatalf("expected nil for missing file, got %+v", doc)
	}
}

func TestParse_Headings(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "doc.md", "# A\n\n## B\n\n### C\n")
	doc := newTestParser().Parse(context.Background(), path)
	require.NotNil(t, doc)

	require.Len(t, doc.Headings, 3)
	assert.Equal(t, Heading{Level: 1, Text: "A", Anchor: "a"}, doc.Headings[0])
	assert.Equal(t, Heading{Level: 2, Text: "B", Anchor: "b"}, doc.Headings[1])
	assert.Equal(t, Heading{Level: 3, Text: "C", Anchor: "c"}, doc.Headings[2])
}

func TestParse_CodeExtraction(t *testing.T) {
	content := "# Doc\n\nIntro text.\n\n```php\n$repo = new PostRepository();\n```\n\nMore text.\n"
	path := writeDoc(t, t.TempDir(), "doc.md", content)
	doc := newTestParser().Parse(context.Background(), path)
	require.NotNil(t, doc)

	require.Len(t, doc.CodeExamples, 1)
	example := doc.CodeExamples[0]
	assert.Equal(t, "php", example.Language)
	assert.Equal(t, "$repo = new PostRepository();", example.Code)
	assert.Equal(t, 1, example.LineCount)

	// Cleaned content carries no trace of the code block or fences.
	assert.NotContains(t, doc.Content, "PostRepository()")
	assert.NotContains(t, doc.Content, "```")
}

func TestParse_CodeLanguageDefaultsToText(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "doc.md", "```\nplain block\n```\n")
	doc := newTestParser().Parse(context.Background(), path)
	require.NotNil(t, doc)
	require.Len(t, doc.CodeExamples, 1)
	assert.Equal(t, "text", doc.CodeExamples[0].Language)
}

// Frontmatter title wins over the first H1; the H1 wins over the filename.
func TestParse_TitlePriority(t *testing.T) {
	dir := t.TempDir()

	withFrontmatter := writeDoc(t, dir, "a.md", "---\ntitle: \"Custom Title\"\n---\n# Heading One\n\nBody.\n")
	doc := newTestParser().Parse(context.Background(), withFrontmatter)
	require.NotNil(t, doc)
	assert.Equal(t, "Custom Title", doc.Title)

	withHeading := writeDoc(t, dir, "b.md", "# Heading One\n\nBody.\n")
	doc = newTestParser().Parse(context.Background(), withHeading)
	require.NotNil(t, doc)
	assert.Equal(t, "Heading One", doc.Title)

	bare := writeDoc(t, dir, "getting-started.md", "Just body text.\n")
	doc = newTestParser().Parse(context.Background(), bare)
	require.NotNil(t, doc)
	assert.Equal(t, "Getting Started", doc.Title)
}

func TestParse_MalformedFrontmatterRecovered(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "doc.md", "---\ntitle: [unterminated\n---\n# Works Anyway\n\nBody.\n")
	doc := newTestParser().Parse(context.Background(), path)
	require.NotNil(t, doc)
	assert.Empty(t, doc.Frontmatter)
	assert.Equal(t, "Works Anyway", doc.Title)
	assert.NotContains(t, doc.RawContent, "unterminated")
}

func TestParse_NoFrontmatterWhenBodyStartsWithText(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "doc.md", "Intro line.\n\n---\n\nMore text.\n\n---\n")
	doc := newTestParser().Parse(context.Background(), path)
	require.NotNil(t, doc)
	assert.Nil(t, doc.Frontmatter)
	assert.Contains(t, doc.RawContent, "Intro line.")
}

func TestParse_ContentCleaning(t *testing.T) {
	content := "# Title\n\nUse `inline code` and [a link](https://example.com) with **bold** text.\n"
	path := writeDoc(t, t.TempDir(), "doc.md", content)
	doc := newTestParser().Parse(context.Background(), path)
	require.NotNil(t, doc)

	assert.NotContains(t, doc.Content, "`")
	assert.NotContains(t, doc.Content, "https://example.com")
	assert.Contains(t, doc.Content, "a link")
	assert.NotContains(t, doc.Content, "**")
	assert.NotContains(t, doc.Content, "#")
}

func TestParse_SummaryBudget(t *testing.T) {
	body := strings.Repeat("This sentence has a fixed length. ", 30)
	path := writeDoc(t, t.TempDir(), "doc.md", "# T\n\n"+body)
	parser := NewParser(nil, config.Default().Docs, 100)
	doc := parser.Parse(context.Background(), path)
	require.NotNil(t, doc)

	assert.LessOrEqual(t, len(doc.Summary), 100)
	assert.True(t, strings.HasPrefix(doc.Summary, "T This sentence has a fixed length.") ||
		strings.HasPrefix(doc.Summary, "This sentence"), "summary = %q", doc.Summary)
}

func TestParse_DerivedCountsNonNegative(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "empty.md", "")
	doc := newTestParser().Parse(context.Background(), path)
	require.NotNil(t, doc)
	assert.GreaterOrEqual(t, doc.WordCount, 0)
	assert.GreaterOrEqual(t, doc.EstimatedTokens, 0)
	assert.Equal(t, (len(doc.Content)+3)/4, doc.EstimatedTokens)
}

// Category is a pure function of path: same pattern match, same category,
// regardless of content.
func TestResolveCategory_PureFunctionOfPath(t *testing.T) {
	dir := t.TempDir()
	parser := newTestParser()

	a := writeDoc(t, dir, "repositories/basics.md", "# A\n\nOne thing.\n")
	b := writeDoc(t, dir, "repositories/advanced.md", "# B\n\nCompletely different content.\n")

	docA := parser.Parse(context.Background(), a)
	docB := parser.Parse(context.Background(), b)
	require.NotNil(t, docA)
	require.NotNil(t, docB)
	assert.Equal(t, "repositories", docA.Category)
	assert.Equal(t, docA.Category, docB.Category)
}

func TestResolveCategory_ParentDirFallback(t *testing.T) {
	dir := t.TempDir()
	parser := newTestParser()

	path := writeDoc(t, dir, "webhooks/intro.md", "# Intro\n")
	doc := parser.Parse(context.Background(), path)
	require.NotNil(t, doc)
	assert.Equal(t, "webhooks", doc.Category)
}

// Parsing twice without modification yields identical fields; memoization
// must not alter output.
func TestParse_Idempotent(t *testing.T) {
	store := cache.New(cache.NewMemoryBackend(), cache.Options{Prefix: "test", Enabled: true})
	parser := NewParser(store, config.Default().Docs, 300)

	path := writeDoc(t, t.TempDir(), "doc.md",
		"---\ntitle: Stable\norder: 2\npublished: true\n---\n# H\n\nBody text here.\n\n```php\necho 1;\n```\n")

	first := parser.Parse(context.Background(), path)
	second := parser.Parse(context.Background(), path)
	require.NotNil(t, first)
	require.NotNil(t, second)

	// Non-string frontmatter values must carry the same types on both the
	// cold and the memoized path, not int on one and float64 on the other.
	assert.Equal(t, float64(2), first.Frontmatter["order"])
	assert.Equal(t, true, first.Frontmatter["published"])
	assert.Equal(t, first, second)
}

func TestDocumentID_Deterministic(t *testing.T) {
	assert.Equal(t, DocumentID("/docs/a.md"), DocumentID("/docs/a.md"))
	assert.NotEqual(t, DocumentID("/docs/a.md"), DocumentID("/docs/b.md"))
}

func TestAnchor(t *testing.T) {
	assert.Equal(t, "getting-started", Anchor("Getting Started"))
	assert.Equal(t, "fields-validation", Anchor("Fields & Validation!"))
}

func TestOutline(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "doc.md", "# Top\n\n## Sub One\n\n## Sub Two\n\ntext\n")
	parser := newTestParser()
	doc := parser.Parse(context.Background(), path)
	require.NotNil(t, doc)

	outline := parser.Outline(doc)
	assert.Contains(t, outline, "- Top")
	assert.Contains(t, outline, "  - Sub One")
	assert.Contains(t, outline, "  - Sub Two")
}
