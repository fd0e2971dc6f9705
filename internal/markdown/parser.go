package markdown

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/restkit/restkit-mcp/internal/cache"
	"github.com/restkit/restkit-mcp/internal/config"
	"github.com/restkit/restkit-mcp/internal/logging"
)

// DefaultSummaryLength is the summary character budget when none is
// configured.
const DefaultSummaryLength = 300

// frontmatterDelimiter matches a line consisting solely of three dashes.
const frontmatterDelimiter = "---"

var (
	inlineCodeRe  = regexp.MustCompile("`[^`]*`")
	linkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	emphasisRe    = regexp.MustCompile(`(\*\*|__|\*|_)`)
	headingMarkRe = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	blankRunsRe   = regexp.MustCompile(`\n{3,}`)
	spaceRunsRe   = regexp.MustCompile(`[ \t]+`)
	anchorRe      = regexp.MustCompile(`[^a-z0-9]+`)
	fenceRe       = regexp.MustCompile("(?s)```.*?```")
)

// Parser converts markdown files into Documents. Parsing is memoized by
// (path, mtime) through the cache store, so unchanged files are never
// re-parsed.
type Parser struct {
	md            goldmark.Markdown
	store         *cache.Store
	categories    map[string]config.CategoryConfig
	summaryLength int
	logger        *slog.Logger
}

// NewParser creates a Parser with the given memoization store and taxonomy.
// A nil store disables memoization.
func NewParser(store *cache.Store, docs config.DocsConfig, summaryLength int) *Parser {
	if summaryLength <= 0 {
		summaryLength = DefaultSummaryLength
	}
	return &Parser{
		md: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		store:         store,
		categories:    docs.Categories,
		summaryLength: summaryLength,
		logger:        logging.WithComponent("parser"),
	}
}

// Parse reads and parses the file at path. Returns nil when the file does
// not exist or cannot be read; callers treat nil as "skip this file".
func (p *Parser) Parse(ctx context.Context, filePath string) *Document {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil
	}
	mtime := info.ModTime().UnixNano()

	cacheKey := fmt.Sprintf("doc.%s.%d", DocumentID(filePath), mtime)
	if p.store != nil {
		if data, ok := p.store.Get(ctx, cacheKey); ok {
			var doc Document
			if err := json.Unmarshal(data, &doc); err == nil {
				return &doc
			}
		}
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil
	}

	doc := p.parseBytes(filePath, source, mtime)

	if p.store != nil {
		if data, err := json.Marshal(doc); err == nil {
			p.store.Put(ctx, cacheKey, data)
		}
	}
	return doc
}

// parseBytes builds a Document from raw file content. Pure with respect to
// (filePath, source, mtime).
func (p *Parser) parseBytes(filePath string, source []byte, mtime int64) *Document {
	frontmatter, body := splitFrontmatter(string(source))

	bodyBytes := []byte(body)
	reader := text.NewReader(bodyBytes)
	root := p.md.Parser().Parse(reader)

	codeExamples := extractCodeExamples(root, bodyBytes)
	headings := extractHeadings(root, bodyBytes)
	content := cleanContent(body)

	doc := &Document{
		ID:              DocumentID(filePath),
		FilePath:        filePath,
		Category:        p.resolveCategory(filePath),
		Frontmatter:     frontmatter,
		Title:           resolveTitle(frontmatter, headings, filePath),
		Content:         content,
		RawContent:      body,
		CodeExamples:    codeExamples,
		Headings:        headings,
		Summary:         summarize(content, p.summaryLength),
		WordCount:       len(strings.Fields(content)),
		EstimatedTokens: (len(content) + 3) / 4,
		ModTime:         mtime,
	}
	return doc
}

// splitFrontmatter separates a leading YAML frontmatter block from the body.
// The block must start on the first line; a malformed YAML payload yields an
// empty mapping, never an error. Values are normalized through JSON so a
// cold parse and a cache-hit parse carry identically typed maps.
func splitFrontmatter(source string) (map[string]any, string) {
	lines := strings.Split(source, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != frontmatterDelimiter {
		return nil, source
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") != frontmatterDelimiter {
			continue
		}
		block := strings.Join(lines[1:i], "\n")
		body := strings.Join(lines[i+1:], "\n")

		frontmatter := map[string]any{}
		if err := yaml.Unmarshal([]byte(block), &frontmatter); err != nil {
			return map[string]any{}, body
		}
		return normalizeFrontmatter(frontmatter), body
	}
	// Unterminated delimiter: treat the whole file as body.
	return nil, source
}

// normalizeFrontmatter round-trips the decoded YAML mapping through JSON,
// the same transform the memoization layer applies. Without it a cached
// document would carry float64 where the cold parse carried int.
func normalizeFrontmatter(frontmatter map[string]any) map[string]any {
	data, err := json.Marshal(frontmatter)
	if err != nil {
		return frontmatter
	}
	normalized := map[string]any{}
	if err := json.Unmarshal(data, &normalized); err != nil {
		return frontmatter
	}
	return normalized
}

// extractCodeExamples walks the AST collecting fenced code blocks in
// document order. Language defaults to "text" when the fence has no tag.
func extractCodeExamples(root ast.Node, source []byte) []CodeExample {
	examples := []CodeExample{}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindFencedCodeBlock {
			return ast.WalkContinue, nil
		}
		block := n.(*ast.FencedCodeBlock)

		language := "text"
		if lang := block.Language(source); len(lang) > 0 {
			language = string(lang)
		}

		var sb strings.Builder
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			sb.Write(segment.Value(source))
		}
		code := strings.TrimRight(sb.String(), "\n")

		examples = append(examples, CodeExample{
			Language:  language,
			Code:      code,
			LineCount: lines.Len(),
		})
		return ast.WalkContinue, nil
	})
	return examples
}

// extractHeadings walks the AST collecting headings of level 1-6 with their
// anchors.
func extractHeadings(root ast.Node, source []byte) []Heading {
	headings := []Heading{}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		heading := n.(*ast.Heading)
		headingText := string(nodeText(n, source))
		headings = append(headings, Heading{
			Level:  heading.Level,
			Text:   headingText,
			Anchor: Anchor(headingText),
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// nodeText concatenates the text content of a node's children.
func nodeText(n ast.Node, source []byte) []byte {
	var buf []byte
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *ast.Text:
			buf = append(buf, t.Segment.Value(source)...)
		default:
			buf = append(buf, nodeText(child, source)...)
		}
	}
	return buf
}

// Anchor converts heading text to its link anchor: lowercase with
// non-alphanumeric runs collapsed to single hyphens.
func Anchor(headingText string) string {
	anchor := anchorRe.ReplaceAllString(strings.ToLower(headingText), "-")
	return strings.Trim(anchor, "-")
}

// cleanContent strips markdown syntax for indexing: fenced code blocks,
// inline code spans, links (text kept, URL dropped), emphasis markers, and
// heading markers, then collapses excess whitespace.
func cleanContent(body string) string {
	content := fenceRe.ReplaceAllString(body, "")
	content = inlineCodeRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = emphasisRe.ReplaceAllString(content, "")
	content = headingMarkRe.ReplaceAllString(content, "")
	content = blankRunsRe.ReplaceAllString(content, "\n\n")
	content = spaceRunsRe.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}

// summarize accumulates leading sentences until adding the next one would
// exceed the character budget.
func summarize(content string, budget int) string {
	sentences := SplitSentences(content)
	var sb strings.Builder
	for _, sentence := range sentences {
		if sb.Len() > 0 && sb.Len()+len(sentence)+1 > budget {
			break
		}
		if sb.Len() == 0 && len(sentence) > budget {
			return strings.TrimSpace(sentence[:budget])
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(sentence)
	}
	return strings.TrimSpace(sb.String())
}

// SplitSentences splits text on sentence-ending punctuation, keeping the
// terminator with each sentence.
func SplitSentences(content string) []string {
	var sentences []string
	start := 0
	for i, r := range content {
		if r == '.' || r == '!' || r == '?' {
			sentence := strings.TrimSpace(content[start : i+1])
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(content[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// resolveCategory tests the file path against the configured per-category
// suffix patterns; first match wins. Falls back to the parent directory
// name, then "general".
func (p *Parser) resolveCategory(filePath string) string {
	normalized := filepath.ToSlash(filePath)
	for _, cat := range sortedCategories(p.categories) {
		for _, pattern := range cat.Patterns {
			if matchSuffixPattern(normalized, pattern) {
				return cat.key
			}
		}
	}
	parent := strings.ToLower(filepath.Base(filepath.Dir(filePath)))
	if parent != "" && parent != "." && parent != "/" && anchorRe.ReplaceAllString(parent, "") != "" {
		return parent
	}
	return "general"
}

type keyedCategory struct {
	key string
	config.CategoryConfig
}

// sortedCategories returns the taxonomy in deterministic key order so that
// "first match wins" is stable across runs.
func sortedCategories(categories map[string]config.CategoryConfig) []keyedCategory {
	keys := make([]string, 0, len(categories))
	for key := range categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]keyedCategory, 0, len(keys))
	for _, key := range keys {
		out = append(out, keyedCategory{key: key, CategoryConfig: categories[key]})
	}
	return out
}

// matchSuffixPattern matches the trailing segments of path against a
// glob-like pattern such as "repositories/*.md".
func matchSuffixPattern(normalizedPath, pattern string) bool {
	patternSegs := strings.Split(pattern, "/")
	pathSegs := strings.Split(normalizedPath, "/")
	if len(pathSegs) < len(patternSegs) {
		return false
	}
	tail := pathSegs[len(pathSegs)-len(patternSegs):]
	for i, seg := range patternSegs {
		ok, err := path.Match(seg, tail[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// resolveTitle applies the precedence frontmatter title, first H1, then the
// titleized filename stem.
func resolveTitle(frontmatter map[string]any, headings []Heading, filePath string) string {
	if frontmatter != nil {
		if raw, ok := frontmatter["title"]; ok {
			if title, ok := raw.(string); ok && strings.TrimSpace(title) != "" {
				return strings.TrimSpace(title)
			}
		}
	}
	for _, h := range headings {
		if h.Level == 1 && strings.TrimSpace(h.Text) != "" {
			return strings.TrimSpace(h.Text)
		}
	}
	return Titleize(strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath)))
}

// Titleize turns a filename stem like "getting-started" into
// "Getting Started".
func Titleize(stem string) string {
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
