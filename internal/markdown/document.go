// Package markdown parses documentation files into structured, indexable
// document records.
package markdown

import (
	"github.com/google/uuid"
)

// Document is the structured form of one markdown file. Immutable once
// produced; every field derives from the file content and path alone.
type Document struct {
	// ID is a deterministic identifier derived from the absolute path.
	ID string `json:"id"`
	// FilePath is the absolute path of the source file.
	FilePath string `json:"file_path"`
	// Category is the taxonomy label assigned by path-pattern matching.
	Category string `json:"category"`
	// Frontmatter holds the parsed YAML frontmatter block, if any.
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	// Title resolution order: frontmatter title, first H1, filename stem.
	Title string `json:"title"`
	// Content is the cleaned plain text used for indexing.
	Content string `json:"content"`
	// RawContent is the markdown body with frontmatter stripped.
	RawContent string `json:"raw_content"`
	// CodeExamples lists fenced code blocks in document order.
	CodeExamples []CodeExample `json:"code_examples"`
	// Headings lists ATX headings in document order.
	Headings []Heading `json:"headings"`
	// Summary is the leading sentences of Content up to the summary budget.
	Summary string `json:"summary"`
	// WordCount is the number of whitespace-separated words in Content.
	WordCount int `json:"word_count"`
	// EstimatedTokens approximates model cost as ceil(len(Content)/4).
	EstimatedTokens int `json:"estimated_tokens"`
	// ModTime is the source file's mtime (unix nanos) at parse time.
	ModTime int64 `json:"mod_time"`
}

// CodeExample is one fenced code block.
type CodeExample struct {
	Language  string `json:"language"`
	Code      string `json:"code"`
	LineCount int    `json:"line_count"`
}

// Heading is one ATX heading.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
}

// DocumentID returns the stable identifier for a file path. The same path
// always maps to the same ID across processes and re-parses.
func DocumentID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String()
}
