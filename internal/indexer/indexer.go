// Package indexer builds an in-memory inverted index over parsed
// documentation and answers ranked search queries. The built state is
// memoized through the cache layer and validated against file mtimes, so
// re-indexing an unchanged corpus is cheap.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/restkit/restkit-mcp/internal/cache"
	"github.com/restkit/restkit-mcp/internal/config"
	"github.com/restkit/restkit-mcp/internal/logging"
	"github.com/restkit/restkit-mcp/internal/markdown"
)

// Field names used in the inverted index.
const (
	FieldTitle   = "title"
	FieldHeading = "heading"
	FieldContent = "content"
	FieldCode    = "code"
)

// invertedIndex maps term -> docID -> field -> occurrence count.
type invertedIndex map[string]map[string]map[string]int

// indexState is the cacheable snapshot of a built index.
type indexState struct {
	Docs   []*markdown.Document `json:"docs"`
	Index  invertedIndex        `json:"index"`
	Mtimes map[string]int64     `json:"mtimes"`
}

// IndexStats summarizes one IndexDocuments run.
type IndexStats struct {
	TotalDocs    int
	TotalTerms   int
	SkippedFiles []string
	Categories   map[string]int
	Duration     time.Duration
	FromCache    bool
}

// Indexer owns the document table and inverted index for the lifetime of
// one process. The cache is a pass-through memoization layer, never the
// source of truth.
type Indexer struct {
	parser *markdown.Parser
	store  *cache.Store
	docs   config.DocsConfig
	cfg    config.IndexConfig
	logger *slog.Logger
	group  singleflight.Group

	mu       sync.RWMutex
	table    []*markdown.Document
	byID     map[string]*markdown.Document
	inverted invertedIndex
	mtimes   map[string]int64
}

// New creates an Indexer over the given parser and memoization store.
func New(parser *markdown.Parser, store *cache.Store, docs config.DocsConfig, cfg config.IndexConfig) *Indexer {
	return &Indexer{
		parser:   parser,
		store:    store,
		docs:     docs,
		cfg:      cfg,
		logger:   logging.WithComponent("indexer"),
		byID:     make(map[string]*markdown.Document),
		inverted: make(invertedIndex),
		mtimes:   make(map[string]int64),
	}
}

// Discover recursively scans the configured documentation roots for .md
// files. Missing roots are skipped; the result is sorted for a stable cache
// key.
func (ix *Indexer) Discover() []string {
	roots := []string{ix.docs.PrimaryPath}
	if ix.docs.LegacyPath != "" {
		roots = append(roots, ix.docs.LegacyPath)
	}
	var paths []string
	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip unreadable entries, partial corpus is fine
			}
			if d.IsDir() {
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".md") {
				if abs, err := filepath.Abs(path); err == nil {
					path = abs
				}
				paths = append(paths, path)
			}
			return nil
		})
	}
	sort.Strings(paths)
	return paths
}

// IndexDocuments replaces the in-memory document table and inverted index
// with the corpus at the given paths. Nonexistent files are skipped
// silently. The built state is cached under a key derived from the sorted
// path list and reused while every path's mtime is unchanged.
func (ix *Indexer) IndexDocuments(ctx context.Context, paths []string) (*IndexStats, error) {
	start := time.Now()
	key := corpusKey(paths)

	if state := ix.loadCachedState(ctx, key, paths); state != nil {
		ix.install(state)
		stats := ix.statsLocked(nil, true)
		stats.Duration = time.Since(start)
		ix.logger.Debug("index served from cache", "docs", stats.TotalDocs, "key", key)
		return stats, nil
	}

	// Concurrent requests for the same corpus share one build.
	built, err, _ := ix.group.Do(key, func() (any, error) {
		state, skipped := ix.build(ctx, paths)
		ix.storeState(ctx, key, state)
		return &buildResult{state: state, skipped: skipped}, nil
	})
	if err != nil {
		return nil, err
	}
	result := built.(*buildResult)
	ix.install(result.state)

	stats := ix.statsLocked(result.skipped, false)
	stats.Duration = time.Since(start)
	ix.logger.Info("indexing complete",
		"docs", stats.TotalDocs,
		"terms", stats.TotalTerms,
		"skipped", len(stats.SkippedFiles),
		"duration", stats.Duration,
	)
	return stats, nil
}

type buildResult struct {
	state   *indexState
	skipped []string
}

// build parses every readable path and constructs the inverted index.
func (ix *Indexer) build(ctx context.Context, paths []string) (*indexState, []string) {
	state := &indexState{
		Index:  make(invertedIndex),
		Mtimes: make(map[string]int64, len(paths)),
	}
	var skipped []string

	for _, path := range paths {
		state.Mtimes[path] = currentMtime(path)

		doc := ix.parser.Parse(ctx, path)
		if doc == nil {
			skipped = append(skipped, path)
			continue
		}
		state.Docs = append(state.Docs, doc)
		ix.indexDocument(state.Index, doc)
	}
	return state, skipped
}

// indexDocument adds one document's field-token counts to the index.
func (ix *Indexer) indexDocument(index invertedIndex, doc *markdown.Document) {
	minLen := ix.cfg.MinTokenLength

	addField := func(field, text string) {
		for term, count := range countTokens(Tokenize(text, minLen)) {
			byDoc, ok := index[term]
			if !ok {
				byDoc = make(map[string]map[string]int)
				index[term] = byDoc
			}
			byField, ok := byDoc[doc.ID]
			if !ok {
				byField = make(map[string]int)
				byDoc[doc.ID] = byField
			}
			byField[field] += count
		}
	}

	addField(FieldTitle, doc.Title)
	for _, h := range doc.Headings {
		addField(FieldHeading, h.Text)
	}
	addField(FieldContent, doc.Content)
	for _, example := range doc.CodeExamples {
		addField(FieldCode, example.Code)
	}
}

// install atomically replaces the in-memory state.
func (ix *Indexer) install(state *indexState) {
	byID := make(map[string]*markdown.Document, len(state.Docs))
	for _, doc := range state.Docs {
		byID[doc.ID] = doc
	}

	ix.mu.Lock()
	ix.table = state.Docs
	ix.byID = byID
	ix.inverted = state.Index
	ix.mtimes = state.Mtimes
	ix.mu.Unlock()
}

// loadCachedState returns the cached snapshot for key when every requested
// path still has the mtime recorded at cache-write time. Any added, removed,
// or modified file invalidates the snapshot.
func (ix *Indexer) loadCachedState(ctx context.Context, key string, paths []string) *indexState {
	if ix.store == nil {
		return nil
	}
	data, ok := ix.store.Get(ctx, "index."+key)
	if !ok {
		return nil
	}
	var state indexState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil
	}
	for _, path := range paths {
		recorded, ok := state.Mtimes[path]
		if !ok || recorded != currentMtime(path) {
			return nil
		}
	}
	return &state
}

func (ix *Indexer) storeState(ctx context.Context, key string, state *indexState) {
	if ix.store == nil {
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		ix.logger.Warn("index state marshal failed", "error", err)
		return
	}
	ix.store.Put(ctx, "index."+key, data)
}

func (ix *Indexer) statsLocked(skipped []string, fromCache bool) *IndexStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	categories := make(map[string]int)
	for _, doc := range ix.table {
		categories[doc.Category]++
	}
	return &IndexStats{
		TotalDocs:    len(ix.table),
		TotalTerms:   len(ix.inverted),
		SkippedFiles: skipped,
		Categories:   categories,
		FromCache:    fromCache,
	}
}

// corpusKey hashes the sorted path list so enumeration order cannot cause
// cache misses for the same logical corpus.
func corpusKey(paths []string) string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return fmt.Sprintf("%x", sum[:16])
}

// currentMtime returns the file's mtime in unix nanos, or 0 when the file
// is missing or unreadable.
func currentMtime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().UnixNano()
}

// Documents returns the document table in insertion order.
func (ix *Indexer) Documents() []*markdown.Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]*markdown.Document, len(ix.table))
	copy(out, ix.table)
	return out
}

// Document returns a document by ID.
func (ix *Indexer) Document(id string) (*markdown.Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	doc, ok := ix.byID[id]
	return doc, ok
}
