// Package cache provides a namespaced, TTL-aware memoization store used to
// avoid re-parsing and re-indexing unchanged documentation. Values are
// opaque byte slices; callers own the encoding. The cache is an optimization
// only: a cold cache must reproduce identical results, just slower.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/restkit/restkit-mcp/internal/logging"
)

// keysIndex is the reserved key holding the side index of every key written
// under this store's prefix. Writing it never updates the index itself.
const keysIndex = "_keys"

// Backend is the raw key-value store behind a Store. Implementations must
// treat a missing key as (_, false, nil), not an error.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Store namespaces all keys under a prefix and maintains a side index of
// written keys so Flush can remove only this store's entries from a shared
// backend.
type Store struct {
	backend Backend
	prefix  string
	ttl     time.Duration
	enabled bool
	logger  *slog.Logger

	mu sync.Mutex // serializes _keys read-modify-write
}

// Options configures a Store.
type Options struct {
	// Prefix namespaces every key. Empty means no namespacing.
	Prefix string
	// TTL is the default entry lifetime. Zero means no expiry.
	TTL time.Duration
	// Enabled gates all storage. When false, Remember always invokes its
	// producer, Get misses, and mutating operations report false.
	Enabled bool
	Logger  *slog.Logger
}

// New creates a Store over the given backend.
func New(backend Backend, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = logging.WithComponent("cache")
	}
	return &Store{
		backend: backend,
		prefix:  opts.Prefix,
		ttl:     opts.TTL,
		enabled: opts.Enabled,
		logger:  logger,
	}
}

// Enabled reports whether the store persists anything.
func (s *Store) Enabled() bool { return s.enabled }

// Remember returns the cached value for key, or invokes producer, stores the
// result, and returns it. Producer errors pass through unstored. When the
// store is disabled the producer is always invoked and nothing is written.
func (s *Store) Remember(ctx context.Context, key string, producer func() ([]byte, error)) ([]byte, error) {
	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}
	value, err := producer()
	if err != nil {
		return nil, err
	}
	s.Put(ctx, key, value)
	return value, nil
}

// Get returns the cached value for key. A disabled store, a backend error,
// or a missing key all report a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.enabled {
		return nil, false
	}
	value, ok, err := s.backend.Get(ctx, s.namespaced(key))
	if err != nil {
		s.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
	return value, ok
}

// Put stores value under key with the store's default TTL, or the given
// override. Returns false when disabled or when the backend write fails.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl ...time.Duration) bool {
	if !s.enabled {
		return false
	}
	entryTTL := s.ttl
	if len(ttl) > 0 {
		entryTTL = ttl[0]
	}
	if err := s.backend.Set(ctx, s.namespaced(key), value, entryTTL); err != nil {
		s.logger.Warn("cache put failed", "key", key, "error", err)
		return false
	}
	s.trackKey(ctx, key)
	return true
}

// Forget removes key from the store. Returns false when disabled or on
// backend error.
func (s *Store) Forget(ctx context.Context, key string) bool {
	if !s.enabled {
		return false
	}
	if err := s.backend.Del(ctx, s.namespaced(key)); err != nil {
		s.logger.Warn("cache forget failed", "key", key, "error", err)
		return false
	}
	return true
}

// Flush removes every key ever written under this store's prefix, then the
// side index itself. Other tenants of a shared backend are untouched.
func (s *Store) Flush(ctx context.Context) bool {
	if !s.enabled {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.loadKeyIndex(ctx)
	for _, key := range keys {
		if err := s.backend.Del(ctx, s.namespaced(key)); err != nil {
			s.logger.Warn("cache flush: delete failed", "key", key, "error", err)
		}
	}
	if err := s.backend.Del(ctx, s.namespaced(keysIndex)); err != nil {
		s.logger.Warn("cache flush: index delete failed", "error", err)
		return false
	}
	s.logger.Debug("cache flushed", "keys", len(keys))
	return true
}

// Ping reports backend connectivity. A disabled store is always healthy.
func (s *Store) Ping(ctx context.Context) error {
	if !s.enabled {
		return nil
	}
	return s.backend.Ping(ctx)
}

func (s *Store) namespaced(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "." + key
}

// trackKey records key in the _keys side index. The index entry is written
// without a TTL so it outlives the entries it describes, and its write path
// deliberately bypasses Put to avoid recursion.
func (s *Store) trackKey(ctx context.Context, key string) {
	if key == keysIndex {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.loadKeyIndex(ctx)
	for _, existing := range keys {
		if existing == key {
			return
		}
	}
	keys = append(keys, key)
	data, err := json.Marshal(keys)
	if err != nil {
		return
	}
	if err := s.backend.Set(ctx, s.namespaced(keysIndex), data, 0); err != nil {
		s.logger.Warn("cache key index update failed", "error", err)
	}
}

func (s *Store) loadKeyIndex(ctx context.Context) []string {
	data, ok, err := s.backend.Get(ctx, s.namespaced(keysIndex))
	if err != nil || !ok {
		return nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil
	}
	return keys
}
