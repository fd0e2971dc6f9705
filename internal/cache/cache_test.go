package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newEnabledStore(backend Backend, prefix string) *Store {
	return New(backend, Options{Prefix: prefix, Enabled: true})
}

func TestStore_PutAndGet(t *testing.T) {
	ctx := context.Background()
	store := newEnabledStore(NewMemoryBackend(), "test")

	if _, ok := store.Get(ctx, "missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
	if !store.Put(ctx, "greeting", []byte("hello")) {
		t.Fatal("Put returned false")
	}
	value, ok := store.Get(ctx, "greeting")
	if !ok || string(value) != "hello" {
		t.Fatalf("Get = %q, %v; want hello, true", value, ok)
	}
}

func TestStore_Remember(t *testing.T) {
	ctx := context.Background()
	store := newEnabledStore(NewMemoryBackend(), "test")

	calls := 0
	producer := func() ([]byte, error) {
		calls++
		return []byte("produced"), nil
	}

	first, err := store.Remember(ctx, "expensive", producer)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Remember(ctx, "expensive", producer)
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != "produced" || string(second) != "produced" {
		t.Fatalf("unexpected values: %q, %q", first, second)
	}
	if calls != 1 {
		t.Fatalf("producer called %d times, want 1", calls)
	}
}

func TestStore_RememberProducerErrorNotStored(t *testing.T) {
	ctx := context.Background()
	store := newEnabledStore(NewMemoryBackend(), "test")

	wantErr := errors.New("boom")
	if _, err := store.Remember(ctx, "k", func() ([]byte, error) { return nil, wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("failed production must not be cached")
	}
}

func TestStore_DisabledAlwaysInvokesProducer(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := New(backend, Options{Prefix: "test", Enabled: false})

	calls := 0
	producer := func() ([]byte, error) {
		calls++
		return []byte("v"), nil
	}
	for i := 0; i < 3; i++ {
		if _, err := store.Remember(ctx, "k", producer); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 3 {
		t.Fatalf("producer called %d times, want 3", calls)
	}
	if store.Put(ctx, "k", []byte("v")) {
		t.Fatal("disabled Put must report false")
	}
	if store.Forget(ctx, "k") || store.Flush(ctx) {
		t.Fatal("disabled mutations must report false")
	}
	if backend.Len() != 0 {
		t.Fatalf("disabled store wrote %d entries to backend", backend.Len())
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("disabled Ping = %v, want nil", err)
	}
}

func TestStore_Forget(t *testing.T) {
	ctx := context.Background()
	store := newEnabledStore(NewMemoryBackend(), "test")

	store.Put(ctx, "k", []byte("v"))
	if !store.Forget(ctx, "k") {
		t.Fatal("Forget returned false")
	}
	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("key survived Forget")
	}
}

// Flushing one store must not touch another prefix sharing the backend.
func TestStore_FlushIsScopedToPrefix(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	docs := newEnabledStore(backend, "docs")
	other := newEnabledStore(backend, "other")

	docs.Put(ctx, "a", []byte("1"))
	docs.Put(ctx, "b", []byte("2"))
	other.Put(ctx, "a", []byte("3"))

	if !docs.Flush(ctx) {
		t.Fatal("Flush returned false")
	}

	if _, ok := docs.Get(ctx, "a"); ok {
		t.Fatal("docs.a survived flush")
	}
	if _, ok := docs.Get(ctx, "b"); ok {
		t.Fatal("docs.b survived flush")
	}
	value, ok := other.Get(ctx, "a")
	if !ok || string(value) != "3" {
		t.Fatal("flush crossed prefix boundary")
	}
}

// The side index tracks written keys without tracking itself.
func TestStore_KeyIndexDoesNotTrackItself(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := newEnabledStore(backend, "test")

	store.Put(ctx, "a", []byte("1"))
	store.Put(ctx, "b", []byte("2"))
	store.Put(ctx, "a", []byte("3")) // re-write must not duplicate

	keys := store.loadKeyIndex(ctx)
	if len(keys) != 2 {
		t.Fatalf("key index = %v, want [a b]", keys)
	}
	for _, key := range keys {
		if key == keysIndex {
			t.Fatal("key index tracked itself")
		}
	}
	// a, b, and the index entry itself.
	if backend.Len() != 3 {
		t.Fatalf("backend holds %d entries, want 3", backend.Len())
	}
}

func TestMemoryBackend_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	if err := backend.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := backend.Get(ctx, "k"); !ok {
		t.Fatal("entry missing before expiry")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok, _ := backend.Get(ctx, "k"); ok {
		t.Fatal("entry survived past its TTL")
	}
}

// A Get observing an expired entry evicts only that entry; a value written
// concurrently must survive the eviction.
func TestMemoryBackend_EvictionKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	for i := 0; i < 200; i++ {
		require.NoError(t, backend.Set(ctx, "k", []byte("stale"), time.Nanosecond))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			backend.Get(ctx, "k")
		}()
		go func() {
			defer wg.Done()
			backend.Set(ctx, "k", []byte("fresh"), 0)
		}()
		wg.Wait()

		value, ok, err := backend.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok, "fresh write evicted on iteration %d", i)
		require.Equal(t, "fresh", string(value))
	}
}

func TestMemoryBackend_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	if err := backend.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := backend.Get(ctx, "k"); !ok {
		t.Fatal("zero-TTL entry expired")
	}
}

func TestStore_EmptyPrefixSkipsNamespacing(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := New(backend, Options{Enabled: true})

	store.Put(ctx, "raw", []byte("v"))
	if _, ok, _ := backend.Get(ctx, "raw"); !ok {
		t.Fatal("expected unprefixed key in backend")
	}
}
