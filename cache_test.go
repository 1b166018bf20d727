package snaptree_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mwantia/snaptree/data"
)

// TestCache_IdempotentReads verifies that repeated loads of the same path
// return the identical slice and issue exactly one underlying fetch.
func TestCache_IdempotentReads(t *testing.T) {
	ctx := t.Context()
	src := newStubSource()
	src.set("/r", dirEntry(1, "/r/x"), fileEntry(2, "/r/y"))

	cache := newTestCache(t, src, data.BrowseContext{RootID: 1, SnapshotID: 9})

	first, err := cache.Load(ctx, "/r")
	if err != nil {
		t.Fatalf("First load failed: %v", err)
	}
	second, err := cache.Load(ctx, "/r")
	if err != nil {
		t.Fatalf("Second load failed: %v", err)
	}

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 entries, got %d and %d", len(first), len(second))
	}
	if &first[0] != &second[0] {
		t.Error("loads returned different slices")
	}
	if got := src.count("/r"); got != 1 {
		t.Errorf("expected 1 fetch, got %d", got)
	}

	cached, ok := cache.GetCached("/r")
	if !ok {
		t.Fatal("expected cached entries")
	}
	if &cached[0] != &first[0] {
		t.Error("GetCached returned a different slice")
	}
}

// TestCache_GetCachedNeverFetches verifies the synchronous lookup does
// not trigger a fetch.
func TestCache_GetCachedNeverFetches(t *testing.T) {
	src := newStubSource()
	src.set("/r", fileEntry(1, "/r/a"))

	cache := newTestCache(t, src, data.BrowseContext{RootID: 1, SnapshotID: 1})

	if _, ok := cache.GetCached("/r"); ok {
		t.Fatal("expected absent result")
	}
	if got := src.count("/r"); got != 0 {
		t.Errorf("expected 0 fetches, got %d", got)
	}
}

// TestCache_Deduplication verifies that N concurrent loads for the same
// path share one underlying fetch and resolve to the same slice.
func TestCache_Deduplication(t *testing.T) {
	ctx := t.Context()
	src := newStubSource()
	src.set("/r", dirEntry(1, "/r/x"), fileEntry(2, "/r/y"))
	src.hold()

	cache := newTestCache(t, src, data.BrowseContext{RootID: 1, SnapshotID: 1})

	const callers = 8
	results := make([][]data.Entry, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = cache.Load(ctx, "/r")
		}()
	}

	// Give every caller time to join the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	src.release()
	wg.Wait()

	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if len(results[i]) != 2 {
			t.Fatalf("caller %d got %d entries", i, len(results[i]))
		}
		if &results[i][0] != &results[0][0] {
			t.Errorf("caller %d resolved to a different slice", i)
		}
	}

	if got := src.count("/r"); got != 1 {
		t.Errorf("expected 1 fetch for %d callers, got %d", callers, got)
	}
}

// TestCache_StaleDiscard verifies that a fetch resolving after a context
// change never writes into the cache, while its caller still receives
// the computed result.
func TestCache_StaleDiscard(t *testing.T) {
	ctx := t.Context()
	src := newStubSource()
	src.set("/r", fileEntry(1, "/r/a"))
	src.hold()

	cache := newTestCache(t, src, data.BrowseContext{RootID: 1, SnapshotID: 1})

	var (
		loaded []data.Entry
		err    error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		loaded, err = cache.Load(ctx, "/r")
	}()

	// Let the fetch start, then switch contexts while it is in flight.
	time.Sleep(50 * time.Millisecond)
	cache.Reset(data.BrowseContext{RootID: 1, SnapshotID: 2})

	src.release()
	<-done

	if err != nil {
		t.Fatalf("stale load should still resolve, got: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected the computed result, got %d entries", len(loaded))
	}

	if _, ok := cache.GetCached("/r"); ok {
		t.Error("stale result must not appear in the cache")
	}

	// A fresh load under the new context issues its own fetch.
	if _, err := cache.Load(ctx, "/r"); err != nil {
		t.Fatalf("load under new context failed: %v", err)
	}
	if got := src.count("/r"); got != 2 {
		t.Errorf("expected 2 fetches, got %d", got)
	}
}

// TestCache_ResetClearsLoading verifies the reset drops loading flags
// along with the stored entries.
func TestCache_ResetClearsLoading(t *testing.T) {
	ctx := t.Context()
	src := newStubSource()
	src.set("/r", fileEntry(1, "/r/a"))
	src.hold()

	cache := newTestCache(t, src, data.BrowseContext{RootID: 1, SnapshotID: 1})

	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.Load(ctx, "/r")
	}()

	time.Sleep(50 * time.Millisecond)
	if !cache.IsLoading("/r") {
		t.Error("expected path to be loading")
	}

	cache.Reset(data.BrowseContext{RootID: 2, SnapshotID: 1})
	if cache.IsLoading("/r") {
		t.Error("reset should clear loading flags")
	}

	src.release()
	<-done

	if cache.IsLoading("/r") {
		t.Error("expected no loading flag after resolution")
	}
}

// TestCache_FetchFailure verifies failures propagate to the caller,
// are not cached, and do not prevent a later retry from succeeding.
func TestCache_FetchFailure(t *testing.T) {
	ctx := t.Context()
	src := newStubSource()
	boom := errors.New("connection refused")
	src.fail("/r", boom)

	cache := newTestCache(t, src, data.BrowseContext{RootID: 1, SnapshotID: 1})

	if _, err := cache.Load(ctx, "/r"); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got: %v", err)
	}
	if _, ok := cache.GetCached("/r"); ok {
		t.Error("failures must not be cached")
	}

	src.fail("/r", nil)
	src.set("/r", fileEntry(1, "/r/a"))

	entries, err := cache.Load(ctx, "/r")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after retry, got %d", len(entries))
	}
	if got := src.count("/r"); got != 2 {
		t.Errorf("expected 2 fetches, got %d", got)
	}
}

// TestCache_IndependentPaths verifies failures and loads on one path
// never affect another.
func TestCache_IndependentPaths(t *testing.T) {
	ctx := t.Context()
	src := newStubSource()
	src.set("/a", fileEntry(1, "/a/x"))
	src.fail("/b", errors.New("server error"))

	cache := newTestCache(t, src, data.BrowseContext{RootID: 1, SnapshotID: 1})

	if _, err := cache.Load(ctx, "/a"); err != nil {
		t.Fatalf("load /a failed: %v", err)
	}
	if _, err := cache.Load(ctx, "/b"); err == nil {
		t.Fatal("expected load /b to fail")
	}

	if _, ok := cache.GetCached("/a"); !ok {
		t.Error("failure on /b must not evict /a")
	}
}
