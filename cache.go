// Package snaptree is a client-side data layer for browsing an
// enormous, lazily-materialized hierarchical namespace. It provides a
// shared children cache with in-flight request deduplication and
// stale-write protection, and a virtualized flat tree that keeps the
// currently-expanded subset of the hierarchy as a single depth-annotated
// array suitable for a virtualized list renderer. Several tree instances
// may share one cache, so switching views never re-fetches paths that
// were already seen.
package snaptree

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mwantia/snaptree/data"
	"github.com/mwantia/snaptree/log"
	"github.com/mwantia/snaptree/source"
)

// ChildrenCache stores the immediate children of already-visited paths
// under a single browse context. Concurrent loads for the same path
// share one underlying fetch, and results computed under a superseded
// context are never written into the store.
//
// The cache is safe for shared use by multiple tree instances bound to
// the same context. Ownership is held by whatever orchestrates view
// lifetime; call Reset when the browsed root or snapshot changes.
type ChildrenCache struct {
	src    source.ChildSource
	logger *log.Logger

	mu      sync.RWMutex
	bctx    data.BrowseContext
	gen     uint64
	entries map[string][]data.Entry
	loading map[string]int

	group *singleflight.Group
}

// NewChildrenCache creates a cache bound to the given source and
// browse context.
func NewChildrenCache(src source.ChildSource, bctx data.BrowseContext, opts ...Option) (*ChildrenCache, error) {
	if src == nil {
		return nil, ErrNoSource
	}

	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	return &ChildrenCache{
		src:     src,
		logger:  options.logger("cache"),
		bctx:    bctx,
		entries: make(map[string][]data.Entry),
		loading: make(map[string]int),
		group:   &singleflight.Group{},
	}, nil
}

// Context returns the browse context the cache is currently bound to.
func (cc *ChildrenCache) Context() data.BrowseContext {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	return cc.bctx
}

// GetCached returns the cached children of parentPath, if present.
// It never triggers a fetch.
func (cc *ChildrenCache) GetCached(parentPath string) ([]data.Entry, bool) {
	parentPath = data.NormalizePath(parentPath)

	cc.mu.RLock()
	defer cc.mu.RUnlock()

	entries, ok := cc.entries[parentPath]
	return entries, ok
}

// IsLoading reports whether a fetch for parentPath is outstanding.
func (cc *ChildrenCache) IsLoading(parentPath string) bool {
	parentPath = data.NormalizePath(parentPath)

	cc.mu.RLock()
	defer cc.mu.RUnlock()

	return cc.loading[parentPath] > 0
}

// Load returns the children of parentPath, fetching them if needed.
// A cached result is returned as-is; a fetch already in flight for the
// same path is joined instead of issuing a duplicate request. Fetch
// failures are returned to the caller and never cached.
func (cc *ChildrenCache) Load(ctx context.Context, parentPath string) ([]data.Entry, error) {
	parentPath = data.NormalizePath(parentPath)

	cc.mu.Lock()
	if entries, ok := cc.entries[parentPath]; ok {
		cc.mu.Unlock()
		return entries, nil
	}

	// Everything an in-flight fetch needs is captured here; on resume
	// the current generation is re-read so a reset in between leaves
	// the store untouched.
	captured := cc.bctx
	gen := cc.gen
	group := cc.group
	loading := cc.loading
	loading[parentPath]++
	cc.mu.Unlock()

	defer func() {
		cc.mu.Lock()
		loading[parentPath]--
		if loading[parentPath] <= 0 {
			delete(loading, parentPath)
		}
		cc.mu.Unlock()
	}()

	result, err, shared := group.Do(parentPath, func() (any, error) {
		entries, err := cc.src.FetchImmediateChildren(ctx, captured, parentPath)
		if err != nil {
			return nil, err
		}

		cc.mu.Lock()
		if cc.gen == gen {
			cc.entries[parentPath] = entries
		} else {
			cc.logger.Debug("Discarding stale children of '%s' (%s superseded by %s)",
				parentPath, captured, cc.bctx)
		}
		cc.mu.Unlock()

		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		cc.logger.Trace("Joined in-flight fetch for '%s'", parentPath)
	}

	return result.([]data.Entry), nil
}

// Reset rebinds the cache to a new browse context, dropping all stored
// children and forgetting all in-flight joins. Fetches still running
// under the old context resolve normally for their callers but can no
// longer write into the store.
func (cc *ChildrenCache) Reset(bctx data.BrowseContext) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.bctx = bctx
	cc.gen++
	cc.entries = make(map[string][]data.Entry)
	cc.loading = make(map[string]int)
	cc.group = &singleflight.Group{}

	cc.logger.Debug("Cache reset to %s", bctx)
}
