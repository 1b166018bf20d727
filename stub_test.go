package snaptree_test

import (
	"context"
	"sync"
	"testing"

	"github.com/mwantia/snaptree"
	"github.com/mwantia/snaptree/data"
	"github.com/mwantia/snaptree/log"
)

// stubSource is a scriptable in-test child source that counts fetches
// per path and can hold fetches open until released.
type stubSource struct {
	mu       sync.Mutex
	children map[string][]data.Entry
	errs     map[string]error
	fetches  map[string]int

	// When set, fetches block until the channel is closed.
	gate chan struct{}
}

func newStubSource() *stubSource {
	return &stubSource{
		children: make(map[string][]data.Entry),
		errs:     make(map[string]error),
		fetches:  make(map[string]int),
	}
}

func (s *stubSource) set(parentPath string, entries ...data.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children[parentPath] = entries
}

func (s *stubSource) fail(parentPath string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, parentPath)
	} else {
		s.errs[parentPath] = err
	}
}

func (s *stubSource) count(parentPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[parentPath]
}

func (s *stubSource) hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
}

func (s *stubSource) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.gate)
	s.gate = nil
}

func (s *stubSource) Name() string {
	return "stub"
}

func (s *stubSource) Open(ctx context.Context) error {
	return nil
}

func (s *stubSource) Close(ctx context.Context) error {
	return nil
}

func (s *stubSource) FetchImmediateChildren(ctx context.Context, bctx data.BrowseContext, parentPath string) ([]data.Entry, error) {
	s.mu.Lock()
	s.fetches[parentPath]++
	gate := s.gate
	err := s.errs[parentPath]
	entries := s.children[parentPath]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func dirEntry(id int64, path string) data.Entry {
	return data.NewEntry(id, path, data.KindDirectory)
}

func fileEntry(id int64, path string) data.Entry {
	return data.NewEntry(id, path, data.KindFile)
}

func newTestCache(tst *testing.T, src *stubSource, bctx data.BrowseContext) *snaptree.ChildrenCache {
	tst.Helper()

	cache, err := snaptree.NewChildrenCache(src, bctx, snaptree.WithLogLevel(log.Error))
	if err != nil {
		tst.Fatalf("Failed to create cache: %v", err)
	}

	return cache
}

func newTestTree(tst *testing.T, cache *snaptree.ChildrenCache) *snaptree.VirtualTree {
	tst.Helper()

	tree, err := snaptree.NewVirtualTree(cache, snaptree.WithLogLevel(log.Error))
	if err != nil {
		tst.Fatalf("Failed to create tree: %v", err)
	}

	return tree
}
