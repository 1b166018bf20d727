package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/btree"

	"github.com/mwantia/snaptree/data"
)

// MemorySource holds whole snapshots in memory, keyed so that the
// children of one parent path form a contiguous key range:
//
//	<root>/<snapshot> \x00 <parentPath> \x00 <name>
//
// Fetching immediate children is then a single ordered prefix scan over
// the B-tree. Intended for tests, fixtures and demos.
type MemorySource struct {
	mu      sync.RWMutex
	entries *btree.Map[string, data.Entry]
	nextID  int64
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		entries: btree.NewMap[string, data.Entry](0),
		nextID:  1,
	}
}

// Name returns the identifier name defined for this source.
func (*MemorySource) Name() string {
	return "memory"
}

// Open is part of the lifecycle behaviour and gets called when opening this source.
func (ms *MemorySource) Open(ctx context.Context) error {
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this source.
func (ms *MemorySource) Close(ctx context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.entries.Clear()
	return nil
}

// AddSnapshot registers entries as part of the snapshot identified by
// the browse context. Entries without an id are assigned one; names are
// derived from the path when empty.
func (ms *MemorySource) AddSnapshot(bctx data.BrowseContext, entries []data.Entry) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, entry := range entries {
		entry.Path = data.NormalizePath(entry.Path)
		if entry.Name == "" {
			entry.Name = data.BaseName(entry.Path)
		}
		if entry.ID == 0 {
			entry.ID = ms.nextID
			ms.nextID++
		}

		parent := data.ParentOf(entry.Path)
		ms.entries.Set(entryKey(bctx, parent, entry.Name), entry)
	}
}

// FetchImmediateChildren returns every direct child of parentPath
// under the given browse context.
func (ms *MemorySource) FetchImmediateChildren(ctx context.Context, bctx data.BrowseContext, parentPath string) ([]data.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parentPath = data.NormalizePath(parentPath)
	prefix := entryKey(bctx, parentPath, "")

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	children := make([]data.Entry, 0)
	ms.entries.Ascend(prefix, func(key string, entry data.Entry) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}

		children = append(children, entry)
		return true
	})

	return children, nil
}

func entryKey(bctx data.BrowseContext, parentPath, name string) string {
	return fmt.Sprintf("%d/%d\x00%s\x00%s", bctx.RootID, bctx.SnapshotID, parentPath, name)
}
