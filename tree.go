package snaptree

import (
	"context"
	"slices"
	"sync"

	"github.com/mwantia/snaptree/data"
	"github.com/mwantia/snaptree/log"
)

// VirtualTree maintains the flat, depth-annotated array of nodes that a
// virtualized list renderer consumes. Expanding a node fetches its
// children through the shared ChildrenCache and splices them in right
// after it; collapsing removes exactly the contiguous run of deeper
// nodes that follows. The array is owned exclusively by the tree and
// only changes through Initialize, Toggle and Reveal.
type VirtualTree struct {
	cache  *ChildrenCache
	logger *log.Logger

	mu      sync.Mutex
	nodes   []*data.FlatTreeNode
	loading map[int64]struct{}

	// Per-node generation counters, bumped whenever a node is
	// collapsed or evicted. A load resuming with an outdated
	// generation must not splice.
	gens  map[int64]uint64
	epoch uint64
}

// NewVirtualTree creates an empty tree reading from the given cache.
// Several trees may share one cache instance.
func NewVirtualTree(cache *ChildrenCache, opts ...Option) (*VirtualTree, error) {
	if cache == nil {
		return nil, ErrNoCache
	}

	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	return &VirtualTree{
		cache:   cache,
		logger:  options.logger("tree"),
		loading: make(map[int64]struct{}),
		gens:    make(map[int64]uint64),
	}, nil
}

// Initialize replaces the flat array with exactly the given entries at
// depth 0, each collapsed and not yet loaded.
func (vt *VirtualTree) Initialize(rootEntries []data.Entry) {
	sorted := make([]data.Entry, len(rootEntries))
	copy(sorted, rootEntries)
	data.SortForDisplay(sorted)

	vt.mu.Lock()
	defer vt.mu.Unlock()

	vt.nodes = make([]*data.FlatTreeNode, len(sorted))
	for i, entry := range sorted {
		vt.nodes[i] = data.NewFlatTreeNode(entry, 0)
	}
	vt.loading = make(map[int64]struct{})
	vt.gens = make(map[int64]uint64)
	vt.epoch++
}

// Nodes returns a snapshot copy of the current flat array, in render
// order.
func (vt *VirtualTree) Nodes() []data.FlatTreeNode {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	nodes := make([]data.FlatTreeNode, len(vt.nodes))
	for i, node := range vt.nodes {
		nodes[i] = *node
	}

	return nodes
}

// Len returns the number of visible nodes.
func (vt *VirtualTree) Len() int {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	return len(vt.nodes)
}

// IsLoading reports whether the node has an outstanding children fetch.
func (vt *VirtualTree) IsLoading(nodeID int64) bool {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	_, ok := vt.loading[nodeID]
	return ok
}

// Toggle flips the expansion state of the node. Expanding a node whose
// children were never loaded fetches them first; a failed fetch leaves
// the node collapsed and is returned to the caller, who may retry by
// toggling again. Toggling a node that cannot have children is a no-op,
// as is toggling a node whose fetch is already in flight.
func (vt *VirtualTree) Toggle(ctx context.Context, nodeID int64) error {
	vt.mu.Lock()

	idx := vt.indexOfLocked(nodeID)
	if idx < 0 {
		vt.mu.Unlock()
		return ErrUnknownNode
	}
	node := vt.nodes[idx]

	switch {
	case !node.HasChildren:
		vt.mu.Unlock()
		return nil

	case node.IsExpanded:
		vt.collapseLocked(idx)
		vt.mu.Unlock()
		return nil

	case node.ChildrenLoaded:
		// Children are still physically present from a prior load;
		// nothing to fetch or splice.
		node.IsExpanded = true
		vt.mu.Unlock()
		return nil
	}

	if _, busy := vt.loading[nodeID]; busy {
		vt.mu.Unlock()
		return nil
	}
	vt.loading[nodeID] = struct{}{}
	path := node.Path
	epoch, gen := vt.epoch, vt.gens[nodeID]
	vt.mu.Unlock()

	entries, err := vt.cache.Load(ctx, path)

	vt.mu.Lock()
	defer vt.mu.Unlock()
	delete(vt.loading, nodeID)

	if err != nil {
		vt.logger.Debug("Failed to load children of '%s': %v", path, err)
		return err
	}

	vt.expandLocked(nodeID, epoch, gen, entries)
	return nil
}

// Reveal expands every ancestor of targetPath below rootPath so the
// target becomes visible, and returns its node id. Ancestors that are
// already expanded stay untouched; siblings are never expanded. A
// target whose chain cannot be walked (an ancestor is missing from the
// array, e.g. filtered out) reports found=false. A target that is not
// located under rootPath is a contract violation and fails with
// data.ErrOutsidePath.
func (vt *VirtualTree) Reveal(ctx context.Context, targetPath, rootPath string) (int64, bool, error) {
	chain, err := data.AncestorChain(rootPath, targetPath)
	if err != nil {
		return 0, false, err
	}

	for _, ancestor := range chain[:len(chain)-1] {
		vt.mu.Lock()

		idx := vt.indexOfPathLocked(ancestor)
		if idx < 0 {
			vt.mu.Unlock()
			// The namespace root itself is usually not materialized
			// as a node; only its children are.
			if ancestor == chain[0] {
				continue
			}
			return 0, false, nil
		}
		node := vt.nodes[idx]

		if !node.HasChildren {
			vt.mu.Unlock()
			return 0, false, nil
		}
		if node.IsExpanded {
			vt.mu.Unlock()
			continue
		}
		if node.ChildrenLoaded {
			node.IsExpanded = true
			vt.mu.Unlock()
			continue
		}

		nodeID := node.ID
		path := node.Path
		epoch, gen := vt.epoch, vt.gens[nodeID]
		vt.mu.Unlock()

		// Joins any fetch already in flight for this path.
		entries, err := vt.cache.Load(ctx, path)
		if err != nil {
			return 0, false, err
		}

		vt.mu.Lock()
		vt.expandLocked(nodeID, epoch, gen, entries)
		vt.mu.Unlock()
	}

	vt.mu.Lock()
	defer vt.mu.Unlock()

	idx := vt.indexOfPathLocked(data.NormalizePath(targetPath))
	if idx < 0 {
		return 0, false, nil
	}

	return vt.nodes[idx].ID, true, nil
}

// expandLocked splices loaded children under the node, unless the tree
// moved on while the fetch was in flight. The insertion index is
// recomputed here because concurrent splices elsewhere in the array may
// have shifted positions since the load began.
func (vt *VirtualTree) expandLocked(nodeID int64, epoch, gen uint64, entries []data.Entry) {
	if vt.epoch != epoch || vt.gens[nodeID] != gen {
		vt.logger.Trace("Skipping splice for node %d, no longer the active load", nodeID)
		return
	}

	idx := vt.indexOfLocked(nodeID)
	if idx < 0 {
		return
	}
	node := vt.nodes[idx]
	if node.IsExpanded {
		return
	}

	sorted := make([]data.Entry, len(entries))
	copy(sorted, entries)
	data.SortForDisplay(sorted)

	children := make([]*data.FlatTreeNode, len(sorted))
	for i, entry := range sorted {
		children[i] = data.NewFlatTreeNode(entry, node.Depth+1)
	}

	vt.nodes = slices.Insert(vt.nodes, idx+1, children...)
	node.IsExpanded = true
	node.ChildrenLoaded = true
}

// collapseLocked removes the contiguous run of nodes deeper than the
// node at idx, which by the pre-order invariant is exactly its visible
// subtree. The node's children are re-fetched on the next expand; the
// shared cache makes that cheap.
func (vt *VirtualTree) collapseLocked(idx int) {
	node := vt.nodes[idx]

	end := idx + 1
	for end < len(vt.nodes) && vt.nodes[end].Depth > node.Depth {
		end++
	}

	for _, evicted := range vt.nodes[idx+1 : end] {
		vt.gens[evicted.ID]++
	}

	vt.nodes = slices.Delete(vt.nodes, idx+1, end)
	node.IsExpanded = false
	node.ChildrenLoaded = false
	vt.gens[node.ID]++
}

func (vt *VirtualTree) indexOfLocked(nodeID int64) int {
	for i, node := range vt.nodes {
		if node.ID == nodeID {
			return i
		}
	}

	return -1
}

func (vt *VirtualTree) indexOfPathLocked(path string) int {
	for i, node := range vt.nodes {
		if node.Path == path {
			return i
		}
	}

	return -1
}
