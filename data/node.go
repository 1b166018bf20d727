package data

// FlatTreeNode is one element of the virtualized tree's flat array.
// The full tree state is the single ordered slice of these nodes; depth
// plus positional contiguity is the only index structure. For any node
// at index i with depth d, all of its visible descendants occupy a
// contiguous run of indices immediately following i, each with a depth
// greater than d, terminated by the first subsequent node with depth <= d.
type FlatTreeNode struct {
	Entry

	Depth          int
	IsExpanded     bool
	ChildrenLoaded bool
	HasChildren    bool
}

// NewFlatTreeNode wraps an entry for the flat array at the given depth,
// collapsed and not yet loaded.
func NewFlatTreeNode(entry Entry, depth int) *FlatTreeNode {
	return &FlatTreeNode{
		Entry:       entry,
		Depth:       depth,
		HasChildren: entry.Kind == KindDirectory,
	}
}
