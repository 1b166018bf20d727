package data

import (
	"fmt"
	"time"
)

// EntryKind identifies the type of a browsed filesystem item.
type EntryKind int

// Entry kind constants matching common filesystem item types.
const (
	KindFile      EntryKind = iota // Regular file
	KindDirectory                  // Directory
	KindSymlink                    // Symbolic link
	KindOther                      // Device, socket, etc.
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParseEntryKind converts a kind name back into an EntryKind.
// Unknown names map to KindOther.
func ParseEntryKind(kind string) EntryKind {
	switch kind {
	case "file":
		return KindFile
	case "directory":
		return KindDirectory
	case "symlink":
		return KindSymlink
	default:
		return KindOther
	}
}

// ChangeClassification annotates how an entry changed between snapshots.
// It is carried through the browse layer untouched.
type ChangeClassification int

const (
	ChangeUnchanged ChangeClassification = iota
	ChangeAdded
	ChangeModified
	ChangeDeleted
)

func (c ChangeClassification) String() string {
	switch c {
	case ChangeUnchanged:
		return "unchanged"
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ParseChangeClassification converts a classification name back into a
// ChangeClassification. Unknown names map to ChangeUnchanged.
func ParseChangeClassification(change string) ChangeClassification {
	switch change {
	case "added":
		return ChangeAdded
	case "modified":
		return ChangeModified
	case "deleted":
		return ChangeDeleted
	default:
		return ChangeUnchanged
	}
}

// BrowseContext identifies which hierarchical namespace and which
// point-in-time view of it is being browsed. Changing either field
// invalidates all cached data belonging to the old context.
type BrowseContext struct {
	RootID     int64
	SnapshotID int64
}

func (bc BrowseContext) String() string {
	return fmt.Sprintf("root=%d snapshot=%d", bc.RootID, bc.SnapshotID)
}

// Entry is a single filesystem item as loaded for browsing.
// Within one BrowseContext the Path uniquely identifies an Entry.
type Entry struct {
	ID   int64
	Path string
	Name string
	Kind EntryKind

	// IsDeleted marks items that no longer exist as of the selected
	// snapshot but are still shown unless filtered out by a view.
	IsDeleted bool

	Size       *int64
	ModifiedAt *time.Time

	// Change and the aggregate counts are optional annotations,
	// opaque to the cache and tree logic.
	Change          ChangeClassification
	ChildCount      int64
	DescendantTotal int64
}

// NewEntry creates an entry for the given path, deriving the display
// name from the final path segment.
func NewEntry(id int64, path string, kind EntryKind) Entry {
	path = NormalizePath(path)

	return Entry{
		ID:   id,
		Path: path,
		Name: BaseName(path),
		Kind: kind,
	}
}
