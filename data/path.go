package data

import (
	"slices"
	"strings"
)

// PathSeparator delimits segments of a browse path.
const PathSeparator = "/"

// PathTop is the canonical parent of the namespace root. It never
// appears as the path of an entry.
const PathTop = ""

// NormalizePath ensures the path starts with a leading slash and
// carries no trailing slashes. The namespace root stays "/" and the
// top marker stays empty.
func NormalizePath(path string) string {
	if path == PathTop {
		return PathTop
	}

	if !strings.HasPrefix(path, PathSeparator) {
		path = PathSeparator + path
	}

	for len(path) > 1 && strings.HasSuffix(path, PathSeparator) {
		path = path[:len(path)-1]
	}

	return path
}

// BaseName returns the final segment of the path, used as display name.
func BaseName(path string) string {
	path = NormalizePath(path)
	if path == PathTop || path == PathSeparator {
		return path
	}

	idx := strings.LastIndex(path, PathSeparator)
	return path[idx+1:]
}

// ParentOf drops the last non-empty segment of the path.
// The parent of the namespace root is the canonical top marker.
func ParentOf(path string) string {
	path = NormalizePath(path)
	if path == PathTop || path == PathSeparator {
		return PathTop
	}

	idx := strings.LastIndex(path, PathSeparator)
	if idx <= 0 {
		return PathSeparator
	}

	return path[:idx]
}

// JoinPath constructs a child path from parent + name.
func JoinPath(parentPath, name string) string {
	parentPath = NormalizePath(parentPath)
	if parentPath == PathSeparator || parentPath == PathTop {
		return PathSeparator + name
	}

	return parentPath + PathSeparator + name
}

// IsImmediateChildOf reports whether child is a direct child of parent,
// meaning child starts with parent and the remainder contains exactly
// one further segment.
func IsImmediateChildOf(child, parent string) bool {
	child = NormalizePath(child)
	parent = NormalizePath(parent)

	if child == parent || !strings.HasPrefix(child, parent) {
		return false
	}

	rest := child[len(parent):]
	if parent != PathSeparator {
		if !strings.HasPrefix(rest, PathSeparator) {
			return false
		}
		rest = rest[1:]
	}

	return rest != "" && !strings.Contains(rest, PathSeparator)
}

// FilterImmediateChildren returns the entries that are direct children
// of parentPath.
func FilterImmediateChildren(entries []Entry, parentPath string) []Entry {
	children := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if IsImmediateChildOf(entry.Path, parentPath) {
			children = append(children, entry)
		}
	}

	return children
}

// SortForDisplay orders entries in place for display: directories
// before non-directories, case-insensitive lexical order by name within
// each group. Every consumer applies the same ordering so the flat
// array's pre-order property stays stable and reproducible.
func SortForDisplay(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		aDir := a.Kind == KindDirectory
		bDir := b.Kind == KindDirectory
		if aDir != bDir {
			if aDir {
				return -1
			}
			return 1
		}

		if cmp := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); cmp != 0 {
			return cmp
		}

		return strings.Compare(a.Name, b.Name)
	})
}

// AncestorChain returns the ordered list of paths from rootPath down to
// targetPath inclusive. A target equal to the root yields only the root
// itself; a target outside the root returns ErrOutsidePath.
func AncestorChain(rootPath, targetPath string) ([]string, error) {
	rootPath = NormalizePath(rootPath)
	targetPath = NormalizePath(targetPath)

	if rootPath == PathTop || targetPath == PathTop {
		return nil, ErrInvalidPath
	}

	if targetPath == rootPath {
		return []string{rootPath}, nil
	}

	rest := strings.TrimPrefix(targetPath, rootPath)
	if rest == targetPath {
		return nil, ErrOutsidePath
	}
	if rootPath != PathSeparator {
		if !strings.HasPrefix(rest, PathSeparator) {
			return nil, ErrOutsidePath
		}
		rest = rest[1:]
	}

	chain := []string{rootPath}
	current := rootPath
	for segment := range strings.SplitSeq(rest, PathSeparator) {
		current = JoinPath(current, segment)
		chain = append(chain, current)
	}

	return chain, nil
}
