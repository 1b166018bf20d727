package sqlite

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/mwantia/snaptree/data"
)

// IndexDirectory walks a local directory and materializes it as the
// snapshot identified by the browse context, rooted at "/". Returns the
// number of indexed entries. Symlinks are recorded but not followed.
func (ss *SQLiteSource) IndexDirectory(ctx context.Context, bctx data.BrowseContext, dir string) (int, error) {
	dir = filepath.Clean(dir)

	var entries []data.Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == dir {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		entry := data.Entry{
			Path: data.PathSeparator + filepath.ToSlash(rel),
			Name: d.Name(),
			Kind: kindOf(d),
		}

		if entry.Kind == data.KindFile {
			info, err := d.Info()
			if err != nil {
				return err
			}

			size := info.Size()
			modified := info.ModTime().UTC()
			entry.Size = &size
			entry.ModifiedAt = &modified
		}

		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("index %s: %w", dir, err)
	}

	fillAggregates(entries)

	if err := ss.InsertEntries(ctx, bctx, entries); err != nil {
		return 0, err
	}

	return len(entries), nil
}

func kindOf(d fs.DirEntry) data.EntryKind {
	switch {
	case d.IsDir():
		return data.KindDirectory
	case d.Type()&fs.ModeSymlink != 0:
		return data.KindSymlink
	case d.Type().IsRegular():
		return data.KindFile
	default:
		return data.KindOther
	}
}

// fillAggregates computes the per-directory child and descendant counts
// carried as opaque annotations.
func fillAggregates(entries []data.Entry) {
	childCount := make(map[string]int64)
	descendants := make(map[string]int64)

	for _, entry := range entries {
		childCount[data.ParentOf(entry.Path)]++

		prefix := data.ParentOf(entry.Path)
		for prefix != data.PathTop && prefix != data.PathSeparator {
			descendants[prefix]++
			prefix = data.ParentOf(prefix)
		}
		if strings.HasPrefix(entry.Path, data.PathSeparator) {
			descendants[data.PathSeparator]++
		}
	}

	for i := range entries {
		if entries[i].Kind != data.KindDirectory {
			continue
		}

		entries[i].ChildCount = childCount[entries[i].Path]
		entries[i].DescendantTotal = descendants[entries[i].Path]
	}
}
