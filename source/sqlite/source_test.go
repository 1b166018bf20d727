package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/snaptree/data"
	"github.com/mwantia/snaptree/source/sqlite"
)

func newTestSource(tst *testing.T) *sqlite.SQLiteSource {
	tst.Helper()

	src, err := sqlite.NewSQLiteSource(":memory:")
	if err != nil {
		tst.Fatalf("Failed to create source: %v", err)
	}
	tst.Cleanup(func() {
		src.Close(tst.Context())
	})

	return src
}

func TestSQLiteSource_InsertAndFetch(t *testing.T) {
	ctx := t.Context()
	bctx := data.BrowseContext{RootID: 1, SnapshotID: 1}
	src := newTestSource(t)

	size := int64(1024)
	modified := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	err := src.InsertEntries(ctx, bctx, []data.Entry{
		{Path: "/home", Kind: data.KindDirectory, ChildCount: 1, DescendantTotal: 1},
		{Path: "/home/readme.txt", Kind: data.KindFile, Size: &size, ModifiedAt: &modified, Change: data.ChangeModified},
		{Path: "/home/gone.txt", Kind: data.KindFile, IsDeleted: true, Change: data.ChangeDeleted},
	})
	if err != nil {
		t.Fatalf("InsertEntries failed: %v", err)
	}

	children, err := src.FetchImmediateChildren(ctx, bctx, "/home")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}

	byName := make(map[string]data.Entry, len(children))
	for _, child := range children {
		byName[child.Name] = child
	}

	readme, ok := byName["readme.txt"]
	if !ok {
		t.Fatal("readme.txt not returned")
	}
	if readme.Size == nil || *readme.Size != size {
		t.Errorf("size not round-tripped: %v", readme.Size)
	}
	if readme.ModifiedAt == nil || !readme.ModifiedAt.Equal(modified) {
		t.Errorf("modified time not round-tripped: %v", readme.ModifiedAt)
	}
	if readme.Change != data.ChangeModified {
		t.Errorf("change not round-tripped: %v", readme.Change)
	}

	gone, ok := byName["gone.txt"]
	if !ok {
		t.Fatal("deleted entries must still be returned")
	}
	if !gone.IsDeleted || gone.Change != data.ChangeDeleted {
		t.Errorf("deleted flags not round-tripped: %+v", gone)
	}
	if gone.Size != nil {
		t.Errorf("expected nil size, got %v", gone.Size)
	}
}

func TestSQLiteSource_AssignsIDs(t *testing.T) {
	ctx := t.Context()
	bctx := data.BrowseContext{RootID: 1, SnapshotID: 1}
	src := newTestSource(t)

	err := src.InsertEntries(ctx, bctx, []data.Entry{
		{Path: "/r/a", Kind: data.KindFile},
		{Path: "/r/b", Kind: data.KindFile},
	})
	if err != nil {
		t.Fatalf("InsertEntries failed: %v", err)
	}

	children, err := src.FetchImmediateChildren(ctx, bctx, "/r")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	seen := make(map[int64]bool)
	for _, child := range children {
		if child.ID == 0 {
			t.Errorf("entry %s has no id", child.Path)
		}
		if seen[child.ID] {
			t.Errorf("duplicate id %d", child.ID)
		}
		seen[child.ID] = true
	}
}

func TestSQLiteSource_ContextIsolation(t *testing.T) {
	ctx := t.Context()
	first := data.BrowseContext{RootID: 1, SnapshotID: 1}
	second := data.BrowseContext{RootID: 2, SnapshotID: 1}
	src := newTestSource(t)

	if err := src.InsertEntries(ctx, first, []data.Entry{
		{Path: "/r/a", Kind: data.KindFile},
	}); err != nil {
		t.Fatalf("InsertEntries failed: %v", err)
	}

	children, err := src.FetchImmediateChildren(ctx, second, "/r")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(children) != 0 {
		t.Fatalf("expected no children for other root, got %d", len(children))
	}
}

func TestSQLiteSource_IndexDirectory(t *testing.T) {
	ctx := t.Context()
	bctx := data.BrowseContext{RootID: 1, SnapshotID: 1}
	src := newTestSource(t)

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "docs", "inner"), 0o755); err != nil {
		t.Fatalf("Failed to create directories: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "docs", "readme.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "top.txt"), []byte("top"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	count, err := src.IndexDirectory(ctx, bctx, dir)
	if err != nil {
		t.Fatalf("IndexDirectory failed: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 indexed entries, got %d", count)
	}

	roots, err := src.FetchImmediateChildren(ctx, bctx, "/")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("expected 2 root entries, got %d", len(roots))
	}

	for _, entry := range roots {
		switch entry.Name {
		case "docs":
			if entry.Kind != data.KindDirectory {
				t.Errorf("docs should be a directory, got %v", entry.Kind)
			}
			if entry.ChildCount != 2 {
				t.Errorf("docs should have 2 children, got %d", entry.ChildCount)
			}
			if entry.DescendantTotal != 2 {
				t.Errorf("docs should have 2 descendants, got %d", entry.DescendantTotal)
			}
		case "top.txt":
			if entry.Kind != data.KindFile {
				t.Errorf("top.txt should be a file, got %v", entry.Kind)
			}
			if entry.Size == nil || *entry.Size != 3 {
				t.Errorf("top.txt size not recorded: %v", entry.Size)
			}
		default:
			t.Errorf("unexpected root entry %s", entry.Name)
		}
	}

	inDocs, err := src.FetchImmediateChildren(ctx, bctx, "/docs")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(inDocs) != 2 {
		t.Fatalf("expected 2 entries under /docs, got %d", len(inDocs))
	}
}
