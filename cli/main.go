package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwantia/snaptree"
	"github.com/mwantia/snaptree/cli/tui"
	"github.com/mwantia/snaptree/data"
	"github.com/mwantia/snaptree/log"
	"github.com/mwantia/snaptree/source"
	"github.com/mwantia/snaptree/source/httpapi"
	"github.com/mwantia/snaptree/source/memory"
	"github.com/mwantia/snaptree/source/sqlite"
)

var (
	dbPath     = flag.String("db", "", "Browse a SQLite snapshot index at this path")
	indexDir   = flag.String("index", "", "Index a local directory into -db before browsing")
	serveAddr  = flag.String("serve", "", "Serve the children endpoint on this address instead of the TUI")
	connectURL = flag.String("connect", "", "Browse a remote children endpoint at this base URL")
	logFile    = flag.String("log-file", "", "Write logs to this file")
	logLevel   = flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	// The TUI owns the terminal, so logs only go to the optional file.
	logger := log.NewLogger("snaptree", log.Parse(*logLevel), *logFile, true)

	src, snapshots, err := buildSource(ctx, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up source: %v\n", err)
		os.Exit(1)
	}

	if err := src.Open(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open source '%s': %v\n", src.Name(), err)
		os.Exit(1)
	}
	defer src.Close(ctx)

	if *serveAddr != "" {
		server := httpapi.NewServer(src, log.NewLogger("snaptree", log.Parse(*logLevel), *logFile, false))
		if err := server.Start(*serveAddr); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cache, err := snaptree.NewChildrenCache(src, snapshots[0],
		snaptree.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create cache: %v\n", err)
		os.Exit(1)
	}

	tree, err := snaptree.NewVirtualTree(cache, snaptree.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create tree: %v\n", err)
		os.Exit(1)
	}

	model := tui.NewModel(ctx, cache, tree, snapshots)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
}

// buildSource picks the child source from the flags: a remote endpoint,
// a SQLite index (optionally freshly built from a local directory) or
// the built-in demo snapshots.
func buildSource(ctx context.Context, logger *log.Logger) (source.ChildSource, []data.BrowseContext, error) {
	if *connectURL != "" {
		return httpapi.NewClientSource(*connectURL), []data.BrowseContext{{RootID: 1, SnapshotID: 1}}, nil
	}

	if *dbPath != "" {
		src, err := sqlite.NewSQLiteSource(*dbPath)
		if err != nil {
			return nil, nil, err
		}

		bctx := data.BrowseContext{RootID: 1, SnapshotID: 1}
		if *indexDir != "" {
			count, err := src.IndexDirectory(ctx, bctx, *indexDir)
			if err != nil {
				return nil, nil, err
			}
			logger.Info("Indexed %d entries from %s", count, *indexDir)
		}

		return src, []data.BrowseContext{bctx}, nil
	}

	return demoSource()
}

// demoSource builds an in-memory source with two snapshots of the same
// namespace, so snapshot switching and change annotations can be tried
// without any backing service.
func demoSource() (source.ChildSource, []data.BrowseContext, error) {
	first := data.BrowseContext{RootID: 1, SnapshotID: 1}
	second := data.BrowseContext{RootID: 1, SnapshotID: 2}

	src := memory.NewMemorySource()

	size := func(n int64) *int64 { return &n }

	src.AddSnapshot(first, []data.Entry{
		{Path: "/home", Kind: data.KindDirectory},
		{Path: "/home/user", Kind: data.KindDirectory},
		{Path: "/home/user/documents", Kind: data.KindDirectory},
		{Path: "/home/user/documents/readme.txt", Kind: data.KindFile, Size: size(24)},
		{Path: "/home/user/documents/notes.txt", Kind: data.KindFile, Size: size(512)},
		{Path: "/home/user/downloads", Kind: data.KindDirectory},
		{Path: "/home/user/downloads/file1.dat", Kind: data.KindFile, Size: size(1 << 20)},
		{Path: "/etc", Kind: data.KindDirectory},
		{Path: "/etc/config.conf", Kind: data.KindFile, Size: size(96)},
		{Path: "/var", Kind: data.KindDirectory},
		{Path: "/var/log", Kind: data.KindDirectory},
		{Path: "/var/log/system.log", Kind: data.KindFile, Size: size(4096)},
	})

	src.AddSnapshot(second, []data.Entry{
		{Path: "/home", Kind: data.KindDirectory},
		{Path: "/home/user", Kind: data.KindDirectory},
		{Path: "/home/user/documents", Kind: data.KindDirectory},
		{Path: "/home/user/documents/readme.txt", Kind: data.KindFile, Size: size(48), Change: data.ChangeModified},
		{Path: "/home/user/documents/notes.txt", Kind: data.KindFile, IsDeleted: true, Change: data.ChangeDeleted},
		{Path: "/home/user/documents/draft.md", Kind: data.KindFile, Size: size(256), Change: data.ChangeAdded},
		{Path: "/home/user/downloads", Kind: data.KindDirectory},
		{Path: "/home/user/downloads/file1.dat", Kind: data.KindFile, Size: size(1 << 20)},
		{Path: "/etc", Kind: data.KindDirectory},
		{Path: "/etc/config.conf", Kind: data.KindFile, Size: size(96)},
		{Path: "/var", Kind: data.KindDirectory},
		{Path: "/var/log", Kind: data.KindDirectory},
		{Path: "/var/log/system.log", Kind: data.KindFile, Size: size(8192), Change: data.ChangeModified},
	})

	return src, []data.BrowseContext{first, second}, nil
}
