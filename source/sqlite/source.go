package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/mwantia/snaptree/data"
)

// SQLiteSource serves snapshot indexes persisted in SQLite. Every entry
// row carries its parent path, so fetching the immediate children of a
// path is a single indexed lookup regardless of namespace size.
//
// The same database can hold any number of (root, snapshot) namespaces.
type SQLiteSource struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteSource creates a SQLite-backed child source. The dbPath can
// be ":memory:" for an in-memory database or a file path.
func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	src := &SQLiteSource{
		db: db,
	}

	if err := src.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return src, nil
}

// initSchema creates the database schema.
func (ss *SQLiteSource) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snap_entries (
		root_id INTEGER NOT NULL,
		snapshot_id INTEGER NOT NULL,
		id INTEGER NOT NULL,
		path TEXT NOT NULL,
		parent_path TEXT NOT NULL,
		name TEXT NOT NULL,
		kind INTEGER NOT NULL,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		size INTEGER,
		modified_at INTEGER,
		change_class INTEGER NOT NULL DEFAULT 0,
		child_count INTEGER NOT NULL DEFAULT 0,
		descendant_total INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (root_id, snapshot_id, path)
	);
	CREATE INDEX IF NOT EXISTS idx_snap_entries_parent
		ON snap_entries(root_id, snapshot_id, parent_path);
	`

	_, err := ss.db.Exec(schema)
	return err
}

// Name returns the identifier name defined for this source.
func (*SQLiteSource) Name() string {
	return "sqlite"
}

// Open is part of the lifecycle behaviour and gets called when opening this source.
func (ss *SQLiteSource) Open(ctx context.Context) error {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	return ss.db.PingContext(ctx)
}

// Close is part of the lifecycle behaviour and gets called when closing this source.
func (ss *SQLiteSource) Close(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	return ss.db.Close()
}

// FetchImmediateChildren returns every direct child of parentPath
// under the given browse context, including logically-deleted entries.
func (ss *SQLiteSource) FetchImmediateChildren(ctx context.Context, bctx data.BrowseContext, parentPath string) ([]data.Entry, error) {
	parentPath = data.NormalizePath(parentPath)

	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.QueryContext(ctx, `
		SELECT id, path, name, kind, is_deleted, size, modified_at,
		       change_class, child_count, descendant_total
		FROM snap_entries
		WHERE root_id = ? AND snapshot_id = ? AND parent_path = ?`,
		bctx.RootID, bctx.SnapshotID, parentPath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]data.Entry, 0)
	for rows.Next() {
		var entry data.Entry
		var kind, change int
		var deleted int
		var size, modified sql.NullInt64

		if err := rows.Scan(&entry.ID, &entry.Path, &entry.Name, &kind, &deleted,
			&size, &modified, &change, &entry.ChildCount, &entry.DescendantTotal); err != nil {
			return nil, err
		}

		entry.Kind = data.EntryKind(kind)
		entry.Change = data.ChangeClassification(change)
		entry.IsDeleted = deleted != 0
		if size.Valid {
			value := size.Int64
			entry.Size = &value
		}
		if modified.Valid {
			when := time.Unix(modified.Int64, 0).UTC()
			entry.ModifiedAt = &when
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// InsertEntries stores entries as part of the snapshot identified by
// the browse context. Entries without an id are assigned the next free
// one within the context.
func (ss *SQLiteSource) InsertEntries(ctx context.Context, bctx data.BrowseContext, entries []data.Entry) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var nextID int64
	row := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(id), 0) + 1 FROM snap_entries
		WHERE root_id = ? AND snapshot_id = ?`,
		bctx.RootID, bctx.SnapshotID)
	if err := row.Scan(&nextID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO snap_entries
			(root_id, snapshot_id, id, path, parent_path, name, kind, is_deleted,
			 size, modified_at, change_class, child_count, descendant_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range entries {
		entry.Path = data.NormalizePath(entry.Path)
		if entry.Name == "" {
			entry.Name = data.BaseName(entry.Path)
		}
		if entry.ID == 0 {
			entry.ID = nextID
			nextID++
		}

		var size, modified any
		if entry.Size != nil {
			size = *entry.Size
		}
		if entry.ModifiedAt != nil {
			modified = entry.ModifiedAt.Unix()
		}

		deleted := 0
		if entry.IsDeleted {
			deleted = 1
		}

		if _, err := stmt.ExecContext(ctx, bctx.RootID, bctx.SnapshotID, entry.ID,
			entry.Path, data.ParentOf(entry.Path), entry.Name, int(entry.Kind), deleted,
			size, modified, int(entry.Change), entry.ChildCount, entry.DescendantTotal); err != nil {
			return err
		}
	}

	return tx.Commit()
}
