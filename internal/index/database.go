// Package index maintains the SQLite full-text index that answers CONTAINS
// predicates and SCORE().
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// Database is the SQLite database handle.
type Database struct {
	db   *sql.DB
	path string // empty for in-memory databases
}

var (
	// ErrIndexLocked indicates another process is rebuilding the index.
	ErrIndexLocked = errors.New("index is locked for rebuild")
)

// CurrentDBVersion is the current database schema version. A database
// written by another version is dropped and recreated on open.
const CurrentDBVersion = 1

// Open opens or creates the index at path. An empty path or ":memory:"
// opens an in-memory index.
func Open(path string) (*Database, error) {
	if path == "" || path == ":memory:" {
		return OpenInMemory()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	d := &Database{db: db, path: path}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// OpenInMemory opens an in-memory database.
func OpenInMemory() (*Database, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) initialize() error {
	if !isSchemaCompatible(d.db) {
		if _, err := d.db.Exec(`DROP TABLE IF EXISTS fts_content; DROP TABLE IF EXISTS meta;`); err != nil {
			return fmt.Errorf("failed to drop stale index: %w", err)
		}
	}

	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS fts_content USING fts5(
			object_id UNINDEXED,
			name,
			title,
			content,
			tokenize='porter unicode61'
		);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	_, err := d.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		strconv.Itoa(CurrentDBVersion))
	if err != nil {
		return fmt.Errorf("failed to set database version: %w", err)
	}
	return nil
}

// isSchemaCompatible reports whether the database is empty or was written
// with CurrentDBVersion.
func isSchemaCompatible(db *sql.DB) bool {
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='meta'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	if err != nil {
		return false
	}
	var version string
	if err := db.QueryRow("SELECT value FROM meta WHERE key = 'version'").Scan(&version); err != nil {
		return false
	}
	return version == strconv.Itoa(CurrentDBVersion)
}

// Document is the indexed text of one repository object.
type Document struct {
	ObjectID string
	Name     string
	Title    string
	Content  string
}

// Rebuild replaces the whole index with docs in one transaction and returns
// the number of documents written.
func (d *Database) Rebuild(ctx context.Context, docs []Document) (int, error) {
	lock, err := d.acquireLock()
	if err != nil {
		return 0, err
	}
	defer lock.Release()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM fts_content"); err != nil {
		return 0, fmt.Errorf("failed to clear index: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fts_content (object_id, name, title, content)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx, doc.ObjectID, doc.Name, doc.Title, doc.Content); err != nil {
			return 0, fmt.Errorf("failed to index %s: %w", doc.ObjectID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Upsert replaces the indexed text of one object.
func (d *Database) Upsert(ctx context.Context, doc Document) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM fts_content WHERE object_id = ?", doc.ObjectID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO fts_content (object_id, name, title, content)
		VALUES (?, ?, ?, ?)
	`, doc.ObjectID, doc.Name, doc.Title, doc.Content)
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", doc.ObjectID, err)
	}
	return tx.Commit()
}

// Remove drops objects from the index.
func (d *Database) Remove(ctx context.Context, objectIDs ...string) error {
	if len(objectIDs) == 0 {
		return nil
	}
	args := make([]any, len(objectIDs))
	for i, id := range objectIDs {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(objectIDs)), ", ")
	if _, err := d.db.ExecContext(ctx, "DELETE FROM fts_content WHERE object_id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("failed to remove objects: %w", err)
	}
	return nil
}

// Count returns the number of indexed documents.
func (d *Database) Count() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM fts_content").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Score returns the relevance of objectID for a full-text term, as the
// negated bm25 rank so that higher is better. ok is false when the object
// does not match.
func (d *Database) Score(term, objectID string) (float64, bool, error) {
	var score float64
	err := d.db.QueryRow(`
		SELECT -bm25(fts_content)
		FROM fts_content
		WHERE fts_content MATCH ? AND object_id = ?
	`, BuildMatchQuery(term), objectID).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("search failed: %w", err)
	}
	return score, true, nil
}

type indexLock struct {
	file *os.File
}

// acquireLock takes the rebuild lock next to a file-backed index.
func (d *Database) acquireLock() (*indexLock, error) {
	if d.path == "" {
		return &indexLock{}, nil
	}
	f, err := os.OpenFile(d.path+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open index lock: %w", err)
	}
	busy, err := tryLock(f)
	if busy || err != nil {
		f.Close()
		if busy {
			return nil, ErrIndexLocked
		}
		return nil, fmt.Errorf("failed to acquire index lock: %w", err)
	}
	return &indexLock{file: f}, nil
}

func (l *indexLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlock(l.file)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
