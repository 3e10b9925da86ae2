package notes

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by NewStore.
const (
	DriverCgo    = "sqlite3" // mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// Store is the local SQLite backend.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (creating if needed) the database at dbPath with the named
// driver. An empty driver selects DriverCgo.
func NewStore(dbPath, driver string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	var dsn string
	switch driver {
	case "", DriverCgo:
		driver = DriverCgo
		dsn = dbPath + "?_busy_timeout=5000&_journal_mode=WAL"
	case DriverPureGo:
		dsn = "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, path: dbPath, now: func() time.Time { return time.Now().UTC() }}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    text TEXT NOT NULL,
    created_at TEXT NOT NULL,
    last_updated_at TEXT NOT NULL,
    is_deleted INTEGER DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(last_updated_at DESC);
`
	_, err := s.db.Exec(schema)
	return err
}

// generateID creates a new note ID with "nt-" prefix and 8 hex chars.
func generateID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "nt-" + hex.EncodeToString(b), nil
}

// Create inserts a new note.
func (s *Store) Create(ctx context.Context, n Note) (*Note, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("generate ID: %w", err)
	}

	now := s.now()
	n.ID = id
	n.CreatedAt = now
	n.LastUpdatedAt = now
	n.IsDeleted = false

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notes (id, title, text, created_at, last_updated_at, is_deleted)
		VALUES (?, ?, ?, ?, ?, 0)
	`, n.ID, n.Title, n.Text, formatTime(n.CreatedAt), formatTime(n.LastUpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return &n, nil
}

// Update writes title and text of an existing, non-deleted note.
func (s *Store) Update(ctx context.Context, n Note) (*Note, error) {
	n.LastUpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes SET title = ?, text = ?, last_updated_at = ?
		WHERE id = ? AND is_deleted = 0
	`, n.Title, n.Text, formatTime(n.LastUpdatedAt), n.ID)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if err := requireRow(res, n.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, n.ID)
}

// Delete soft-deletes a note.
func (s *Store) Delete(ctx context.Context, n Note) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes SET is_deleted = 1, last_updated_at = ?
		WHERE id = ? AND is_deleted = 0
	`, formatTime(s.now()), n.ID)
	if err != nil {
		return fmt.Errorf("soft delete note: %w", err)
	}
	return requireRow(res, n.ID)
}

// Restore undoes a soft delete.
func (s *Store) Restore(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes SET is_deleted = 0, last_updated_at = ?
		WHERE id = ? AND is_deleted = 1
	`, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("restore note: %w", err)
	}
	return requireRow(res, id)
}

// Get retrieves a non-deleted note by ID.
func (s *Store) Get(ctx context.Context, id string) (*Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, text, created_at, last_updated_at, is_deleted
		FROM notes WHERE id = ? AND is_deleted = 0
	`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query note: %w", err)
	}
	return &n, nil
}

// List returns all non-deleted notes, newest first.
func (s *Store) List(ctx context.Context) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, text, created_at, last_updated_at, is_deleted
		FROM notes
		WHERE is_deleted = 0
		ORDER BY last_updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortByDate(notes)
	return notes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(sc scanner) (Note, error) {
	var n Note
	var createdAt, updatedAt string
	var deleted int
	if err := sc.Scan(&n.ID, &n.Title, &n.Text, &createdAt, &updatedAt, &deleted); err != nil {
		return Note{}, err
	}
	n.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	n.LastUpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	n.IsDeleted = deleted == 1
	return n, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
