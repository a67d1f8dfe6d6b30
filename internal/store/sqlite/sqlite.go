// Package sqlite keeps the ledger document as a single row of a local SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"lapkeu/internal/core"
	"lapkeu/internal/store"
)

// DefaultDocumentID is the row holding the ledger.
const DefaultDocumentID = "ledger"

type Store struct {
	db    *sql.DB
	docID string
}

var _ store.DocumentStore = (*Store)(nil)

// Open creates the database directory if needed, migrates the schema and
// returns a store for the row docID.
func Open(dbPath, docID string) (*Store, error) {
	if docID == "" {
		docID = DefaultDocumentID
	}
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, docID: docID}, nil
}

func (s *Store) Name() string { return "sqlite" }

// Load returns the stored document, or nil when the row does not exist yet.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = ?`, s.docID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("load document", err)
	}
	return []byte(body), nil
}

// Save upserts the document and bumps its revision.
func (s *Store) Save(ctx context.Context, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, body, updated_at, revision)
		VALUES (?, ?, CURRENT_TIMESTAMP, 1)
		ON CONFLICT(id) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at,
			revision = documents.revision + 1`,
		s.docID, string(doc))
	if err != nil {
		return wrap("save document", err)
	}
	slog.DebugContext(ctx, "Document saved to SQLite", "id", s.docID, "bytes", len(doc))
	return nil
}

// Revision counts the saves of the document; 0 means never saved.
func (s *Store) Revision(ctx context.Context) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM documents WHERE id = ?`, s.docID).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, wrap("read revision", err)
	}
	return rev, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// wrap keeps context errors intact and marks everything else as the store
// being unavailable.
func wrap(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", core.ErrStoreUnavailable, op, err)
}
