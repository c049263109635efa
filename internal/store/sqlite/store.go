// Package sqlite is a MessageStore backed by a local SQLite file.
// It is meant for development and single-node deployments.
package sqlite

import (
	"askai-backend/internal/models"
	"askai-backend/internal/store"
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Compile-time check to ensure SQLiteStore implements store.MessageStore
var _ store.MessageStore = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at the given path, ensuring
// that the parent directory exists.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}

	return &SQLiteStore{db: db}, nil
}

const createMessageTable = `
CREATE TABLE IF NOT EXISTS message (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    prompt TEXT NOT NULL,
    response TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);
`

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createMessageTable); err != nil {
		return fmt.Errorf("%w: creating message table: %w", store.ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", store.ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) Close() {
	if err := s.db.Close(); err != nil {
		log.Printf("WARN: [SQLiteStore] Close: %v", err)
	}
}

// InsertMessage relies on AUTOINCREMENT so IDs are never reused and always grow.
func (s *SQLiteStore) InsertMessage(ctx context.Context, prompt, response string) (*models.Message, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring connection: %w", store.ErrStorage, err)
	}
	defer conn.Close()

	now := time.Now().UTC().Truncate(time.Second)
	res, err := conn.ExecContext(ctx,
		`INSERT INTO message (prompt, response, created_at) VALUES (?, ?, ?)`,
		prompt, response, now.Unix(),
	)
	if err != nil {
		log.Printf("ERROR [SQLiteStore] InsertMessage: Failed to execute insert: %v", err)
		return nil, fmt.Errorf("%w: inserting message: %w", store.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: reading inserted id: %w", store.ErrStorage, err)
	}

	log.Printf("[SQLiteStore] InsertMessage: Successfully inserted message ID %d", id)
	return &models.Message{ID: id, Prompt: prompt, Response: response, CreatedAt: now}, nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context) ([]models.Message, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring connection: %w", store.ErrStorage, err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `SELECT id, prompt, response, created_at FROM message ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying messages: %w", store.ErrStorage, err)
	}
	defer rows.Close()

	items := []models.Message{}
	for rows.Next() {
		var (
			m       models.Message
			created int64
		)
		if err := rows.Scan(&m.ID, &m.Prompt, &m.Response, &created); err != nil {
			return nil, fmt.Errorf("%w: scanning message row: %w", store.ErrStorage, err)
		}
		m.CreatedAt = time.Unix(created, 0).UTC()
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating message rows: %w", store.ErrStorage, err)
	}
	return items, nil
}
