package postgres

import (
	"askai-backend/internal/models"
	"askai-backend/internal/store"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check to ensure PostgresStore implements store.MessageStore
var _ store.MessageStore = (*PostgresStore)(nil)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open creates a connection pool for databaseURL and pings it.
func Open(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	dbpool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create database connection pool: %w", err)
	}
	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return NewPostgresStore(dbpool), nil
}

const createMessageTable = `
CREATE TABLE IF NOT EXISTS message (
    id BIGSERIAL PRIMARY KEY,
    prompt TEXT NOT NULL,
    response TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the message table if it does not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createMessageTable); err != nil {
		log.Printf("ERROR [PostgresStore] EnsureSchema: %v", err)
		return fmt.Errorf("%w: creating message table: %w", store.ErrStorage, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", store.ErrStorage, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

const insertMessage = `-- name: InsertMessage :one
INSERT INTO message (prompt, response)
VALUES ($1, $2)
RETURNING id, prompt, response, created_at;
`

// InsertMessage inserts a new message. The id comes from the BIGSERIAL sequence,
// which is what makes assignment atomic under concurrent inserts.
func (s *PostgresStore) InsertMessage(ctx context.Context, prompt, response string) (*models.Message, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		log.Printf("ERROR [PostgresStore] InsertMessage: Failed to acquire connection: %v", err)
		return nil, fmt.Errorf("%w: acquiring connection: %w", store.ErrStorage, err)
	}
	defer conn.Release()

	m := &models.Message{}
	err = conn.QueryRow(ctx, insertMessage, prompt, response).Scan(
		&m.ID,
		&m.Prompt,
		&m.Response,
		&m.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			log.Printf("ERROR [PostgresStore] InsertMessage: PostgreSQL error executing insert: Code=%s, Message=%s, Detail=%s", pgErr.Code, pgErr.Message, pgErr.Detail)
		} else {
			log.Printf("ERROR [PostgresStore] InsertMessage: Failed to execute insert: %v", err)
		}
		return nil, fmt.Errorf("%w: inserting message: %w", store.ErrStorage, err)
	}

	log.Printf("[PostgresStore] InsertMessage: Successfully inserted message ID %d", m.ID)
	return m, nil
}

const listMessages = `-- name: ListMessages :many
SELECT id, prompt, response, created_at
FROM message
ORDER BY id DESC;
`

func (s *PostgresStore) ListMessages(ctx context.Context) ([]models.Message, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		log.Printf("ERROR [PostgresStore] ListMessages: Failed to acquire connection: %v", err)
		return nil, fmt.Errorf("%w: acquiring connection: %w", store.ErrStorage, err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, listMessages)
	if err != nil {
		return nil, fmt.Errorf("%w: querying messages: %w", store.ErrStorage, err)
	}
	defer rows.Close()

	items := []models.Message{}
	for rows.Next() {
		var i models.Message
		if err := rows.Scan(
			&i.ID,
			&i.Prompt,
			&i.Response,
			&i.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning message row: %w", store.ErrStorage, err)
		}
		items = append(items, i)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating message rows: %w", store.ErrStorage, err)
	}

	return items, nil
}
