package store

import (
	"askai-backend/internal/models"
	"context"
	"errors"
)

// ErrStorage wraps every failure to reach or write to the underlying datastore.
// Callers test for it with errors.Is; the original driver error stays in the chain.
var ErrStorage = errors.New("storage error")

// MessageStore defines the interface for message persistence.
// This allows for mocking in tests and switching between Postgres and SQLite.
type MessageStore interface {
	// InsertMessage persists a new record and returns it with its assigned ID.
	// ID assignment is atomic in the datastore; concurrent inserts never share an ID.
	InsertMessage(ctx context.Context, prompt, response string) (*models.Message, error)

	// ListMessages returns every record ordered by ID descending.
	// An empty store yields an empty, non-nil slice.
	ListMessages(ctx context.Context) ([]models.Message, error)

	// EnsureSchema creates the message table if it does not exist.
	EnsureSchema(ctx context.Context) error

	// Ping verifies the datastore is reachable.
	Ping(ctx context.Context) error

	Close()
}
