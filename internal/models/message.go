package models

import (
	"time"
)

// Message represents a single stored prompt/response pair.
// Records are immutable once inserted; ID is assigned by the store and is the recency sort key.
type Message struct {
	ID        int64     `db:"id"`
	Prompt    string    `db:"prompt"`
	Response  string    `db:"response"`
	CreatedAt time.Time `db:"created_at"` // Informational only, never used for ordering
}
