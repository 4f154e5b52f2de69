package domain

import (
	"time"

	"github.com/google/uuid"
)

// JournalOp names the operation a journal entry describes.
type JournalOp string

const (
	OpCreate  JournalOp = "create"
	OpUpdate  JournalOp = "update"
	OpDelete  JournalOp = "delete"
	OpRefresh JournalOp = "refresh"
	OpImport  JournalOp = "import"
)

// JournalEntry records the outcome of one remote synchronisation call.
// RecordID is uuid.Nil for operations that are not about a single record.
// Error is empty when the call succeeded.
type JournalEntry struct {
	ID         int64
	Op         JournalOp
	RecordID   uuid.UUID
	ExternalID string
	Name       string
	Error      string
	CreatedAt  time.Time
}

// OK reports whether the journalled call succeeded.
func (e JournalEntry) OK() bool {
	return e.Error == ""
}
