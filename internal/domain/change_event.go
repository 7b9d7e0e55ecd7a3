package domain

import "time"

// ChangeOperation describes a persisted mutation of one task.
type ChangeOperation string

// ChangeOperation values used by the change ledger.
const (
	ChangeOperationCreate ChangeOperation = "create"
	ChangeOperationUpdate ChangeOperation = "update"
	ChangeOperationDelete ChangeOperation = "delete"
)

// ChangeEvent represents a single ledger entry for one owner's task list.
type ChangeEvent struct {
	ID         int64
	OwnerID    string
	TaskID     string
	Operation  ChangeOperation
	Metadata   map[string]string
	OccurredAt time.Time
}
