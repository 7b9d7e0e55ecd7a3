package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/tickit/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "tickit.snapshot.v1"

// Snapshot is the portable export of one owner's task list.
type Snapshot struct {
	Version    string         `json:"version" yaml:"version"`
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	Owner      SnapshotOwner  `json:"owner" yaml:"owner"`
	Tasks      []SnapshotTask `json:"tasks" yaml:"tasks"`
}

// SnapshotOwner identifies whose tasks a snapshot holds.
type SnapshotOwner struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Completed bool      `json:"completed" yaml:"completed"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ExportSnapshot captures the identity's tasks in store order.
func (s *TaskStore) ExportSnapshot(ctx context.Context, owner domain.Identity) (Snapshot, error) {
	tasks, err := s.List(ctx, owner.ID)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Owner:      SnapshotOwner{ID: owner.ID, Email: owner.Email},
		Tasks:      make([]SnapshotTask, 0, len(tasks)),
	}
	for _, task := range tasks {
		snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(task))
	}
	return snap, nil
}

// ImportSnapshot appends the snapshot's tasks to the owner's list as new
// records. Ids in the snapshot are not reused. It returns how many tasks
// were created.
func (s *TaskStore) ImportSnapshot(ctx context.Context, ownerID string, snap Snapshot) (int, error) {
	if err := snap.Validate(); err != nil {
		return 0, err
	}
	created := 0
	for _, task := range snap.Tasks {
		if _, err := s.Create(ctx, task.Title, task.Completed, ownerID); err != nil {
			return created, fmt.Errorf("import task %q: %w", task.ID, err)
		}
		created++
	}
	return created, nil
}

// Validate checks the snapshot version and every task title.
func (s *Snapshot) Validate() error {
	if s == nil {
		return errors.New("snapshot is nil")
	}
	if strings.TrimSpace(s.Version) != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %q", s.Version)
	}
	for i, task := range s.Tasks {
		if strings.TrimSpace(task.Title) == "" {
			return fmt.Errorf("tasks[%d]: %w", i, domain.ErrInvalidTitle)
		}
	}
	return nil
}

func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	return SnapshotTask{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
}
