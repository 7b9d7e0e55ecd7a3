package domain

import (
	"strings"
	"time"
)

// Task is one to-do entry owned by a single identity.
type Task struct {
	ID        string
	OwnerID   string
	Title     string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TaskInput struct {
	ID        string
	OwnerID   string
	Title     string
	Completed bool
}

// TaskPatch holds the partial fields of an update; nil fields are left alone.
type TaskPatch struct {
	Title     *string
	Completed *bool
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	in.Title = strings.TrimSpace(in.Title)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.OwnerID == "" {
		return Task{}, ErrInvalidOwner
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}

	return Task{
		ID:        in.ID,
		OwnerID:   in.OwnerID,
		Title:     in.Title,
		Completed: in.Completed,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

func (t *Task) Rename(title string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	t.Title = title
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Task) SetCompleted(completed bool, now time.Time) {
	t.Completed = completed
	t.UpdatedAt = now.UTC()
}

// Apply validates the whole patch before touching t, so a rejected patch leaves
// the task unchanged.
func (t *Task) Apply(patch TaskPatch, now time.Time) error {
	if patch.IsEmpty() {
		return ErrEmptyPatch
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return ErrInvalidTitle
	}
	if patch.Title != nil {
		if err := t.Rename(*patch.Title, now); err != nil {
			return err
		}
	}
	if patch.Completed != nil {
		t.SetCompleted(*patch.Completed, now)
	}
	return nil
}

// IsEmpty reports whether the patch carries no field at all.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil
}

// TitlePatch builds a patch that only renames.
func TitlePatch(title string) TaskPatch {
	return TaskPatch{Title: &title}
}

// CompletionPatch builds a patch that only sets the completion flag.
func CompletionPatch(completed bool) TaskPatch {
	return TaskPatch{Completed: &completed}
}
