package tasklist

import (
	"strings"

	"github.com/hylla/tickit/internal/domain"
)

// Mutator issues store mutations without waiting for their outcome.
type Mutator interface {
	Create(title string, completed bool, ownerID string)
	Update(taskID string, patch domain.TaskPatch)
	Delete(taskID string)
}

// EditSlot tracks the one task being renamed and its unsaved draft.
type EditSlot struct {
	TaskID string
	Draft  string
}

// RowKind selects how one task row is presented.
type RowKind int

// RowKind values.
const (
	RowActive RowKind = iota
	RowCompleted
	RowEditing
)

// RowState is everything a renderer needs for one visible task.
type RowState struct {
	Task  domain.Task
	Kind  RowKind
	Draft string
}

// Controller owns the reconciled task list of the current identity, the
// filter selection and the edit slot. It is not safe for concurrent use; the
// owning event loop serializes calls.
type Controller struct {
	mutator Mutator
	tasks   []domain.Task
	loaded  bool
	filter  domain.Filter
	edit    *EditSlot
}

// NewController constructs a new value for this package.
func NewController(mutator Mutator) *Controller {
	return &Controller{
		mutator: mutator,
		tasks:   []domain.Task{},
		filter:  domain.FilterAll,
	}
}

// OnSnapshot replaces the whole list with records in delivered order.
func (c *Controller) OnSnapshot(records []domain.Task) {
	next := make([]domain.Task, len(records))
	copy(next, records)
	c.tasks = next
	c.loaded = true
}

// BeginEdit opens the edit slot on taskID with its current title, dropping any
// other open draft unsaved.
func (c *Controller) BeginEdit(taskID string) {
	draft := ""
	if task, ok := c.find(taskID); ok {
		draft = task.Title
	}
	c.edit = &EditSlot{TaskID: taskID, Draft: draft}
}

// UpdateDraft sets the draft title of the open edit slot.
func (c *Controller) UpdateDraft(text string) {
	if c.edit == nil {
		return
	}
	c.edit.Draft = text
}

// CommitEdit renames the edited task when the draft is non-empty and always
// closes the slot.
func (c *Controller) CommitEdit() {
	if c.edit == nil {
		return
	}
	slot := *c.edit
	c.edit = nil
	title := strings.TrimSpace(slot.Draft)
	if title == "" {
		return
	}
	c.mutator.Update(slot.TaskID, domain.TitlePatch(title))
}

// CancelEdit closes the slot without saving.
func (c *Controller) CancelEdit() {
	c.edit = nil
}

// ToggleCompletion flips the completion flag of taskID and closes any open
// edit slot, whichever task it was on.
func (c *Controller) ToggleCompletion(taskID string) {
	c.edit = nil
	task, ok := c.find(taskID)
	if !ok {
		return
	}
	c.mutator.Update(task.ID, domain.CompletionPatch(!task.Completed))
}

// DeleteTask removes taskID and closes any open edit slot.
func (c *Controller) DeleteTask(taskID string) {
	c.edit = nil
	if strings.TrimSpace(taskID) == "" {
		return
	}
	c.mutator.Delete(taskID)
}

// ClearCompleted closes any open edit slot, then issues one independent delete
// per completed task in list order. It returns how many were issued.
func (c *Controller) ClearCompleted() int {
	c.edit = nil
	issued := 0
	for _, task := range c.tasks {
		if !task.Completed {
			continue
		}
		c.mutator.Delete(task.ID)
		issued++
	}
	return issued
}

// SetFilter changes the filter selection.
func (c *Controller) SetFilter(filter domain.Filter) {
	c.filter = filter
}

// VisibleTasks derives the filtered view of the current list.
func (c *Controller) VisibleTasks() []domain.Task {
	out := make([]domain.Task, 0, len(c.tasks))
	for _, task := range c.tasks {
		if c.filter.Matches(task) {
			out = append(out, task)
		}
	}
	return out
}

// Rows returns the visible tasks with their presentation branch.
func (c *Controller) Rows() []RowState {
	visible := c.VisibleTasks()
	rows := make([]RowState, 0, len(visible))
	for _, task := range visible {
		row := RowState{Task: task, Kind: RowActive}
		switch {
		case c.edit != nil && c.edit.TaskID == task.ID:
			row.Kind = RowEditing
			row.Draft = c.edit.Draft
		case task.Completed:
			row.Kind = RowCompleted
		}
		rows = append(rows, row)
	}
	return rows
}

// Tasks returns a copy of the full list in delivered order.
func (c *Controller) Tasks() []domain.Task {
	out := make([]domain.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Loaded reports whether any snapshot has been applied since the last reset.
func (c *Controller) Loaded() bool {
	return c.loaded
}

// Filter returns the current filter selection.
func (c *Controller) Filter() domain.Filter {
	return c.filter
}

// EditSlot returns the open edit slot.
func (c *Controller) EditSlot() (EditSlot, bool) {
	if c.edit == nil {
		return EditSlot{}, false
	}
	return *c.edit, true
}

// IsEditing reports whether taskID holds the edit slot.
func (c *Controller) IsEditing(taskID string) bool {
	return c.edit != nil && c.edit.TaskID == taskID
}

// ActiveCount returns how many tasks are not completed.
func (c *Controller) ActiveCount() int {
	n := 0
	for _, task := range c.tasks {
		if !task.Completed {
			n++
		}
	}
	return n
}

// CompletedCount returns how many tasks are completed.
func (c *Controller) CompletedCount() int {
	return len(c.tasks) - c.ActiveCount()
}

// Reset forgets the list and edit slot, as on an identity change. The filter
// selection is kept.
func (c *Controller) Reset() {
	c.tasks = []domain.Task{}
	c.loaded = false
	c.edit = nil
}

func (c *Controller) find(taskID string) (domain.Task, bool) {
	for _, task := range c.tasks {
		if task.ID == taskID {
			return task, true
		}
	}
	return domain.Task{}, false
}
