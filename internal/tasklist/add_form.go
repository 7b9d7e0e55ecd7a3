package tasklist

import "strings"

// AddForm holds the draft text of a new task.
type AddForm struct {
	controller *Controller
	mutator    Mutator
	draft      string
}

// NewAddForm constructs a new value for this package.
func NewAddForm(controller *Controller, mutator Mutator) *AddForm {
	return &AddForm{controller: controller, mutator: mutator}
}

// Draft returns the current draft text.
func (f *AddForm) Draft() string {
	return f.draft
}

// SetDraft replaces the draft text.
func (f *AddForm) SetDraft(text string) {
	f.draft = text
}

// Focus closes any open edit slot: starting a new task abandons a rename.
func (f *AddForm) Focus() {
	f.controller.CancelEdit()
}

// Submit creates an active task from the draft for ownerID and clears the
// draft. Empty drafts are ignored. It reports whether a create was issued.
func (f *AddForm) Submit(ownerID string) bool {
	title := strings.TrimSpace(f.draft)
	if title == "" || strings.TrimSpace(ownerID) == "" {
		return false
	}
	f.mutator.Create(title, false, ownerID)
	f.draft = ""
	f.controller.CancelEdit()
	return true
}
