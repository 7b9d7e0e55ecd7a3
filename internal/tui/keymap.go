package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit           key.Binding
	toggleHelp     key.Binding
	moveUp         key.Binding
	moveDown       key.Binding
	addTask        key.Binding
	editTask       key.Binding
	toggleTask     key.Binding
	deleteTask     key.Binding
	clearCompleted key.Binding
	filterAll      key.Binding
	filterActive   key.Binding
	filterDone     key.Binding
	cycleFilter    key.Binding
	copyTitle      key.Binding
	toggleTheme    key.Binding
	logout         key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		addTask:        key.NewBinding(key.WithKeys("n", "a", "tab"), key.WithHelp("n", "new task")),
		editTask:       key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit task")),
		toggleTask:     key.NewBinding(key.WithKeys("space", " ", "x"), key.WithHelp("space", "toggle done")),
		deleteTask:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		clearCompleted: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear completed")),
		filterAll:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		filterActive:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "active")),
		filterDone:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
		cycleFilter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "next filter")),
		copyTitle:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy title")),
		toggleTheme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		logout:         key.NewBinding(key.WithKeys("L", "shift+l"), key.WithHelp("L", "log out")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.editTask, k.toggleTask, k.deleteTask, k.cycleFilter, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.editTask, k.toggleTask, k.deleteTask, k.clearCompleted, k.copyTitle},
		{k.moveUp, k.moveDown, k.filterAll, k.filterActive, k.filterDone, k.cycleFilter},
		{k.toggleTheme, k.logout, k.toggleHelp, k.quit},
	}
}
