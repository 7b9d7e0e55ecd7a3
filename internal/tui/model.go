package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/hylla/tickit/internal/app"
	"github.com/hylla/tickit/internal/domain"
	"github.com/hylla/tickit/internal/signin"
	"github.com/hylla/tickit/internal/tasklist"
)

// Session is the identity source the client routes on.
type Session interface {
	CurrentIdentity() (domain.Identity, bool)
	FederatedProviderName() string
	Restore(context.Context) (domain.Identity, bool, error)
	SignIn(context.Context, app.Credentials) (domain.Identity, error)
	SignUp(context.Context, app.Credentials) (domain.Identity, error)
	SignInWithFederatedProvider(context.Context) (domain.Identity, error)
	SignOut(context.Context) error
}

// Route names one screen.
type Route string

// Route values.
const (
	RouteHome  Route = "/"
	RouteLogin Route = "/login"
)

// defaultCompactWidth is the width below which the filter bar gets its own card.
const defaultCompactWidth = 40

// focusArea selects which home-screen element receives keys.
type focusArea int

// focusList and related constants define home-screen focus targets.
const (
	focusList focusArea = iota
	focusAdd
)

// login-form field indexes.
const (
	loginFieldEmail = iota
	loginFieldPassword
)

// Model is the bubbletea model of the terminal client.
type Model struct {
	ctx     context.Context
	session Session
	feed    *tasklist.Feed

	controller *tasklist.Controller
	addForm    *tasklist.AddForm
	login      *signin.Form
	theme      *Theme
	markdown   *markdownRenderer
	copyText   func(string) error

	ready  bool
	width  int
	height int

	route      Route
	identity   domain.Identity
	generation uint64
	status     string

	help         help.Model
	keys         keyMap
	showHelp     bool
	compactWidth int

	focus  focusArea
	cursor int

	loginInputs []textinput.Model
	loginFocus  int
	addInput    textinput.Model
	editInput   textinput.Model
}

// restoredMsg carries the startup session restore result.
type restoredMsg struct {
	identity domain.Identity
	ok       bool
	err      error
}

// authResultMsg carries one sign-in, sign-up, or federated sign-in result.
type authResultMsg struct {
	action   signin.Action
	identity domain.Identity
	err      error
}

// signedOutMsg reports the sign-out outcome.
type signedOutMsg struct {
	err error
}

// boundMsg reports the feed binding for one identity.
type boundMsg struct {
	binding tasklist.Binding
	changed bool
	err     error
}

// snapshotMsg delivers one full snapshot from the binding with the given generation.
type snapshotMsg struct {
	generation uint64
	tasks      []domain.Task
	closed     bool
}

// clipboardMsg reports a clipboard write.
type clipboardMsg struct {
	text string
	err  error
}

// NewModel constructs a new value for this package. mutator receives every
// create, update, and delete the list and add form issue.
func NewModel(session Session, feed *tasklist.Feed, mutator tasklist.Mutator, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false

	controller := tasklist.NewController(mutator)
	m := Model{
		ctx:          context.Background(),
		session:      session,
		feed:         feed,
		controller:   controller,
		addForm:      tasklist.NewAddForm(controller, mutator),
		login:        &signin.Form{},
		theme:        NewTheme(string(ThemeDark)),
		markdown:     &markdownRenderer{},
		copyText:     clipboard.WriteAll,
		route:        RouteLogin,
		status:       "restoring session...",
		help:         h,
		keys:         newKeyMap(),
		compactWidth: defaultCompactWidth,
		loginInputs: []textinput.Model{
			newInput("email    ", "you@example.com", 254),
			newInput("password ", "at least 6 characters", 128),
		},
		addInput:  newInput("› ", "What needs to be done?", 500),
		editInput: newInput("✎ ", "", 500),
	}
	m.loginInputs[loginFieldPassword].EchoMode = textinput.EchoPassword
	m.loginInputs[loginFieldPassword].EchoCharacter = '•'
	m.loginInputs[loginFieldEmail].Focus()
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// newInput constructs one single-line text input.
func newInput(prompt, placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.restoreSession
}

// Route returns the active screen.
func (m Model) Route() Route {
	return m.route
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case restoredMsg:
		m.status = ""
		if msg.err != nil {
			m.status = "session restore failed: " + msg.err.Error()
		}
		return m.applyIdentity(msg.identity, msg.ok)

	case authResultMsg:
		if msg.err != nil {
			m.login.Fail(msg.err)
			return m, nil
		}
		m.login.Succeed()
		m.loginInputs[loginFieldPassword].SetValue("")
		m.status = ""
		return m.applyIdentity(msg.identity, true)

	case signedOutMsg:
		if msg.err != nil {
			m.status = "log out failed: " + msg.err.Error()
		}
		identity, ok := m.session.CurrentIdentity()
		return m.applyIdentity(identity, ok)

	case boundMsg:
		if msg.err != nil {
			m.status = "task feed unavailable: " + msg.err.Error()
			return m, nil
		}
		if !msg.changed && msg.binding.Generation == m.generation {
			// Already waiting on this binding.
			return m, nil
		}
		m.generation = msg.binding.Generation
		return m, waitForSnapshot(msg.binding)

	case snapshotMsg:
		if msg.generation != m.generation || m.route != RouteHome {
			return m, nil
		}
		if msg.closed {
			return m, nil
		}
		m.controller.OnSnapshot(msg.tasks)
		m.dropOrphanedEdit()
		m.clampCursor()
		binding, ok := m.feed.Current()
		if !ok || binding.Generation != msg.generation {
			return m, nil
		}
		return m, waitForSnapshot(binding)

	case clipboardMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
		} else {
			m.status = "copied: " + truncate(msg.text, 40)
		}
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.route == RouteLogin {
			return m.handleLoginKey(msg)
		}
		return m.handleHomeKey(msg)

	default:
		return m.updateFocusedInput(msg)
	}
}

// updateFocusedInput forwards non-key messages, such as cursor blinks, to the
// input that currently has focus.
func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.route == RouteLogin:
		m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	case m.editing():
		m.editInput, cmd = m.editInput.Update(msg)
	case m.focus == focusAdd:
		m.addInput, cmd = m.addInput.Update(msg)
	}
	return m, cmd
}

// applyIdentity routes on the current identity: "/" requires one, "/login" is
// left as soon as one exists.
func (m Model) applyIdentity(identity domain.Identity, ok bool) (tea.Model, tea.Cmd) {
	if !ok || strings.TrimSpace(identity.ID) == "" {
		m.identity = domain.Identity{}
		m.route = RouteLogin
		m.feed.Close()
		m.generation = m.feed.Generation()
		m.controller.Reset()
		m.addInput.SetValue("")
		m.addForm.SetDraft("")
		m.editInput.Blur()
		m.cursor = 0
		m.showHelp = false
		cmd := m.focusLoginField(m.loginFocus)
		return m, cmd
	}
	changed := identity.ID != m.identity.ID
	m.identity = identity
	m.route = RouteHome
	for i := range m.loginInputs {
		m.loginInputs[i].Blur()
	}
	if changed {
		m.controller.Reset()
		m.cursor = 0
	}
	m.focus = focusAdd
	focusCmd := m.addInput.Focus()
	return m, tea.Batch(m.bindFeed(identity.ID), focusCmd)
}

// restoreSession loads the persisted session.
func (m Model) restoreSession() tea.Msg {
	identity, ok, err := m.session.Restore(m.ctx)
	return restoredMsg{identity: identity, ok: ok, err: err}
}

// bindFeed points the feed at ownerID.
func (m Model) bindFeed(ownerID string) tea.Cmd {
	ctx := m.ctx
	feed := m.feed
	return func() tea.Msg {
		binding, changed, err := feed.Bind(ctx, ownerID)
		return boundMsg{binding: binding, changed: changed, err: err}
	}
}

// waitForSnapshot blocks for the next snapshot of binding.
func waitForSnapshot(binding tasklist.Binding) tea.Cmd {
	return func() tea.Msg {
		tasks, ok := <-binding.Snapshots
		return snapshotMsg{generation: binding.Generation, tasks: tasks, closed: !ok}
	}
}

// quit closes the feed and ends the program.
func (m Model) quit() tea.Cmd {
	m.feed.Close()
	return tea.Quit
}

// handleLoginKey handles keys on the login screen.
func (m Model) handleLoginKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, m.quit()
	case "tab", "down", "shift+tab", "up":
		cmd := m.focusLoginField((m.loginFocus + 1) % len(m.loginInputs))
		return m, cmd
	case "enter":
		return m.submitLogin(signin.ActionSignIn)
	case "ctrl+s":
		return m.submitLogin(signin.ActionSignUp)
	case "ctrl+g":
		return m.submitLogin(signin.ActionFederated)
	}

	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	email := m.loginInputs[loginFieldEmail].Value()
	password := m.loginInputs[loginFieldPassword].Value()
	if email != m.login.Email() {
		m.login.SetEmail(email)
	}
	if password != m.login.Password() {
		m.login.SetPassword(password)
	}
	return m, cmd
}

// focusLoginField moves login focus to idx.
func (m *Model) focusLoginField(idx int) tea.Cmd {
	m.loginFocus = clamp(idx, 0, len(m.loginInputs)-1)
	for i := range m.loginInputs {
		m.loginInputs[i].Blur()
	}
	return m.loginInputs[m.loginFocus].Focus()
}

// submitLogin validates the form and runs action against the session.
func (m Model) submitLogin(action signin.Action) (tea.Model, tea.Cmd) {
	creds, ok := m.login.Begin(action)
	if !ok {
		return m, nil
	}
	ctx := m.ctx
	session := m.session
	return m, func() tea.Msg {
		var (
			identity domain.Identity
			err      error
		)
		switch action {
		case signin.ActionSignUp:
			identity, err = session.SignUp(ctx, creds)
		case signin.ActionFederated:
			identity, err = session.SignInWithFederatedProvider(ctx)
		default:
			identity, err = session.SignIn(ctx, creds)
		}
		return authResultMsg{action: action, identity: identity, err: err}
	}
}

// handleHomeKey handles keys on the task-list screen.
func (m Model) handleHomeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.toggleHelp), msg.String() == "esc":
			m.showHelp = false
		case key.Matches(msg, m.keys.quit):
			return m, m.quit()
		}
		return m, nil
	}
	if m.editing() {
		return m.handleEditKey(msg)
	}
	if m.focus == focusAdd {
		return m.handleAddKey(msg)
	}

	rows := m.controller.Rows()
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.toggleHelp):
		m.showHelp = true
	case key.Matches(msg, m.keys.addTask):
		m.focus = focusAdd
		m.addForm.Focus()
		cmd := m.addInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.moveDown):
		m.cursor = clamp(m.cursor+1, 0, len(rows)-1)
	case key.Matches(msg, m.keys.moveUp):
		m.cursor = clamp(m.cursor-1, 0, len(rows)-1)
	case key.Matches(msg, m.keys.editTask):
		if row, ok := m.focusedRow(); ok {
			m.controller.BeginEdit(row.Task.ID)
			slot, _ := m.controller.EditSlot()
			m.editInput.SetValue(slot.Draft)
			m.editInput.CursorEnd()
			cmd := m.editInput.Focus()
			return m, cmd
		}
	case key.Matches(msg, m.keys.toggleTask):
		if row, ok := m.focusedRow(); ok {
			m.controller.ToggleCompletion(row.Task.ID)
		}
	case key.Matches(msg, m.keys.deleteTask):
		if row, ok := m.focusedRow(); ok {
			m.controller.DeleteTask(row.Task.ID)
		}
	case key.Matches(msg, m.keys.clearCompleted):
		if n := m.controller.ClearCompleted(); n > 0 {
			m.status = fmt.Sprintf("cleared %d completed", n)
		}
	case key.Matches(msg, m.keys.filterAll):
		m.setFilter(domain.FilterAll)
	case key.Matches(msg, m.keys.filterActive):
		m.setFilter(domain.FilterActive)
	case key.Matches(msg, m.keys.filterDone):
		m.setFilter(domain.FilterCompleted)
	case key.Matches(msg, m.keys.cycleFilter):
		m.setFilter(m.controller.Filter().Next())
	case key.Matches(msg, m.keys.copyTitle):
		if row, ok := m.focusedRow(); ok {
			return m, m.copyTitle(row.Task.Title)
		}
	case key.Matches(msg, m.keys.toggleTheme):
		m.status = "theme: " + string(m.theme.Toggle())
	case key.Matches(msg, m.keys.logout):
		session := m.session
		ctx := m.ctx
		return m, func() tea.Msg {
			return signedOutMsg{err: session.SignOut(ctx)}
		}
	}
	return m, nil
}

// handleAddKey routes keys to the add-task input.
func (m Model) handleAddKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.addForm.SetDraft(m.addInput.Value())
		if m.addForm.Submit(m.identity.ID) {
			m.addInput.SetValue("")
		}
		return m, nil
	case "esc", "tab":
		m.addForm.SetDraft(m.addInput.Value())
		m.focus = focusList
		m.addInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.addInput, cmd = m.addInput.Update(msg)
	m.addForm.SetDraft(m.addInput.Value())
	return m, cmd
}

// handleEditKey routes keys to the open edit slot.
func (m Model) handleEditKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.controller.UpdateDraft(m.editInput.Value())
		m.controller.CommitEdit()
		m.editInput.Blur()
		return m, nil
	case "esc":
		m.controller.CancelEdit()
		m.editInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	m.controller.UpdateDraft(m.editInput.Value())
	return m, cmd
}

// dropOrphanedEdit closes the edit slot once its task has left the list.
func (m *Model) dropOrphanedEdit() {
	slot, ok := m.controller.EditSlot()
	if !ok {
		return
	}
	for _, task := range m.controller.Tasks() {
		if task.ID == slot.TaskID {
			return
		}
	}
	m.controller.CancelEdit()
	m.editInput.Blur()
	m.status = "task being edited was removed"
}

// editing reports whether the edit slot is open.
func (m Model) editing() bool {
	_, ok := m.controller.EditSlot()
	return ok
}

// setFilter applies filter and keeps the cursor inside the visible rows.
func (m *Model) setFilter(filter domain.Filter) {
	m.controller.SetFilter(filter)
	m.clampCursor()
}

// clampCursor keeps the cursor on a visible row.
func (m *Model) clampCursor() {
	m.cursor = clamp(m.cursor, 0, len(m.controller.Rows())-1)
}

// focusedRow returns the row under the cursor.
func (m Model) focusedRow() (tasklist.RowState, bool) {
	rows := m.controller.Rows()
	if len(rows) == 0 {
		return tasklist.RowState{}, false
	}
	return rows[clamp(m.cursor, 0, len(rows)-1)], true
}

// copyTitle writes title to the clipboard off the update loop.
func (m Model) copyTitle(title string) tea.Cmd {
	write := m.copyText
	return func() tea.Msg {
		if write == nil {
			return clipboardMsg{text: title, err: errClipboardUnavailable}
		}
		return clipboardMsg{text: title, err: write(title)}
	}
}

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.renderView())
	v.AltScreen = true
	return v
}

// renderView renders the full screen for the active route.
func (m Model) renderView() string {
	if !m.ready {
		return "loading..."
	}

	pal := m.theme.palette()
	var body string
	if m.route == RouteLogin {
		body = m.renderLogin(pal)
	} else {
		body = m.renderHome(pal)
	}
	sections := []string{m.renderHeader(pal), "", body}
	if strings.TrimSpace(m.status) != "" {
		sections = append(sections, "", lipgloss.NewStyle().Foreground(pal.muted).Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpLine := ""
	if m.route == RouteHome {
		helpBubble := m.help
		helpBubble.ShowAll = false
		helpBubble.SetWidth(max(0, m.width-2))
		helpLine = lipgloss.NewStyle().
			Foreground(pal.muted).
			BorderTop(true).
			BorderForeground(pal.dim).
			Padding(0, 1).
			Width(max(0, m.width)).
			Render(helpBubble.View(m.keys))
	}
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content
	if helpLine != "" {
		fullContent += "\n" + helpLine
	}
	if m.showHelp && m.route == RouteHome {
		fullContent = overlayOnContent(fullContent, m.renderHelpOverlay(pal), max(1, m.width), max(1, m.height))
	}
	return fullContent
}

// renderHeader renders the route title and, when signed in, the identity controls.
func (m Model) renderHeader(pal palette) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(pal.accent)
	metaStyle := lipgloss.NewStyle().Foreground(pal.muted)
	if m.route == RouteLogin {
		return titleStyle.Render("LOGIN")
	}
	header := titleStyle.Render("TASK LIST")
	if m.identity.Email != "" {
		header += "  " + lipgloss.NewStyle().Foreground(pal.text).Render(m.identity.Email)
	}
	header += metaStyle.Render(fmt.Sprintf("  %s log out • %s theme: %s",
		m.keys.logout.Help().Key, m.keys.toggleTheme.Help().Key, m.theme.Name()))
	return header
}

// renderLogin renders the credential card.
func (m Model) renderLogin(pal palette) string {
	muted := lipgloss.NewStyle().Foreground(pal.muted)
	lines := []string{
		m.loginInputs[loginFieldEmail].View(),
		m.loginInputs[loginFieldPassword].View(),
		"",
	}
	if msg := m.login.Error(); msg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(pal.danger).Render(msg), "")
	}
	if m.login.Pending() {
		lines = append(lines, muted.Render("signing in..."), "")
	}
	lines = append(lines, muted.Render("enter sign in • ctrl+s sign up"))
	if name := m.session.FederatedProviderName(); name != "" {
		lines = append(lines, muted.Render("ctrl+g sign in with "+name+" account"))
	}
	lines = append(lines, muted.Render("tab switch field • esc quit"))
	return cardStyle(pal, m.width).Render(strings.Join(lines, "\n"))
}

// renderHome renders the add input, task rows, and footer.
func (m Model) renderHome(pal palette) string {
	muted := lipgloss.NewStyle().Foreground(pal.muted)
	innerWidth := max(10, min(m.width, 80)-4)

	lines := []string{m.addInput.View(), ""}
	rows := m.controller.Rows()
	switch {
	case !m.controller.Loaded():
		lines = append(lines, muted.Render("loading tasks..."))
	case len(rows) == 0:
		lines = append(lines, muted.Render(emptyListText(m.controller.Filter())))
	default:
		for idx, row := range rows {
			focused := m.focus == focusList && idx == clamp(m.cursor, 0, len(rows)-1)
			lines = append(lines, m.renderRow(row, focused, innerWidth, pal))
		}
	}

	compact := m.width > 0 && m.width < m.compactWidth
	footer := []string{muted.Render(itemsLeftText(m.controller.ActiveCount()))}
	if !compact {
		footer = append(footer, m.renderFilterBar(pal))
	}
	if m.controller.CompletedCount() > 0 {
		footer = append(footer, muted.Render(m.keys.clearCompleted.Help().Key+" clear completed"))
	}
	lines = append(lines, "", strings.Join(footer, "   "))

	list := cardStyle(pal, m.width).Render(strings.Join(lines, "\n"))
	if !compact {
		return list
	}
	return list + "\n" + cardStyle(pal, m.width).Render(m.renderFilterBar(pal))
}

// renderRow renders one task row in its completed, active, or editing form.
func (m Model) renderRow(row tasklist.RowState, focused bool, width int, pal palette) string {
	prefix := "  "
	if focused {
		prefix = "│ "
	}
	deleteHint := lipgloss.NewStyle().Foreground(pal.dim).Render("  d delete")
	if focused {
		deleteHint = lipgloss.NewStyle().Foreground(pal.danger).Render("  d delete")
	}

	switch row.Kind {
	case tasklist.RowEditing:
		return prefix + m.editInput.View()
	case tasklist.RowCompleted:
		mark := lipgloss.NewStyle().Foreground(pal.done).Render("✓")
		title := lipgloss.NewStyle().Strikethrough(true).Foreground(pal.muted).Render(truncate(row.Task.Title, max(1, width-14)))
		return prefix + mark + " " + title + deleteHint
	default:
		style := lipgloss.NewStyle().Foreground(pal.text)
		if focused {
			style = style.Bold(true).Foreground(pal.accent)
		}
		return prefix + "○ " + style.Render(truncate(row.Task.Title, max(1, width-14))) + deleteHint
	}
}

// renderFilterBar renders the All / Active / Completed selector.
func (m Model) renderFilterBar(pal palette) string {
	current := m.controller.Filter()
	parts := make([]string, 0, len(domain.Filters))
	for idx, filter := range domain.Filters {
		label := fmt.Sprintf("%d %s", idx+1, filter.Label())
		style := lipgloss.NewStyle().Foreground(pal.muted).Padding(0, 1)
		if filter == current {
			style = style.Bold(true).Foreground(pal.accent).Border(lipgloss.NormalBorder(), false, false, true, false).BorderForeground(pal.accent)
		}
		parts = append(parts, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, parts...)
}

// renderHelpOverlay renders the markdown key reference.
func (m Model) renderHelpOverlay(pal palette) string {
	width := clamp(m.width-8, 40, 80)
	body := m.markdown.render(helpMarkdown, width-4, pal.markdown)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(pal.accent).Render("tickit help"),
		body,
		lipgloss.NewStyle().Foreground(pal.muted).Render("press ? or esc to close"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(pal.dim).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// helpMarkdown is the key reference shown by the help overlay.
const helpMarkdown = `
## Tasks

| key | action |
|---|---|
| n / a / tab | focus the new-task input |
| enter | add the typed task |
| e / enter | rename the focused task |
| space / x | toggle done |
| d | delete the focused task |
| c | clear completed tasks |
| y | copy the focused title |

## View

| key | action |
|---|---|
| 1 2 3 / f | all, active, completed / next filter |
| j k | move |
| t | switch theme |
| L | log out |
| q | quit |

While renaming, **enter** saves and **esc** discards. An empty title keeps the old one.
`

// cardStyle returns the bordered card used for the list and login form.
func cardStyle(pal palette, width int) lipgloss.Style {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(pal.dim).
		Padding(0, 1)
	if width > 0 {
		style = style.Width(min(width, 80))
	}
	return style
}

// itemsLeftText renders the active-task counter.
func itemsLeftText(n int) string {
	if n == 1 {
		return "1 item left"
	}
	return fmt.Sprintf("%d items left", n)
}

// emptyListText renders the empty-state line for filter.
func emptyListText(filter domain.Filter) string {
	switch filter {
	case domain.FilterActive:
		return "nothing left to do"
	case domain.FilterCompleted:
		return "nothing completed yet"
	default:
		return "no tasks yet"
	}
}

// errClipboardUnavailable is returned when no clipboard writer is configured.
var errClipboardUnavailable = errors.New("clipboard unavailable")

// clamp bounds v to [minV, maxV]; an empty range yields minV.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
