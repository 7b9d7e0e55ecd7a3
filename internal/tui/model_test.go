package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/hylla/tickit/internal/app"
	"github.com/hylla/tickit/internal/domain"
	"github.com/hylla/tickit/internal/tasklist"
)

type fakeSession struct {
	mu        sync.Mutex
	current   domain.Identity
	signedIn  bool
	restored  bool
	signInErr error
	federated string
	calls     []string
}

func (f *fakeSession) CurrentIdentity() (domain.Identity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.signedIn
}

func (f *fakeSession) FederatedProviderName() string {
	return f.federated
}

func (f *fakeSession) Restore(context.Context) (domain.Identity, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "restore")
	if !f.restored {
		return domain.Identity{}, false, nil
	}
	f.signedIn = true
	return f.current, true, nil
}

func (f *fakeSession) SignIn(_ context.Context, creds app.Credentials) (domain.Identity, error) {
	return f.signInAs("signin", creds.Email)
}

func (f *fakeSession) SignUp(_ context.Context, creds app.Credentials) (domain.Identity, error) {
	return f.signInAs("signup", creds.Email)
}

func (f *fakeSession) SignInWithFederatedProvider(context.Context) (domain.Identity, error) {
	return f.signInAs("federated", "me@system.local")
}

func (f *fakeSession) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "signout")
	f.current = domain.Identity{}
	f.signedIn = false
	return nil
}

func (f *fakeSession) signInAs(call, email string) (domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.signInErr != nil {
		return domain.Identity{}, f.signInErr
	}
	f.current = domain.Identity{ID: "u-" + email, Email: email}
	f.signedIn = true
	return f.current, nil
}

type fakeSubscription struct {
	ch   chan []domain.Task
	once sync.Once
}

func (s *fakeSubscription) Snapshots() <-chan []domain.Task { return s.ch }

func (s *fakeSubscription) Close() {
	s.once.Do(func() { close(s.ch) })
}

// fakeTasks serves one in-memory task list per owner and records mutations.
type fakeTasks struct {
	mu      sync.Mutex
	tasks   map[string][]domain.Task
	subs    map[string]*fakeSubscription
	nextID  int
	creates []string
	updates []string
	deletes []string
}

func newFakeTasks(owner string, tasks ...domain.Task) *fakeTasks {
	return &fakeTasks{
		tasks: map[string][]domain.Task{owner: tasks},
		subs:  map[string]*fakeSubscription{},
	}
}

func (f *fakeTasks) subscribe(_ context.Context, ownerID string) (tasklist.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSubscription{ch: make(chan []domain.Task, 16)}
	sub.ch <- append([]domain.Task(nil), f.tasks[ownerID]...)
	f.subs[ownerID] = sub
	return sub, nil
}

func (f *fakeTasks) Create(title string, completed bool, ownerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.creates = append(f.creates, title)
	f.tasks[ownerID] = append(f.tasks[ownerID], domain.Task{
		ID:        "new-" + string(rune('0'+f.nextID)),
		OwnerID:   ownerID,
		Title:     title,
		Completed: completed,
	})
	f.publishLocked(ownerID)
}

func (f *fakeTasks) Update(taskID string, patch domain.TaskPatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, taskID)
	for owner, tasks := range f.tasks {
		for idx := range tasks {
			if tasks[idx].ID != taskID {
				continue
			}
			if patch.Title != nil {
				tasks[idx].Title = *patch.Title
			}
			if patch.Completed != nil {
				tasks[idx].Completed = *patch.Completed
			}
			f.publishLocked(owner)
		}
	}
}

func (f *fakeTasks) Delete(taskID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, taskID)
	for owner, tasks := range f.tasks {
		kept := tasks[:0:0]
		for _, task := range tasks {
			if task.ID != taskID {
				kept = append(kept, task)
			}
		}
		f.tasks[owner] = kept
		f.publishLocked(owner)
	}
}

func (f *fakeTasks) publishLocked(ownerID string) {
	sub, ok := f.subs[ownerID]
	if !ok {
		return
	}
	defer func() { _ = recover() }()
	select {
	case sub.ch <- append([]domain.Task(nil), f.tasks[ownerID]...):
	default:
	}
}

func sampleTasks(owner string) []domain.Task {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	return []domain.Task{
		{ID: "t1", OwnerID: owner, Title: "Buy milk", CreatedAt: now, UpdatedAt: now},
		{ID: "t2", OwnerID: owner, Title: "Walk dog", Completed: true, CreatedAt: now, UpdatedAt: now},
	}
}

func newTestModel(t *testing.T, session *fakeSession, tasks *fakeTasks, opts ...Option) (Model, *tasklist.Feed) {
	t.Helper()
	feed := tasklist.NewFeed(tasklist.SubscriberFunc(tasks.subscribe))
	t.Cleanup(feed.Close)
	return NewModel(session, feed, tasks, opts...), feed
}

func TestModelStartsOnLoginWithoutSession(t *testing.T) {
	session := &fakeSession{}
	m, _ := newTestModel(t, session, newFakeTasks("u1"))
	m = loadReadyModel(t, m)

	if m.Route() != RouteLogin {
		t.Fatalf("expected login route, got %q", m.Route())
	}
	out := m.renderView()
	if !strings.Contains(out, "LOGIN") || !strings.Contains(out, "ctrl+s sign up") {
		t.Fatalf("expected login view, got\n%s", out)
	}
	if strings.Contains(out, "ctrl+g") {
		t.Fatalf("expected no federated hint without provider, got\n%s", out)
	}
}

func TestModelRestoredSessionLoadsTasks(t *testing.T) {
	session := &fakeSession{current: domain.Identity{ID: "u1", Email: "a@b.co"}, restored: true}
	m, _ := newTestModel(t, session, newFakeTasks("u1", sampleTasks("u1")...))
	m = loadReadyModel(t, m)

	if m.Route() != RouteHome {
		t.Fatalf("expected home route, got %q", m.Route())
	}
	if got := len(m.controller.Tasks()); got != 2 {
		t.Fatalf("expected 2 tasks, got %d", got)
	}
	out := m.renderView()
	for _, want := range []string{"TASK LIST", "a@b.co", "Buy milk", "Walk dog", "1 item left", "c clear completed", "All", "Active", "Completed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view, got\n%s", want, out)
		}
	}
}

func TestModelLoginValidationAndErrors(t *testing.T) {
	session := &fakeSession{signInErr: app.NewAuthError(app.AuthCodeWrongPassword, nil)}
	m, _ := newTestModel(t, session, newFakeTasks("u1"))
	m = loadReadyModel(t, m)

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if got := m.login.Error(); got != "Please enter an email address" {
		t.Fatalf("expected missing email message, got %q", got)
	}
	if len(session.calls) != 1 {
		t.Fatalf("expected no sign-in call for empty form, got %#v", session.calls)
	}

	m = typeText(t, m, "a@b.co")
	if m.login.Error() != "" {
		t.Fatalf("expected typing to clear the error, got %q", m.login.Error())
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	m = typeText(t, m, "secret1")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if m.Route() != RouteLogin {
		t.Fatalf("expected to stay on login after failure, got %q", m.Route())
	}
	if got := m.login.Error(); got != "The password is incorrect" {
		t.Fatalf("expected wrong password message, got %q", got)
	}
	if m.login.Pending() {
		t.Fatal("expected pending flag cleared after failure")
	}
	if !strings.Contains(m.renderView(), "The password is incorrect") {
		t.Fatalf("expected error in view, got\n%s", m.renderView())
	}
}

func TestModelSignUpAndFederatedSignIn(t *testing.T) {
	session := &fakeSession{federated: "system"}
	m, _ := newTestModel(t, session, newFakeTasks("u-me@system.local"))
	m = loadReadyModel(t, m)
	if !strings.Contains(m.renderView(), "ctrl+g sign in with system account") {
		t.Fatalf("expected federated hint, got\n%s", m.renderView())
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'g', Mod: tea.ModCtrl})
	if m.Route() != RouteHome {
		t.Fatalf("expected home route after federated sign-in, got %q", m.Route())
	}
	if m.identity.Email != "me@system.local" {
		t.Fatalf("unexpected identity %#v", m.identity)
	}

	session2 := &fakeSession{}
	m2, _ := newTestModel(t, session2, newFakeTasks("u-new@b.co"))
	m2 = loadReadyModel(t, m2)
	m2 = typeText(t, m2, "new@b.co")
	m2 = applyMsg(t, m2, tea.KeyPressMsg{Code: tea.KeyTab})
	m2 = typeText(t, m2, "secret1")
	m2 = applyMsg(t, m2, tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl})
	if m2.Route() != RouteHome {
		t.Fatalf("expected home route after sign-up, got %q", m2.Route())
	}
	if got := session2.calls[len(session2.calls)-1]; got != "signup" {
		t.Fatalf("expected signup call, got %q", got)
	}
	if m2.login.Password() != "" {
		t.Fatal("expected password forgotten after success")
	}
}

func TestModelAddTask(t *testing.T) {
	session := &fakeSession{current: domain.Identity{ID: "u1", Email: "a@b.co"}, restored: true}
	tasks := newFakeTasks("u1")
	m, _ := newTestModel(t, session, tasks)
	m = loadReadyModel(t, m)

	if m.focus != focusAdd {
		t.Fatalf("expected add input focused after sign-in, got %v", m.focus)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if len(tasks.creates) != 0 {
		t.Fatalf("expected empty draft to be ignored, got %#v", tasks.creates)
	}
	m = typeText(t, m, "  Ship it  ")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if len(tasks.creates) != 1 || tasks.creates[0] != "Ship it" {
		t.Fatalf("expected trimmed create, got %#v", tasks.creates)
	}
	if m.addInput.Value() != "" || m.addForm.Draft() != "" {
		t.Fatalf("expected draft cleared, got %q/%q", m.addInput.Value(), m.addForm.Draft())
	}
}

func TestModelEditToggleDeleteAndClear(t *testing.T) {
	session := &fakeSession{current: domain.Identity{ID: "u1", Email: "a@b.co"}, restored: true}
	tasks := newFakeTasks("u1", sampleTasks("u1")...)
	m, _ := newTestModel(t, session, tasks)
	m = loadReadyModel(t, m)
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEsc})
	if m.focus != focusList {
		t.Fatalf("expected list focus, got %v", m.focus)
	}

	m = applyMsg(t, m, keyRune('e'))
	slot, ok := m.controller.EditSlot()
	if !ok || slot.TaskID != "t1" || slot.Draft != "Buy milk" {
		t.Fatalf("expected edit slot on t1, got %#v ok=%t", slot, ok)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyBackspace})
	m = typeText(t, m, "s")
	if slot, _ := m.controller.EditSlot(); slot.Draft != "Buy mils" {
		t.Fatalf("expected draft to follow input, got %q", slot.Draft)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEsc})
	if _, ok := m.controller.EditSlot(); ok {
		t.Fatal("expected esc to cancel the edit")
	}
	if len(tasks.updates) != 0 {
		t.Fatalf("expected cancel to skip updates, got %#v", tasks.updates)
	}

	m = applyMsg(t, m, keyRune('e'))
	m = typeText(t, m, " now")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if len(tasks.updates) != 1 || tasks.updates[0] != "t1" {
		t.Fatalf("expected one rename update, got %#v", tasks.updates)
	}

	m = applyMsg(t, m, keyRune('x'))
	if len(tasks.updates) != 2 {
		t.Fatalf("expected toggle update, got %#v", tasks.updates)
	}

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('d'))
	if len(tasks.deletes) != 1 || tasks.deletes[0] != "t2" {
		t.Fatalf("expected delete of t2, got %#v", tasks.deletes)
	}

	m = applyMsg(t, m, snapshotMsg{generation: m.generation, tasks: []domain.Task{
		{ID: "t1", OwnerID: "u1", Title: "Buy milk now", Completed: true},
		{ID: "t3", OwnerID: "u1", Title: "Call mom"},
	}})
	m = applyMsg(t, m, keyRune('c'))
	if got := tasks.deletes[len(tasks.deletes)-1]; got != "t1" {
		t.Fatalf("expected clear completed to delete t1, got %#v", tasks.deletes)
	}
	if !strings.Contains(m.status, "cleared 1 completed") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelFilters(t *testing.T) {
	session := &fakeSession{current: domain.Identity{ID: "u1", Email: "a@b.co"}, restored: true}
	m, _ := newTestModel(t, session, newFakeTasks("u1", sampleTasks("u1")...))
	m = loadReadyModel(t, m)
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEsc})

	m = applyMsg(t, m, keyRune('2'))
	if m.controller.Filter() != domain.FilterActive {
		t.Fatalf("expected active filter, got %q", m.controller.Filter())
	}
	out := m.renderView()
	if !strings.Contains(out, "Buy milk") || strings.Contains(out, "Walk dog") {
		t.Fatalf("expected only active tasks, got\n%s", out)
	}

	m = applyMsg(t, m, keyRune('3'))
	out = m.renderView()
	if strings.Contains(out, "Buy milk") || !strings.Contains(out, "Walk dog") {
		t.Fatalf("expected only completed tasks, got\n%s", out)
	}
	if !strings.Contains(out, "1 item left") {
		t.Fatalf("expected counter to ignore filter, got\n%s", out)
	}

	m = applyMsg(t, m, keyRune('f'))
	if m.controller.Filter() != domain.FilterAll {
		t.Fatalf("expected filter cycle to wrap to all, got %q", m.controller.Filter())
	}
	m = applyMsg(t, m, keyRune('1'))
	if m.controller.Filter() != domain.FilterAll {
		t.Fatalf("expected all filter, got %q", m.controller.Filter())
	}
}

func TestModelCompactLayoutMovesFilterBar(t *testing.T) {
	session := &fakeSession{current: domain.Identity{ID: "u1", Email: "a@b.co"}, restored: true}
	m, _ := newTestModel(t, session, newFakeTasks("u1", sampleTasks("u1")...), WithCompactWidth(60))
	m = loadReadyModel(t, m)
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 50, Height: 40})

	lines := strings.Split(m.renderView(), "\n")
	counterLine, filterLine := -1, -1
	for idx, line := range lines {
		if strings.Contains(line, "item left") {
			counterLine = idx
		}
		if strings.Contains(line, "Active") && filterLine < 0 {
			filterLine = idx
		}
	}
	if counterLine < 0 || filterLine < 0 {
		t.Fatalf("expected counter and filter bar, got\n%s", m.renderView())
	}
	if filterLine <= counterLine {
		t.Fatalf("expected filter bar below the list in compact layout, counter=%d filter=%d", counterLine, filterLine)
	}
}

func TestModelDropsStaleSnapshots(t *testing.T) {
	session := &fakeSession{current: domain.Identity{ID: "u1", Email: "a@b.co"}, restored: true}
	m, _ := newTestModel(t, session, newFakeTasks("u1", sampleTasks("u1")...))
	m = loadReadyModel(t, m)

	m = applyMsg(t, m, snapshotMsg{generation: m.generation + 7, tasks: []domain.Task{{ID: "x", Title: "Ghost"}}})
	if strings.Contains(m.renderView(), "Ghost") {
		t.Fatal("expected stale snapshot to be ignored")
	}
	m = applyMsg(t, m, snapshotMsg{generation: m.generation, closed: true})
	if len(m.controller.Tasks()) != 2 {
		t.Fatalf("expected closed delivery to keep the list, got %d tasks", len(m.controller.Tasks()))
	}
}

func TestModelSnapshotClosesEditOnRemovedTask(t *testing.T) {
	session := &fakeSession{current: domain.Identity{ID: "u1", Email: "a@b.co"}, restored: true}
	m, _ := newTestModel(t, session, newFakeTasks("u1", sampleTasks("u1")...))
	m = loadReadyModel(t, m)
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEsc})
	m = applyMsg(t, m, keyRune('e'))
	if _, ok := m.controller.EditSlot(); !ok {
		t.Fatal("expected edit slot open")
	}

	remaining := sampleTasks("u1")[1:]
	m = applyMsg(t, m, snapshotMsg{generation: m.generation, tasks: remaining})
	if m.editing() {
		t.Fatal("expected edit slot closed once its task left the list")
	}
	if !strings.Contains(m.renderView(), "task being edited was removed") {
		t.Fatalf("expected removal notice, got\n%s", m.renderView())
	}

	m = applyMsg(t, m, keyRune('e'))
	slot, ok := m.controller.EditSlot()
	if !ok || slot.TaskID != "t2" {
		t.Fatalf("expected keys to reach the list again, got %#v ok=%t", slot, ok)
	}
	m = applyMsg(t, m, snapshotMsg{generation: m.generation, tasks: remaining})
	if !m.editing() {
		t.Fatal("expected edit slot kept while its task is still listed")
	}
}

func TestModelLogoutReturnsToLogin(t *testing.T) {
	session := &fakeSession{current: domain.Identity{ID: "u1", Email: "a@b.co"}, restored: true}
	m, feed := newTestModel(t, session, newFakeTasks("u1", sampleTasks("u1")...))
	m = loadReadyModel(t, m)
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEsc})
	before := feed.Generation()

	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'L', Text: "L"})
	if m.Route() != RouteLogin {
		t.Fatalf("expected login route after logout, got %q", m.Route())
	}
	if _, ok := feed.Current(); ok {
		t.Fatal("expected feed closed after logout")
	}
	if feed.Generation() <= before {
		t.Fatalf("expected generation to advance, before=%d after=%d", before, feed.Generation())
	}
	if m.controller.Loaded() || len(m.controller.Tasks()) != 0 {
		t.Fatal("expected controller reset after logout")
	}
	if strings.Contains(m.renderView(), "Buy milk") {
		t.Fatalf("expected no tasks on login screen, got\n%s", m.renderView())
	}
}

func TestModelThemeHelpAndCopy(t *testing.T) {
	session := &fakeSession{current: domain.Identity{ID: "u1", Email: "a@b.co"}, restored: true}
	var copied []string
	m, _ := newTestModel(t, session, newFakeTasks("u1", sampleTasks("u1")...), WithClipboard(func(s string) error {
		copied = append(copied, s)
		return nil
	}))
	m = loadReadyModel(t, m)
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEsc})

	m = applyMsg(t, m, keyRune('t'))
	if m.theme.Name() != ThemeLight {
		t.Fatalf("expected light theme, got %q", m.theme.Name())
	}
	if !strings.Contains(m.renderView(), "theme: light") {
		t.Fatalf("expected theme in header, got\n%s", m.renderView())
	}

	m = applyMsg(t, m, keyRune('y'))
	if len(copied) != 1 || copied[0] != "Buy milk" {
		t.Fatalf("expected focused title copied, got %#v", copied)
	}
	if !strings.Contains(m.status, "copied") {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = applyMsg(t, m, keyRune('?'))
	if !m.showHelp || !strings.Contains(m.renderView(), "tickit help") {
		t.Fatalf("expected help overlay, got\n%s", m.renderView())
	}
	m = applyMsg(t, m, keyRune('d'))
	if !m.showHelp {
		t.Fatal("expected help overlay to swallow keys")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEsc})
	if m.showHelp {
		t.Fatal("expected esc to close help")
	}

	failing, _ := newTestModel(t, session, newFakeTasks("u1"), WithClipboard(func(string) error {
		return errors.New("no display")
	}))
	failing = applyMsg(t, failing, clipboardMsg{text: "x", err: errors.New("no display")})
	if !strings.Contains(failing.status, "copy failed") {
		t.Fatalf("unexpected status %q", failing.status)
	}
}

func TestModelQuitKey(t *testing.T) {
	session := &fakeSession{current: domain.Identity{ID: "u1", Email: "a@b.co"}, restored: true}
	m, feed := newTestModel(t, session, newFakeTasks("u1"))
	m = loadReadyModel(t, m)
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEsc})

	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if _, ok := feed.Current(); ok {
		t.Fatal("expected feed closed on quit")
	}
}

func TestModelViewUsesAltScreen(t *testing.T) {
	m, _ := newTestModel(t, &fakeSession{}, newFakeTasks("u1"))
	v := m.View()
	if v.Content == nil || !v.AltScreen {
		t.Fatal("expected alt-screen loading view")
	}
	if got := m.renderView(); got != "loading..." {
		t.Fatalf("expected loading text before first resize, got %q", got)
	}
}

func TestHelpers(t *testing.T) {
	if got := clamp(5, 0, 3); got != 3 {
		t.Fatalf("clamp() = %d, want 3", got)
	}
	if got := clamp(-1, 0, -1); got != 0 {
		t.Fatalf("clamp() on empty range = %d, want 0", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate() = %q", got)
	}
	if got := truncate("ab", 4); got != "ab" {
		t.Fatalf("truncate() = %q", got)
	}
	if got := fitLines("a\nb\nc", 2); got != "a\n…" {
		t.Fatalf("fitLines() = %q", got)
	}
	if got := itemsLeftText(1); got != "1 item left" {
		t.Fatalf("itemsLeftText(1) = %q", got)
	}
	if got := itemsLeftText(0); got != "0 items left" {
		t.Fatalf("itemsLeftText(0) = %q", got)
	}
	if got := emptyListText(domain.FilterCompleted); got != "nothing completed yet" {
		t.Fatalf("emptyListText() = %q", got)
	}
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	return applyMsg(t, applyCmd(t, m, m.Init()), tea.WindowSizeMsg{Width: 120, Height: 40})
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

// applyCmd runs cmd and the commands it produces, expanding batches. Commands
// that do not return promptly, such as blink ticks or snapshot waits with
// nothing queued, are dropped.
func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	queue := []tea.Cmd{cmd}
	for steps := 0; steps < 32 && len(queue) > 0; steps++ {
		current := queue[0]
		queue = queue[1:]
		if current == nil {
			continue
		}
		msg, ok := runCmd(current)
		if !ok || msg == nil {
			continue
		}
		if batch, isBatch := msg.(tea.BatchMsg); isBatch {
			queue = append(queue, batch...)
			continue
		}
		if _, quit := msg.(tea.QuitMsg); quit {
			continue
		}
		updated, next := out.Update(msg)
		casted, isModel := updated.(Model)
		if !isModel {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		queue = append(queue, next)
	}
	return out
}

func runCmd(cmd tea.Cmd) (tea.Msg, bool) {
	done := make(chan tea.Msg, 1)
	go func() {
		done <- cmd()
	}()
	select {
	case msg := <-done:
		return msg, true
	case <-time.After(50 * time.Millisecond):
		return nil, false
	}
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = applyMsg(t, m, keyRune(r))
	}
	return m
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}
