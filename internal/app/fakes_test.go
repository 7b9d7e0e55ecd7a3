package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hylla/tickit/internal/domain"
)

// fakeRepo is an in-memory TaskRepository and UserRepository.
type fakeRepo struct {
	mu      sync.Mutex
	tasks   map[string]domain.Task
	order   []string
	events  []domain.ChangeEvent
	users   map[string]domain.User
	failGet error
	failDel map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tasks:   map[string]domain.Task{},
		users:   map[string]domain.User{},
		failDel: map[string]error{},
	}
}

func (f *fakeRepo) record(ownerID, taskID string, op domain.ChangeOperation) {
	f.events = append(f.events, domain.ChangeEvent{
		ID:         int64(len(f.events) + 1),
		OwnerID:    ownerID,
		TaskID:     taskID,
		Operation:  op,
		OccurredAt: time.Now(),
	})
}

func (f *fakeRepo) CreateTask(_ context.Context, t domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[t.ID]; ok {
		return ErrConflict
	}
	f.tasks[t.ID] = t
	f.order = append(f.order, t.ID)
	f.record(t.OwnerID, t.ID, domain.ChangeOperationCreate)
	return nil
}

func (f *fakeRepo) UpdateTask(_ context.Context, id string, patch domain.TaskPatch, now time.Time) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	if err := t.Apply(patch, now); err != nil {
		return domain.Task{}, err
	}
	f.tasks[id] = t
	f.record(t.OwnerID, t.ID, domain.ChangeOperationUpdate)
	return t, nil
}

func (f *fakeRepo) GetTask(_ context.Context, id string) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return domain.Task{}, f.failGet
	}
	t, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeRepo) ListTasks(_ context.Context, ownerID string) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Task, 0, len(f.order))
	for _, id := range f.order {
		t, ok := f.tasks[id]
		if !ok || t.OwnerID != ownerID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRepo) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failDel[id]; err != nil {
		return err
	}
	t, ok := f.tasks[id]
	if !ok {
		return ErrNotFound
	}
	delete(f.tasks, id)
	f.record(t.OwnerID, id, domain.ChangeOperationDelete)
	return nil
}

func (f *fakeRepo) ChangeVersion(_ context.Context, ownerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var version int64
	for _, ev := range f.events {
		if ev.OwnerID == ownerID {
			version = ev.ID
		}
	}
	return version, nil
}

func (f *fakeRepo) ListChangeEvents(_ context.Context, ownerID string, limit int) ([]domain.ChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ChangeEvent, 0)
	for _, ev := range f.events {
		if ev.OwnerID == ownerID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// insertExternal simulates a write made by another process: no broadcaster publish.
func (f *fakeRepo) insertExternal(t domain.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = t
	f.order = append(f.order, t.ID)
	f.record(t.OwnerID, t.ID, domain.ChangeOperationCreate)
}

func (f *fakeRepo) CreateUser(_ context.Context, u domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) GetUser(_ context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, ErrNotFound
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hash:" + password, nil
}

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(identity domain.Identity) (string, error) {
	return "token:" + identity.ID, nil
}

func (fakeTokens) Verify(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "token:")
	if !ok || id == "" {
		return "", errors.New("bad token")
	}
	return id, nil
}

type fakeSessionStore struct {
	token   string
	saveErr error
	cleared int
}

func (s *fakeSessionStore) Load() (string, error) { return s.token, nil }

func (s *fakeSessionStore) Save(token string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.token = token
	return nil
}

func (s *fakeSessionStore) Clear() error {
	s.token = ""
	s.cleared++
	return nil
}

type fakeFederated struct {
	account FederatedAccount
	err     error
}

func (f fakeFederated) Name() string { return "system" }

func (f fakeFederated) Authenticate(context.Context) (FederatedAccount, error) {
	return f.account, f.err
}

// sequentialIDs returns an IDGenerator yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) IDGenerator {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedClock(now time.Time) Clock {
	return func() time.Time { return now }
}
