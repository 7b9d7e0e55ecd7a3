package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hylla/tickit/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// TaskStoreConfig holds configuration for the task store.
type TaskStoreConfig struct {
	// PollInterval controls how often live subscriptions check the shared
	// change version for writes made by other processes. Zero disables polling.
	PollInterval time.Duration
}

// TaskStore is the record store for tasks: owner-scoped live subscriptions
// plus create/update/delete mutations.
type TaskStore struct {
	repo         TaskRepository
	idGen        IDGenerator
	clock        Clock
	pollInterval time.Duration
	changes      *changeBroadcaster
}

// NewTaskStore constructs a new value for this package.
func NewTaskStore(repo TaskRepository, idGen IDGenerator, clock Clock, cfg TaskStoreConfig) *TaskStore {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.PollInterval < 0 {
		cfg.PollInterval = 0
	}
	return &TaskStore{
		repo:         repo,
		idGen:        idGen,
		clock:        clock,
		pollInterval: cfg.PollInterval,
		changes:      newChangeBroadcaster(),
	}
}

// Create stores a new task and returns its store-assigned id.
func (s *TaskStore) Create(ctx context.Context, title string, completed bool, ownerID string) (string, error) {
	task, err := domain.NewTask(domain.TaskInput{
		ID:        s.idGen(),
		OwnerID:   ownerID,
		Title:     title,
		Completed: completed,
	}, s.clock())
	if err != nil {
		return "", err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return "", err
	}
	s.changes.Publish(task.OwnerID)
	return task.ID, nil
}

// Update applies a partial update to one task.
func (s *TaskStore) Update(ctx context.Context, taskID string, patch domain.TaskPatch) error {
	task, err := s.repo.UpdateTask(ctx, strings.TrimSpace(taskID), patch, s.clock())
	if err != nil {
		return err
	}
	s.changes.Publish(task.OwnerID)
	return nil
}

// Delete removes one task.
func (s *TaskStore) Delete(ctx context.Context, taskID string) error {
	task, err := s.repo.GetTask(ctx, strings.TrimSpace(taskID))
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, task.ID); err != nil {
		return err
	}
	s.changes.Publish(task.OwnerID)
	return nil
}

// Get returns one task by id.
func (s *TaskStore) Get(ctx context.Context, taskID string) (domain.Task, error) {
	return s.repo.GetTask(ctx, strings.TrimSpace(taskID))
}

// List returns the current snapshot for one owner in store order.
func (s *TaskStore) List(ctx context.Context, ownerID string) ([]domain.Task, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domain.ErrInvalidOwner
	}
	return s.repo.ListTasks(ctx, ownerID)
}

// ClearCompleted deletes every completed task of the owner in list order.
// Deletions are independent: a failed one does not stop the rest, and the
// returned count covers only the deletions the store accepted.
func (s *TaskStore) ClearCompleted(ctx context.Context, ownerID string) (int, error) {
	tasks, err := s.List(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	deleted := 0
	var errs []error
	for _, task := range tasks {
		if !task.Completed {
			continue
		}
		if err := s.Delete(ctx, task.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete task %q: %w", task.ID, err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

// ListChangeEvents returns the newest change-ledger entries for one owner.
func (s *TaskStore) ListChangeEvents(ctx context.Context, ownerID string, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListChangeEvents(ctx, strings.TrimSpace(ownerID), limit)
}

// Subscribe opens a live feed of full snapshots for one owner. The first
// snapshot is queued before Subscribe returns; later ones follow every change.
// The feed stops when ctx is canceled or Close is called.
func (s *TaskStore) Subscribe(ctx context.Context, ownerID string) (*Subscription, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domain.ErrInvalidOwner
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// Register before the first read so no change between read and register is lost.
	notify, unsubscribe := s.changes.Subscribe(ownerID)
	version, err := s.repo.ChangeVersion(ctx, ownerID)
	if err != nil {
		unsubscribe()
		return nil, fmt.Errorf("read change version: %w", err)
	}
	tasks, err := s.repo.ListTasks(ctx, ownerID)
	if err != nil {
		unsubscribe()
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		ownerID: ownerID,
		ch:      make(chan []domain.Task, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	sub.offer(tasks)
	go sub.run(subCtx, s, notify, unsubscribe, version)
	return sub, nil
}

// Subscription is one live snapshot feed. Snapshots are full replacements;
// only the newest undelivered snapshot is kept.
type Subscription struct {
	ownerID string
	ch      chan []domain.Task
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	lastErr error
}

// OwnerID returns the identity this feed is scoped to.
func (s *Subscription) OwnerID() string {
	return s.ownerID
}

// Snapshots returns the delivery channel. It is closed once the feed stops.
func (s *Subscription) Snapshots() <-chan []domain.Task {
	return s.ch
}

// Err returns the most recent refresh failure, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close stops delivery and waits for the feed goroutine to exit. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

func (s *Subscription) run(ctx context.Context, store *TaskStore, notify <-chan struct{}, unsubscribe func(), version int64) {
	defer close(s.done)
	defer close(s.ch)
	defer unsubscribe()

	var tick <-chan time.Time
	if store.pollInterval > 0 {
		ticker := time.NewTicker(store.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
			version = s.refresh(ctx, store, version)
		case <-tick:
			current, err := store.repo.ChangeVersion(ctx, s.ownerID)
			if err != nil {
				s.setErr(err)
				continue
			}
			if current == version {
				continue
			}
			version = s.refresh(ctx, store, version)
		}
	}
}

// refresh re-reads the full snapshot and queues it, returning the change
// version the snapshot is at least as new as.
func (s *Subscription) refresh(ctx context.Context, store *TaskStore, version int64) int64 {
	current, err := store.repo.ChangeVersion(ctx, s.ownerID)
	if err != nil {
		s.setErr(err)
		return version
	}
	tasks, err := store.repo.ListTasks(ctx, s.ownerID)
	if err != nil {
		s.setErr(err)
		return version
	}
	if ctx.Err() != nil {
		return version
	}
	s.setErr(nil)
	s.offer(tasks)
	return current
}

// offer queues one snapshot, replacing any undelivered older snapshot.
func (s *Subscription) offer(tasks []domain.Task) {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	for {
		select {
		case s.ch <- tasks:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
