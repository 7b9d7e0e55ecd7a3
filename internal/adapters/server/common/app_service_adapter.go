package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/tickit/internal/app"
	"github.com/hylla/tickit/internal/domain"
)

// AppServiceAdapter maps transport contracts onto the task store and account service.
type AppServiceAdapter struct {
	store    *app.TaskStore
	accounts *app.AccountService
}

// NewAppServiceAdapter builds one common adapter over the app services.
func NewAppServiceAdapter(store *app.TaskStore, accounts *app.AccountService) *AppServiceAdapter {
	return &AppServiceAdapter{store: store, accounts: accounts}
}

// ListTasks returns the owner's full snapshot.
func (a *AppServiceAdapter) ListTasks(ctx context.Context, ownerID string) (TaskList, error) {
	if err := a.requireStore(); err != nil {
		return TaskList{}, err
	}
	tasks, err := a.store.List(ctx, ownerID)
	if err != nil {
		return TaskList{}, mapAppError("list tasks", err)
	}
	return newTaskList(tasks)
}

// CreateTask creates one task for the owner.
func (a *AppServiceAdapter) CreateTask(ctx context.Context, ownerID string, in CreateTaskRequest) (TaskItem, error) {
	if err := a.requireStore(); err != nil {
		return TaskItem{}, err
	}
	id, err := a.store.Create(ctx, in.Title, in.Completed, ownerID)
	if err != nil {
		return TaskItem{}, mapAppError("create task", err)
	}
	task, err := a.store.Get(ctx, id)
	if err != nil {
		return TaskItem{}, mapAppError("create task", err)
	}
	return taskItemFromDomain(task), nil
}

// UpdateTask applies a partial update to a task the owner holds.
func (a *AppServiceAdapter) UpdateTask(ctx context.Context, ownerID, taskID string, in UpdateTaskRequest) (TaskItem, error) {
	if err := a.requireStore(); err != nil {
		return TaskItem{}, err
	}
	if _, err := a.ownedTask(ctx, ownerID, taskID); err != nil {
		return TaskItem{}, err
	}
	patch := domain.TaskPatch{Title: in.Title, Completed: in.Completed}
	if err := a.store.Update(ctx, taskID, patch); err != nil {
		return TaskItem{}, mapAppError("update task", err)
	}
	task, err := a.store.Get(ctx, taskID)
	if err != nil {
		return TaskItem{}, mapAppError("update task", err)
	}
	return taskItemFromDomain(task), nil
}

// DeleteTask removes a task the owner holds.
func (a *AppServiceAdapter) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	if err := a.requireStore(); err != nil {
		return err
	}
	if _, err := a.ownedTask(ctx, ownerID, taskID); err != nil {
		return err
	}
	if err := a.store.Delete(ctx, taskID); err != nil {
		return mapAppError("delete task", err)
	}
	return nil
}

// ClearCompleted deletes every completed task of the owner.
func (a *AppServiceAdapter) ClearCompleted(ctx context.Context, ownerID string) (int, error) {
	if err := a.requireStore(); err != nil {
		return 0, err
	}
	deleted, err := a.store.ClearCompleted(ctx, ownerID)
	if err != nil {
		return deleted, mapAppError("clear completed", err)
	}
	return deleted, nil
}

// WatchTasks opens a live snapshot stream for the owner.
func (a *AppServiceAdapter) WatchTasks(ctx context.Context, ownerID string) (<-chan TaskList, func(), error) {
	if err := a.requireStore(); err != nil {
		return nil, nil, err
	}
	sub, err := a.store.Subscribe(ctx, ownerID)
	if err != nil {
		return nil, nil, mapAppError("watch tasks", err)
	}
	out := make(chan TaskList, 1)
	go func() {
		defer close(out)
		for tasks := range sub.Snapshots() {
			list, err := newTaskList(tasks)
			if err != nil {
				continue
			}
			select {
			case out <- list:
			case <-ctx.Done():
				sub.Close()
				return
			}
		}
	}()
	return out, sub.Close, nil
}

// SignUp creates an account and returns its token.
func (a *AppServiceAdapter) SignUp(ctx context.Context, in CredentialsRequest) (AuthResult, error) {
	if a == nil || a.accounts == nil {
		return AuthResult{}, fmt.Errorf("account service is not configured: %w", ErrInvalidRequest)
	}
	identity, token, err := a.accounts.SignUp(ctx, app.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		return AuthResult{}, mapAppError("sign up", err)
	}
	return AuthResult{Token: token, Identity: identityViewFromDomain(identity)}, nil
}

// SignIn verifies credentials and returns a token.
func (a *AppServiceAdapter) SignIn(ctx context.Context, in CredentialsRequest) (AuthResult, error) {
	if a == nil || a.accounts == nil {
		return AuthResult{}, fmt.Errorf("account service is not configured: %w", ErrInvalidRequest)
	}
	identity, token, err := a.accounts.SignIn(ctx, app.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		return AuthResult{}, mapAppError("sign in", err)
	}
	return AuthResult{Token: token, Identity: identityViewFromDomain(identity)}, nil
}

// Authenticate resolves a bearer token.
func (a *AppServiceAdapter) Authenticate(ctx context.Context, token string) (IdentityView, error) {
	if a == nil || a.accounts == nil {
		return IdentityView{}, fmt.Errorf("account service is not configured: %w", ErrUnauthenticated)
	}
	identity, err := a.accounts.Authenticate(ctx, token)
	if err != nil {
		return IdentityView{}, mapAppError("authenticate", err)
	}
	return identityViewFromDomain(identity), nil
}

func (a *AppServiceAdapter) requireStore() error {
	if a == nil || a.store == nil {
		return fmt.Errorf("task store is not configured: %w", ErrInvalidRequest)
	}
	return nil
}

// ownedTask loads taskID and hides tasks of other owners as not found.
func (a *AppServiceAdapter) ownedTask(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.Task{}, fmt.Errorf("task id is required: %w", ErrInvalidRequest)
	}
	task, err := a.store.Get(ctx, taskID)
	if err != nil {
		return domain.Task{}, mapAppError("get task", err)
	}
	if task.OwnerID != strings.TrimSpace(ownerID) {
		return domain.Task{}, fmt.Errorf("get task: %w", ErrNotFound)
	}
	return task, nil
}

// mapAppError maps app and domain errors onto transport sentinels. Auth errors
// keep their code in the chain.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := app.AuthErrorCode(err); ok {
		return fmt.Errorf("%s: %w", operation, err)
	}
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrUnauthenticated):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrUnauthenticated, err))
	case errors.Is(err, app.ErrConflict):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrConflict, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidOwner),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrEmptyPatch),
		errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrInvalidEmail):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

func newTaskList(tasks []domain.Task) (TaskList, error) {
	items := make([]TaskItem, 0, len(tasks))
	active := 0
	for _, task := range tasks {
		items = append(items, taskItemFromDomain(task))
		if !task.Completed {
			active++
		}
	}
	hash, err := computeTaskListHash(items)
	if err != nil {
		return TaskList{}, err
	}
	return TaskList{Tasks: items, ActiveCount: active, StateHash: hash}, nil
}

// computeTaskListHash fingerprints the list content so clients can skip
// identical snapshots. Timestamps are excluded.
func computeTaskListHash(items []TaskItem) (string, error) {
	type hashed struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Completed bool   `json:"completed"`
	}
	payload := make([]hashed, 0, len(items))
	for _, item := range items {
		payload = append(payload, hashed{ID: item.ID, Title: item.Title, Completed: item.Completed})
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode task list hash payload: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func taskItemFromDomain(task domain.Task) TaskItem {
	return TaskItem{
		ID:        task.ID,
		Title:     task.Title,
		Completed: task.Completed,
		CreatedAt: task.CreatedAt.UTC(),
		UpdatedAt: task.UpdatedAt.UTC(),
	}
}

func identityViewFromDomain(identity domain.Identity) IdentityView {
	return IdentityView{
		ID:       identity.ID,
		Email:    identity.Email,
		Provider: identity.Provider,
	}
}
