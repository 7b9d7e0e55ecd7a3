// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources, including tasks
// owned by another identity.
var ErrNotFound = errors.New("not found")

// ErrUnauthenticated reports a missing or rejected bearer token.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrConflict reports a uniqueness violation.
var ErrConflict = errors.New("conflict")

// TaskItem is the transport view of one task.
type TaskItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskList is one full snapshot of an identity's tasks in store order.
type TaskList struct {
	Tasks       []TaskItem `json:"tasks"`
	ActiveCount int        `json:"active_count"`
	StateHash   string     `json:"state_hash"`
}

// IdentityView is the transport view of one identity.
type IdentityView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

// AuthResult is returned by sign-up and sign-in.
type AuthResult struct {
	Token    string       `json:"token"`
	Identity IdentityView `json:"identity"`
}

// CredentialsRequest carries one email/password pair.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateTaskRequest captures input for one new task.
type CreateTaskRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed,omitempty"`
}

// UpdateTaskRequest captures a partial task update. Nil fields are untouched.
type UpdateTaskRequest struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// TaskService exposes owner-scoped task operations to transports.
type TaskService interface {
	ListTasks(ctx context.Context, ownerID string) (TaskList, error)
	CreateTask(ctx context.Context, ownerID string, in CreateTaskRequest) (TaskItem, error)
	UpdateTask(ctx context.Context, ownerID, taskID string, in UpdateTaskRequest) (TaskItem, error)
	DeleteTask(ctx context.Context, ownerID, taskID string) error
	ClearCompleted(ctx context.Context, ownerID string) (int, error)
	// WatchTasks streams full snapshots until ctx ends or stop is called.
	WatchTasks(ctx context.Context, ownerID string) (<-chan TaskList, func(), error)
}

// AccountService exposes account operations to transports.
type AccountService interface {
	SignUp(ctx context.Context, in CredentialsRequest) (AuthResult, error)
	SignIn(ctx context.Context, in CredentialsRequest) (AuthResult, error)
	Authenticate(ctx context.Context, token string) (IdentityView, error)
}
