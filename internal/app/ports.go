package app

import (
	"context"
	"time"

	"github.com/hylla/tickit/internal/domain"
)

// TaskRepository is the persistence port behind the record store.
type TaskRepository interface {
	CreateTask(context.Context, domain.Task) error
	// UpdateTask applies a patch atomically and returns the stored result.
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch, now time.Time) (domain.Task, error)
	GetTask(context.Context, string) (domain.Task, error)
	ListTasks(context.Context, string) ([]domain.Task, error)
	DeleteTask(context.Context, string) error
	// ChangeVersion returns a value that grows whenever any task owned by the
	// given owner is created, updated or deleted, from any process.
	ChangeVersion(context.Context, string) (int64, error)
	ListChangeEvents(context.Context, string, int) ([]domain.ChangeEvent, error)
}

// UserRepository is the persistence port behind the account service.
type UserRepository interface {
	CreateUser(context.Context, domain.User) error
	GetUser(context.Context, string) (domain.User, error)
	GetUserByEmail(context.Context, string) (domain.User, error)
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)
	Verify(token string) (userID string, err error)
}

// SessionStore persists one session token between runs.
type SessionStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FederatedAccount is the account asserted by a federated provider.
type FederatedAccount struct {
	Subject string
	Email   string
}

// FederatedProvider authenticates through an external identity source.
type FederatedProvider interface {
	Name() string
	Authenticate(context.Context) (FederatedAccount, error)
}
