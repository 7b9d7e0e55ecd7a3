package domain

import (
	"net/mail"
	"strings"
	"time"
)

// ProviderPassword marks identities created with email + password.
const ProviderPassword = "password"

// Identity is the authenticated user that owns a task list.
type Identity struct {
	ID        string
	Email     string
	Provider  string
	CreatedAt time.Time
}

// User is the persisted account behind an identity.
type User struct {
	Identity
	PasswordHash string
}

// NewUser constructs a new account record.
func NewUser(id, email, provider, passwordHash string, now time.Time) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidID
	}
	email, err := NormalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		provider = ProviderPassword
	}
	return User{
		Identity: Identity{
			ID:        id,
			Email:     email,
			Provider:  provider,
			CreatedAt: now.UTC(),
		},
		PasswordHash: passwordHash,
	}, nil
}

// NormalizeEmail validates one bare address and lowercases it.
func NormalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || !strings.Contains(addr.Address, "@") {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
