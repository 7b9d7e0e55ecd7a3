package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/tickit/internal/domain"
)

// defaultMinPasswordLength matches the password policy of common hosted auth services.
const defaultMinPasswordLength = 6

// Credentials holds one email/password pair.
type Credentials struct {
	Email    string
	Password string
}

// AccountConfig holds configuration for the account service.
type AccountConfig struct {
	MinPasswordLength int
}

// AccountService signs users up and in and verifies session tokens. It keeps
// no per-user state, so the terminal client and the server share it.
type AccountService struct {
	users             UserRepository
	hasher            PasswordHasher
	tokens            TokenIssuer
	federated         FederatedProvider
	idGen             IDGenerator
	clock             Clock
	minPasswordLength int
}

// NewAccountService constructs a new value for this package. federated may be
// nil, in which case federated sign-in reports operation-not-allowed.
func NewAccountService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, federated FederatedProvider, idGen IDGenerator, clock Clock, cfg AccountConfig) *AccountService {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = defaultMinPasswordLength
	}
	return &AccountService{
		users:             users,
		hasher:            hasher,
		tokens:            tokens,
		federated:         federated,
		idGen:             idGen,
		clock:             clock,
		minPasswordLength: cfg.MinPasswordLength,
	}
}

// FederatedProviderName returns the configured provider name, or "" when none.
func (s *AccountService) FederatedProviderName() string {
	if s.federated == nil {
		return ""
	}
	return s.federated.Name()
}

// SignUp creates a password account and returns its identity and session token.
func (s *AccountService) SignUp(ctx context.Context, creds Credentials) (domain.Identity, string, error) {
	email, err := validateEmail(creds.Email)
	if err != nil {
		return domain.Identity{}, "", err
	}
	if creds.Password == "" {
		return domain.Identity{}, "", NewAuthError(AuthCodeMissingPassword, nil)
	}
	if len([]rune(creds.Password)) < s.minPasswordLength {
		return domain.Identity{}, "", NewAuthError(AuthCodeWeakPassword, fmt.Errorf("password must be at least %d characters", s.minPasswordLength))
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return domain.Identity{}, "", NewAuthError(AuthCodeEmailAlreadyInUse, nil)
	} else if !errors.Is(err, ErrNotFound) {
		return domain.Identity{}, "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return domain.Identity{}, "", fmt.Errorf("hash password: %w", err)
	}
	user, err := domain.NewUser(s.idGen(), email, domain.ProviderPassword, hash, s.clock())
	if err != nil {
		return domain.Identity{}, "", err
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return domain.Identity{}, "", NewAuthError(AuthCodeEmailAlreadyInUse, nil)
		}
		return domain.Identity{}, "", fmt.Errorf("create user: %w", err)
	}
	return s.issue(user.Identity)
}

// SignIn verifies an email/password pair.
func (s *AccountService) SignIn(ctx context.Context, creds Credentials) (domain.Identity, string, error) {
	email, err := validateEmail(creds.Email)
	if err != nil {
		return domain.Identity{}, "", err
	}
	if creds.Password == "" {
		return domain.Identity{}, "", NewAuthError(AuthCodeMissingPassword, nil)
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Identity{}, "", NewAuthError(AuthCodeUserNotFound, nil)
		}
		return domain.Identity{}, "", fmt.Errorf("lookup user: %w", err)
	}
	if user.PasswordHash == "" {
		return domain.Identity{}, "", NewAuthError(AuthCodeWrongPassword, nil)
	}
	if err := s.hasher.Compare(user.PasswordHash, creds.Password); err != nil {
		return domain.Identity{}, "", NewAuthError(AuthCodeWrongPassword, nil)
	}
	return s.issue(user.Identity)
}

// SignInWithFederatedProvider signs in through the configured external
// provider, creating the account on first use.
func (s *AccountService) SignInWithFederatedProvider(ctx context.Context) (domain.Identity, string, error) {
	if s.federated == nil {
		return domain.Identity{}, "", NewAuthError(AuthCodeOperationNotAllowed, errors.New("no federated provider configured"))
	}
	account, err := s.federated.Authenticate(ctx)
	if err != nil {
		return domain.Identity{}, "", err
	}
	email, err := validateEmail(account.Email)
	if err != nil {
		return domain.Identity{}, "", err
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return s.issue(user.Identity)
	case !errors.Is(err, ErrNotFound):
		return domain.Identity{}, "", fmt.Errorf("lookup user: %w", err)
	}

	user, err = domain.NewUser(s.idGen(), email, s.federated.Name(), "", s.clock())
	if err != nil {
		return domain.Identity{}, "", err
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.Identity{}, "", fmt.Errorf("create federated user: %w", err)
	}
	return s.issue(user.Identity)
}

// Authenticate resolves a session token to its identity.
func (s *AccountService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, ErrUnauthenticated
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Identity{}, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
		}
		return domain.Identity{}, fmt.Errorf("lookup user: %w", err)
	}
	return user.Identity, nil
}

func (s *AccountService) issue(identity domain.Identity) (domain.Identity, string, error) {
	token, err := s.tokens.Issue(identity)
	if err != nil {
		return domain.Identity{}, "", fmt.Errorf("issue session token: %w", err)
	}
	return identity, token, nil
}

// validateEmail maps empty and malformed addresses to their auth codes.
func validateEmail(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", NewAuthError(AuthCodeMissingEmail, nil)
	}
	email, err := domain.NormalizeEmail(raw)
	if err != nil {
		return "", NewAuthError(AuthCodeInvalidEmail, err)
	}
	return email, nil
}
