package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hylla/tickit/internal/domain"
)

// SessionProvider owns the signed-in identity of this process and keeps it
// in a local session store across restarts.
type SessionProvider struct {
	accounts *AccountService
	store    SessionStore

	mu      sync.RWMutex
	current *domain.Identity
}

// NewSessionProvider constructs a new value for this package.
func NewSessionProvider(accounts *AccountService, store SessionStore) *SessionProvider {
	return &SessionProvider{
		accounts: accounts,
		store:    store,
	}
}

// FederatedProviderName returns the name of the configured federated
// provider, or "" when federated sign-in is unavailable.
func (p *SessionProvider) FederatedProviderName() string {
	return p.accounts.FederatedProviderName()
}

// CurrentIdentity returns the signed-in identity when present.
func (p *SessionProvider) CurrentIdentity() (domain.Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return domain.Identity{}, false
	}
	return *p.current, true
}

// Restore reloads the persisted session. An expired or invalid token is
// discarded and reported as no identity rather than as an error.
func (p *SessionProvider) Restore(ctx context.Context) (domain.Identity, bool, error) {
	token, err := p.store.Load()
	if err != nil {
		return domain.Identity{}, false, fmt.Errorf("load session: %w", err)
	}
	if token == "" {
		return domain.Identity{}, false, nil
	}
	identity, err := p.accounts.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			if clearErr := p.store.Clear(); clearErr != nil {
				return domain.Identity{}, false, fmt.Errorf("clear stale session: %w", clearErr)
			}
			return domain.Identity{}, false, nil
		}
		return domain.Identity{}, false, err
	}
	p.set(&identity)
	return identity, true, nil
}

// SignIn signs in with email and password.
func (p *SessionProvider) SignIn(ctx context.Context, creds Credentials) (domain.Identity, error) {
	identity, token, err := p.accounts.SignIn(ctx, creds)
	return p.establish(identity, token, err)
}

// SignUp creates an account and signs in with it.
func (p *SessionProvider) SignUp(ctx context.Context, creds Credentials) (domain.Identity, error) {
	identity, token, err := p.accounts.SignUp(ctx, creds)
	return p.establish(identity, token, err)
}

// SignInWithFederatedProvider signs in through the configured external provider.
func (p *SessionProvider) SignInWithFederatedProvider(ctx context.Context) (domain.Identity, error) {
	identity, token, err := p.accounts.SignInWithFederatedProvider(ctx)
	return p.establish(identity, token, err)
}

// SignOut forgets the identity and removes the persisted session.
func (p *SessionProvider) SignOut(_ context.Context) error {
	p.set(nil)
	if err := p.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (p *SessionProvider) establish(identity domain.Identity, token string, err error) (domain.Identity, error) {
	if err != nil {
		return domain.Identity{}, err
	}
	if err := p.store.Save(token); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrSessionNotPersisted, err)
	}
	p.set(&identity)
	return identity, nil
}

func (p *SessionProvider) set(identity *domain.Identity) {
	p.mu.Lock()
	p.current = identity
	p.mu.Unlock()
}
