package auth

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/hylla/tickit/internal/app"
)

// SystemProviderName names the operating-system account provider.
const SystemProviderName = "system"

// SystemProvider is a federated provider backed by the local OS account:
// whoever runs the process is signed in as that account.
type SystemProvider struct {
	current  func() (*user.User, error)
	hostname func() (string, error)
}

// NewSystemProvider constructs a new value for this package.
func NewSystemProvider() *SystemProvider {
	return &SystemProvider{current: user.Current, hostname: os.Hostname}
}

// Name returns the provider name stored on created identities.
func (p *SystemProvider) Name() string {
	return SystemProviderName
}

// Authenticate returns the running OS account as a federated account.
func (p *SystemProvider) Authenticate(ctx context.Context) (app.FederatedAccount, error) {
	if err := ctx.Err(); err != nil {
		return app.FederatedAccount{}, err
	}
	u, err := p.current()
	if err != nil {
		return app.FederatedAccount{}, fmt.Errorf("resolve os user: %w", err)
	}
	host, err := p.hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	return app.FederatedAccount{
		Subject: u.Uid,
		Email:   systemEmail(u.Username, host),
	}, nil
}

// systemEmail builds a stable pseudo address for a local account.
func systemEmail(username, host string) string {
	// Windows usernames carry a DOMAIN\ prefix.
	if idx := strings.LastIndex(username, `\`); idx >= 0 {
		username = username[idx+1:]
	}
	username = sanitizeLocalPart(username)
	if username == "" {
		username = "user"
	}
	host = strings.ToLower(sanitizeLocalPart(host))
	if host == "" {
		host = "localhost"
	}
	if !strings.Contains(host, ".") {
		host += ".local"
	}
	return strings.ToLower(username) + "@" + host
}

func sanitizeLocalPart(in string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(in) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".")
}
