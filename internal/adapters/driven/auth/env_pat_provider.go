// Package auth provides token providers for the connectors.
package auth

import (
	"context"
	"os"
	"strings"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// GithubTokenEnv is the environment variable holding the GitHub token.
const GithubTokenEnv = "GITHUB_TOKEN"

// Ensure EnvPATProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*EnvPATProvider)(nil)

// EnvPATProvider reads a static Personal Access Token from the environment.
// PATs don't expire and don't require refresh.
type EnvPATProvider struct {
	variable string
	lookup   func(string) (string, bool)
}

// NewEnvPATProvider creates a provider reading variable on every call.
func NewEnvPATProvider(variable string) *EnvPATProvider {
	return &EnvPATProvider{variable: variable, lookup: os.LookupEnv}
}

// GetToken returns the trimmed token, or an empty string when unset.
func (p *EnvPATProvider) GetToken(_ context.Context) (string, error) {
	return p.token(), nil
}

// AuthMethod returns AuthMethodPAT when a token is set.
func (p *EnvPATProvider) AuthMethod() domain.AuthMethod {
	if p.token() == "" {
		return domain.AuthMethodNone
	}
	return domain.AuthMethodPAT
}

// IsAuthenticated returns true if the variable holds a token.
func (p *EnvPATProvider) IsAuthenticated() bool {
	return p.token() != ""
}

func (p *EnvPATProvider) token() string {
	v, _ := p.lookup(p.variable)
	return strings.TrimSpace(v)
}

// NewGithubTokenProvider returns an env provider for GITHUB_TOKEN when it is
// set, and a NullTokenProvider otherwise.
func NewGithubTokenProvider() driven.TokenProvider {
	p := NewEnvPATProvider(GithubTokenEnv)
	if !p.IsAuthenticated() {
		return NewNullTokenProvider()
	}
	return p
}
