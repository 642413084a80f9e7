package driven

import (
	"context"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

// TokenProvider provides the static credential for authenticated API calls.
type TokenProvider interface {
	// GetToken returns the access token, or empty string without one.
	GetToken(ctx context.Context) (string, error)

	// AuthMethod returns the authentication method (pat, none).
	AuthMethod() domain.AuthMethod

	// IsAuthenticated returns true if a credential is available.
	IsAuthenticated() bool
}
