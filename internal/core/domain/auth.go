package domain

// AuthMethod describes how a remote API call is authenticated.
type AuthMethod string

const (
	// AuthMethodNone sends requests without credentials.
	AuthMethodNone AuthMethod = "none"
	// AuthMethodPAT uses a Personal Access Token.
	AuthMethodPAT AuthMethod = "pat"
)
