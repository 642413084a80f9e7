package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

func TestNullTokenProvider(t *testing.T) {
	p := NewNullTokenProvider()

	token, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Equal(t, domain.AuthMethodNone, p.AuthMethod())
	assert.False(t, p.IsAuthenticated())
}

func TestEnvPATProvider(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantToken string
		wantAuth  bool
	}{
		{"set", "ghp_abc", "ghp_abc", true},
		{"padded", "  ghp_abc\n", "ghp_abc", true},
		{"blank", "   ", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BOOKWYRM_TEST_TOKEN", tt.value)
			p := NewEnvPATProvider("BOOKWYRM_TEST_TOKEN")

			token, err := p.GetToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantAuth, p.IsAuthenticated())
			if tt.wantAuth {
				assert.Equal(t, domain.AuthMethodPAT, p.AuthMethod())
			} else {
				assert.Equal(t, domain.AuthMethodNone, p.AuthMethod())
			}
		})
	}
}

func TestNewGithubTokenProvider(t *testing.T) {
	t.Setenv(GithubTokenEnv, "")
	_, isNull := NewGithubTokenProvider().(*NullTokenProvider)
	assert.True(t, isNull)

	t.Setenv(GithubTokenEnv, "ghp_real")
	p := NewGithubTokenProvider()
	token, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ghp_real", token)
}
