package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndValidate(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	u := NewUser("Ada", "ada", "hash", RoleUser)

	token, expiresAt, err := issuer.Issue(u)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, expiresAt, time.Now().UnixMilli())

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, u.Username, claims.Username)
	assert.Equal(t, u.Role, claims.Role)
}

func TestTokenIssuer_InvalidToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	_, err := issuer.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	issuer1 := NewTokenIssuer("secret-one", time.Hour)
	issuer2 := NewTokenIssuer("secret-two", time.Hour)
	u := NewUser("Ada", "ada", "hash", RoleUser)

	token, _, err := issuer1.Issue(u)
	require.NoError(t, err)

	_, err = issuer2.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Hour)
	u := NewUser("Ada", "ada", "hash", RoleUser)

	token, _, err := issuer.Issue(u)
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_ZeroTTLDefaults(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0)
	assert.Equal(t, DefaultTokenTTL, issuer.ttl)
}
