package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Minute)
	assert.Error(t, err)

	_, err = NewTokenIssuer("   ", time.Minute)
	assert.Error(t, err)
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue("user-1", RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, RoleAdmin, identity.Role)
}

func TestTokenIssuer_Verify_WrongSecret(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	require.NoError(t, err)

	other, err := NewTokenIssuer("other-secret", time.Minute)
	require.NoError(t, err)

	token, err := other.Issue("user-1", RoleUser)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Verify_Expired(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  "user-1",
		"role": "user",
		"iat":  now.Add(-2 * time.Hour).Unix(),
		"exp":  now.Add(-time.Hour).Unix(),
		"typ":  "access",
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Verify_ExpiredAndTamperedAreIndistinguishable(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	require.NoError(t, err)

	now := time.Now().UTC()
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1", "role": "user", "iat": now.Add(-2 * time.Hour).Unix(),
		"exp": now.Add(-time.Hour).Unix(), "typ": "access",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, expiredErr := issuer.Verify(expired)
	_, tamperedErr := issuer.Verify(expired + "x")
	assert.Equal(t, expiredErr, tamperedErr)
}

func TestTokenIssuer_Verify_RejectsNonAccessToken(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	require.NoError(t, err)

	now := time.Now().UTC()
	refreshTyped, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1", "role": "user", "iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(), "typ": "refresh",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(refreshTyped)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Verify_RejectsUnknownRole(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	require.NoError(t, err)

	now := time.Now().UTC()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1", "role": "superuser", "iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(), "typ": "access",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
