package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	hash, err := svc.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, svc.CheckPassword("correct horse battery", hash))
	assert.False(t, svc.CheckPassword("wrong password", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	user := &models.User{ID: primitive.NewObjectID()}

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Greater(t, claims.Exp, claims.IssuedAt)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	token, err := issuer.GenerateToken(&models.User{ID: primitive.NewObjectID()})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, err := svc.GenerateToken(&models.User{ID: primitive.NewObjectID()})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// A token issued at t0 must survive a staleness check against a credential
// epoch at or before t0, and fail against any later epoch.
func TestCheckStaleness(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	issuedAt := time.Now()

	user := &models.User{
		ID:                  primitive.NewObjectID(),
		CredentialChangedAt: issuedAt.Add(-time.Hour),
	}

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.NoError(t, svc.CheckStaleness(claims, user))

	// password change after issuance invalidates the token
	user.CredentialChangedAt = issuedAt.Add(time.Hour)
	assert.ErrorIs(t, svc.CheckStaleness(claims, user), ErrStaleToken)
}

func TestExtractTokenFromHeader(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.ExtractTokenFromHeader("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	for _, header := range []string{"", "abc123", "Basic abc123", "Bearer "} {
		_, err := svc.ExtractTokenFromHeader(header)
		assert.ErrorIs(t, err, ErrInvalidToken, "header %q", header)
	}
}

func TestValidatePassword(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	assert.NoError(t, svc.ValidatePassword("longenough"))
	assert.Error(t, svc.ValidatePassword("short"))
}
