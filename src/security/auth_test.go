package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/wealthfolio/backend/src/config"
)

func testAuthService(t *testing.T) *AuthService {
	t.Helper()
	if config.Cfg == nil {
		config.Cfg = &config.AppConfig{AccessTokenExpiry: time.Hour}
	}
	return NewAuthService("test-secret-key-that-is-at-least-32-bytes")
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testAuthService(t)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", userID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := testAuthService(t)
	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	other := NewAuthService("a-completely-different-32-byte-secret!!")
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := testAuthService(t)
	_, err := svc.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	svc := testAuthService(t)

	hash, err := svc.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, svc.CompareHashAndPassword(hash, "correct horse battery staple"))
	assert.Error(t, svc.CompareHashAndPassword(hash, "wrong password"))
}
