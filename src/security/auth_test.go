package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/cryptofolio/backend/src/config"
)

const testSecret = "test-secret-key-at-least-32-bytes-long!!"

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	config.Cfg = &config.AppConfig{
		JWTSecret:         testSecret,
		AccessTokenExpiry: time.Minute,
	}
	return NewAuthService(testSecret)
}

func TestHashAndComparePassword(t *testing.T) {
	svc := newTestAuthService(t)

	hash, err := svc.HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.NoError(t, svc.CompareHashAndPassword(hash, "s3cret-password"))
	assert.Error(t, svc.CompareHashAndPassword(hash, "wrong-password"))
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", userID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := newTestAuthService(t)
	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	other := NewAuthService("another-secret-key-also-32-bytes-long!!!")
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	config.Cfg = &config.AppConfig{
		JWTSecret:         testSecret,
		AccessTokenExpiry: -time.Minute,
	}
	svc := NewAuthService(testSecret)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestGenerateRefreshTokenIsRandom(t *testing.T) {
	svc := newTestAuthService(t)

	first, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	second, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
