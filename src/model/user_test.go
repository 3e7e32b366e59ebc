package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/cryptofolio/backend/src/database"
	"github.com/username/cryptofolio/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")

	dir, err := os.MkdirTemp("", "cryptofolio-model-test-*")
	if err != nil {
		panic(err)
	}
	database.InitDB(filepath.Join(dir, "test.db"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func createTestUser(t *testing.T, username, email string) *User {
	t.Helper()
	user := &User{
		Username: username,
		Email:    email,
	}
	require.NoError(t, user.HashPassword("password123"))
	require.NoError(t, user.CreateUser(database.DB))
	require.NotZero(t, user.ID)
	return user
}

func TestCreateAndGetUser(t *testing.T) {
	created := createTestUser(t, "alice", "alice@example.com")

	byName, err := GetUserByUsername(database.DB, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "alice@example.com", byName.Email)
	assert.Equal(t, "local", byName.AuthProvider)
	assert.False(t, byName.IsEmailVerified)

	byEmail, err := GetUserByEmail(database.DB, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := GetUserByID(database.DB, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	assert.NoError(t, byName.CheckPassword("password123"))
	assert.Error(t, byName.CheckPassword("wrong"))
}

func TestGetUserNotFound(t *testing.T) {
	_, err := GetUserByUsername(database.DB, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestEmailVerificationFlow(t *testing.T) {
	user := &User{
		Username: "bob",
		Email:    "bob@example.com",
	}
	require.NoError(t, user.HashPassword("password123"))
	user.EmailVerificationToken.String = "verify-token-bob"
	user.EmailVerificationToken.Valid = true
	user.EmailVerificationTokenExpiresAt.Time = time.Now().Add(time.Hour)
	user.EmailVerificationTokenExpiresAt.Valid = true
	require.NoError(t, user.CreateUser(database.DB))

	found, err := GetUserByVerificationToken(database.DB, "verify-token-bob")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	require.NoError(t, found.MarkEmailVerified(database.DB))

	reloaded, err := GetUserByID(database.DB, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsEmailVerified)
	assert.False(t, reloaded.EmailVerificationToken.Valid)

	_, err = GetUserByVerificationToken(database.DB, "verify-token-bob")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPasswordResetFlow(t *testing.T) {
	user := createTestUser(t, "carol", "carol@example.com")

	require.NoError(t, user.SetPasswordResetToken(database.DB, "reset-token-carol", time.Now().Add(time.Hour)))

	found, err := GetUserByPasswordResetToken(database.DB, "reset-token-carol")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	newHashUser := &User{}
	require.NoError(t, newHashUser.HashPassword("new-password"))
	require.NoError(t, found.UpdatePassword(database.DB, newHashUser.Password))

	reloaded, err := GetUserByID(database.DB, user.ID)
	require.NoError(t, err)
	assert.NoError(t, reloaded.CheckPassword("new-password"))
	assert.Error(t, reloaded.CheckPassword("password123"))

	// Token is single-use.
	_, err = GetUserByPasswordResetToken(database.DB, "reset-token-carol")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestExpiredResetTokenRejected(t *testing.T) {
	user := createTestUser(t, "dave", "dave@example.com")
	require.NoError(t, user.SetPasswordResetToken(database.DB, "expired-token", time.Now().Add(-time.Hour)))

	_, err := GetUserByPasswordResetToken(database.DB, "expired-token")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	user := createTestUser(t, "erin", "erin@example.com")

	session := &Session{
		UserID:       user.ID,
		Token:        "access-token-erin",
		RefreshToken: "refresh-token-erin",
		UserAgent:    "test-agent",
		ClientIP:     "127.0.0.1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, CreateSession(database.DB, session))

	byToken, err := GetSessionByToken(database.DB, "access-token-erin")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byToken.UserID)

	byRefresh, err := GetSessionByRefreshToken(database.DB, "refresh-token-erin")
	require.NoError(t, err)
	assert.Equal(t, byToken.ID, byRefresh.ID)

	require.NoError(t, UpdateSessionToken(database.DB, byToken.ID, "rotated-token"))
	_, err = GetSessionByToken(database.DB, "access-token-erin")
	assert.Error(t, err)
	rotated, err := GetSessionByToken(database.DB, "rotated-token")
	require.NoError(t, err)
	assert.Equal(t, user.ID, rotated.UserID)

	require.NoError(t, DeleteSessionByToken(database.DB, "rotated-token"))
	_, err = GetSessionByToken(database.DB, "rotated-token")
	assert.Error(t, err)
}

func TestExpiredSessionNotReturned(t *testing.T) {
	user := createTestUser(t, "frank", "frank@example.com")

	session := &Session{
		UserID:       user.ID,
		Token:        "expired-session-token",
		RefreshToken: "expired-session-refresh",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	require.NoError(t, CreateSession(database.DB, session))

	_, err := GetSessionByToken(database.DB, "expired-session-token")
	assert.Error(t, err)
}
