package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-service-server/config"
	"feedback-service-server/database"
	"feedback-service-server/models"
	"feedback-service-server/utils"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	users, err := database.NewUserStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	return NewAuthService(users, config.JWTConfig{Secret: "test-secret", ExpiryHours: 1})
}

func TestRegisterThenLogin(t *testing.T) {
	auth := newTestAuthService(t)

	registered, err := auth.Register(models.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.UserPublic{Username: "alice", Email: "alice@example.com", Role: models.RoleUser}, registered.User)
	assert.NotEmpty(t, registered.AccessToken)

	principal, err := auth.Verify(registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, "user", principal.Role)
	assert.NotEmpty(t, principal.UserID)

	loggedIn, err := auth.Login(models.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, registered.User, loggedIn.User)

	me, err := auth.Me(principal)
	require.NoError(t, err)
	assert.Equal(t, registered.User, me)
}

func TestRegisterRejectsMismatchAndDuplicate(t *testing.T) {
	auth := newTestAuthService(t)

	_, err := auth.Register(models.RegisterRequest{Username: "a", Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret2"})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Passwords do not match", err.Error())

	req := models.RegisterRequest{Username: "a", Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret1"}
	_, err = auth.Register(req)
	require.NoError(t, err)
	_, err = auth.Register(req)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Email already registered", err.Error())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newTestAuthService(t)
	_, err := auth.Register(models.RegisterRequest{Username: "a", Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)

	_, err = auth.Login(models.LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = auth.Login(models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	auth := newTestAuthService(t)
	principal := models.User{ID: "usr_1", Username: "a", Role: models.RoleAdmin}

	foreign, err := utils.GenerateToken(principalOf(principal), "other-secret", time.Hour)
	require.NoError(t, err)
	_, err = auth.Verify(foreign)
	assert.Error(t, err)

	expired, err := utils.GenerateToken(principalOf(principal), "test-secret", -time.Minute)
	require.NoError(t, err)
	_, err = auth.Verify(expired)
	assert.Error(t, err)

	_, err = auth.Verify("not-a-token")
	assert.Error(t, err)
}

func TestEnsureDefaultUsersIsIdempotent(t *testing.T) {
	auth := newTestAuthService(t)
	cfg := config.AuthConfig{
		DefaultAdminEmail: "admin@gmail.com", DefaultAdminPassword: "Admin@123",
		DefaultUserEmail: "user@gmail.com", DefaultUserPassword: "User@123",
	}

	require.NoError(t, auth.EnsureDefaultUsers(cfg))
	require.NoError(t, auth.EnsureDefaultUsers(cfg))

	admin, err := auth.Login(models.LoginRequest{Email: "admin@gmail.com", Password: "Admin@123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.User.Role)

	user, err := auth.Login(models.LoginRequest{Email: "user@gmail.com", Password: "User@123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.User.Role)
}
