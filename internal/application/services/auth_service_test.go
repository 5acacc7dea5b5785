package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/storekeephq/storekeep-go/internal/infrastructure/security"
	"github.com/storekeephq/storekeep-go/pkg/config"
)

func withAuthConfig(t *testing.T, hashedPassword, secret string) {
	t.Helper()
	prevPassword, prevSecret, prevTTL := config.AdminPassword, config.JWTSecret, config.AdminTokenTTL
	config.AdminPassword = hashedPassword
	config.JWTSecret = secret
	config.AdminTokenTTL = time.Hour
	t.Cleanup(func() {
		config.AdminPassword, config.JWTSecret, config.AdminTokenTTL = prevPassword, prevSecret, prevTTL
	})
}

func TestLoginVerifiesBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	withAuthConfig(t, string(hash), "signing-secret")

	svc := NewAuthService(newTestLogger(t))

	token, err := svc.Login("correct horse")
	require.NoError(t, err)
	claims, err := security.ValidateJWT(token, "signing-secret")
	require.NoError(t, err)
	assert.True(t, security.IsAdminClaims(claims))

	_, err = svc.Login("wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// A plaintext value in ADMIN_PASSWORD is not a valid bcrypt hash, so
// logins must fail even when the submitted password matches it.
func TestLoginRejectsPlaintextConfiguredPassword(t *testing.T) {
	withAuthConfig(t, "hunter2", "signing-secret")

	svc := NewAuthService(newTestLogger(t))
	_, err := svc.Login("hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnconfigured(t *testing.T) {
	withAuthConfig(t, "", "")

	svc := NewAuthService(newTestLogger(t))
	_, err := svc.Login("anything")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
