package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/security"
	"github.com/storekeephq/storekeep-go/pkg/config"
)

// ErrInvalidCredentials is returned for a wrong admin password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService issues admin tokens for the cache management endpoints.
type AuthService struct {
	logger *logging.ChanneledLogger
}

// NewAuthService creates the admin auth service.
func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{logger: logger}
}

// Login exchanges the admin password for a signed token. The configured
// password is a bcrypt hash, never plaintext.
func (s *AuthService) Login(password string) (string, error) {
	if config.AdminPassword == "" || config.JWTSecret == "" {
		return "", errors.New("admin auth is not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(config.AdminPassword), []byte(password)); err != nil {
		s.logger.Auth().Warn("Rejected admin login attempt")
		return "", ErrInvalidCredentials
	}

	token, err := security.GenerateAdminToken(config.JWTSecret, config.AdminTokenTTL)
	if err != nil {
		return "", err
	}
	s.logger.Auth().Info("Admin token issued", "ttl", config.AdminTokenTTL)
	return token, nil
}
