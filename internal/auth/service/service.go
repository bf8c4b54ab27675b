// Package service implements professional authentication: license + password
// login issuing short-lived JWT access tokens.
package service

import (
	"context"
	"errors"
	"time"

	"leadmarket_backend/internal/professionals/repository"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// CredentialReader is the consumer-driven interface over the professional
// registry; auth only needs license lookup.
type CredentialReader interface {
	GetByLicense(ctx context.Context, licenseID string) (repository.Professional, error)
}

// Service authenticates professionals.
type Service struct {
	creds CredentialReader
	cfg   config.AuthServiceConfig
	log   *logger.Logger
}

// New creates an auth service.
func New(creds CredentialReader, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{creds: creds, cfg: cfg, log: log}
}

// TokenPair is the login result.
type TokenPair struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login verifies license + password and returns a signed access token.
// Failures are reported uniformly so callers cannot probe for registered
// licenses.
func (s *Service) Login(ctx context.Context, licenseID, password string) (TokenPair, error) {
	pro, err := s.creds.GetByLicense(ctx, licenseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.AuthEvent("login", licenseID, false, "unknown license")
			return TokenPair{}, apperr.Unauthorized("invalid credentials")
		}
		return TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(pro.PasswordHash), []byte(password)); err != nil {
		s.log.AuthEvent("login", licenseID, false, "wrong password")
		return TokenPair{}, apperr.Unauthorized("invalid credentials")
	}

	expiresAt := time.Now().Add(s.cfg.GetAccessTokenTTL())
	claims := jwt.MapClaims{
		"sub":   pro.ID.String(),
		"type":  "access",
		"roles": []string{"professional"},
		"exp":   expiresAt.Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "failed to sign token", err)
	}

	s.log.AuthEvent("login", licenseID, true, "")
	return TokenPair{AccessToken: signed, ExpiresAt: expiresAt}, nil
}
