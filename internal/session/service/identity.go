package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"civicportal/internal/platform/config"
	"civicportal/internal/session/models"
	dErrors "civicportal/pkg/domain-errors"
	"civicportal/pkg/platform/sentinel"
)

// AccountStore looks up partner accounts by email.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

// PartnerChecker verifies partner credentials against the account store
// using bcrypt password hashes.
type PartnerChecker struct {
	accounts AccountStore
}

func NewPartnerChecker(accounts AccountStore) *PartnerChecker {
	return &PartnerChecker{accounts: accounts}
}

func (c *PartnerChecker) VerifyCredentials(ctx context.Context, email, password string) (*models.Session, error) {
	account, err := c.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "account store unreachable")
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	return &models.Session{
		Kind:        models.KindPartner,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		IssuedAt:    time.Now().UTC(),
	}, nil
}

// TokenIssuer mints the bearer token attached to administrator sessions.
type TokenIssuer interface {
	Generate(email, kind string, expiresIn time.Duration) (string, error)
}

// AdminChecker verifies administrator credentials against the configured
// login list and issues a bearer token for the moderation endpoints.
type AdminChecker struct {
	logins   []config.AdminLogin
	tokens   TokenIssuer
	tokenTTL time.Duration
}

func NewAdminChecker(logins []config.AdminLogin, tokens TokenIssuer, tokenTTL time.Duration) *AdminChecker {
	return &AdminChecker{logins: logins, tokens: tokens, tokenTTL: tokenTTL}
}

func (c *AdminChecker) VerifyCredentials(ctx context.Context, email, password string) (*models.Session, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	var match *config.AdminLogin
	for i := range c.logins {
		if c.logins[i].Email == normalized {
			match = &c.logins[i]
			break
		}
	}
	if match == nil || !passwordMatches(match.Password, password) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := c.tokens.Generate(normalized, string(models.KindAdministrator), c.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not issue admin token")
	}

	return &models.Session{
		Kind:     models.KindAdministrator,
		Email:    normalized,
		Token:    token,
		IssuedAt: time.Now().UTC(),
	}, nil
}

// passwordMatches accepts either a bcrypt hash or, for development configs,
// a plaintext value compared in constant time.
func passwordMatches(configured, supplied string) bool {
	if strings.HasPrefix(configured, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}
