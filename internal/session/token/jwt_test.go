package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "civicportal/pkg/domain-errors"
)

var tokenService = NewService("test-signing-key", "test-issuer")

func Test_Generate(t *testing.T) {
	tok, err := tokenService.Generate("admin@portal.test", "administrator", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := tokenService.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin@portal.test", claims.Email)
	assert.Equal(t, "administrator", claims.Kind)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := tokenService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	tok, err := tokenService.Generate("admin@portal.test", "administrator", -time.Hour)
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(tok)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewService("other-signing-key", "test-issuer")
	tok, err := other.Generate("admin@portal.test", "administrator", time.Hour)
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(tok)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}
