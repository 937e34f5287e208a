package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "olympiad"})

	token, expires, err := svc.IssueToken("u-1", "admin@x.com", models.RoleAdmin, "", time.Hour)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestTokenServiceRejectsBadTokens(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "olympiad"})

	other := NewTokenService(TokenConfig{Secret: "other", Issuer: "olympiad"})
	forged, _, err := other.IssueToken("u-1", "a@x.com", models.RoleAdmin, "", time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	wrongIssuer := NewTokenService(TokenConfig{Secret: "secret", Issuer: "elsewhere"})
	token, _, err := wrongIssuer.IssueToken("u-1", "a@x.com", models.RoleAdmin, "", time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	token, _, err = NewTokenService(TokenConfig{Secret: "secret", Issuer: "olympiad"}).IssueToken("u-1", "a@x.com", models.RoleAdmin, "", time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "u-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewTokenService(TokenConfig{Secret: "secret"}).ValidateToken(unsigned)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
