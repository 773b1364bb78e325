package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-score-analytics/internal/models"
	appErrors "github.com/noah-isme/sma-score-analytics/pkg/errors"
)

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "sma"})

	token, err := svc.IssueToken(models.JWTClaims{UserID: "u-1", Role: models.RoleTeacher, Permissions: []string{"score:analysis"}}, time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "u-1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.HasPermission("score:analysis"))
	assert.False(t, claims.IsAdmin())
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret"})

	token, err := svc.IssueToken(models.JWTClaims{UserID: "u-1"}, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other"})
	token, err := issuer.IssueToken(models.JWTClaims{UserID: "u-1"}, time.Minute)
	require.NoError(t, err)

	_, err = NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret"}).ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsOtherSigningMethod(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &models.JWTClaims{UserID: "u-1"})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret"}).ValidateToken(signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestJWTClaimsPermissions(t *testing.T) {
	admin := &models.JWTClaims{Role: models.RoleAdmin}
	assert.True(t, admin.HasPermission("score:analysis"))

	student := &models.JWTClaims{Role: models.RoleStudent, Permissions: []string{"score:view"}}
	assert.False(t, student.HasPermission("score:analysis"))

	var missing *models.JWTClaims
	assert.False(t, missing.HasPermission("score:analysis"))
}
