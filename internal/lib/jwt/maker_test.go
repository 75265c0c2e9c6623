package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairwaylab/swingcoach/internal/models"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(secretKey, tokenTTL)

	tests := []struct {
		name   string
		userID string
		email  string
		role   models.Role
	}{
		{name: "admin user", userID: "u-1", email: "admin@example.com", role: models.RoleAdmin},
		{name: "free user", userID: "u-2", email: "kim@example.com", role: models.RoleUser},
		{name: "club plan", userID: "u-3", email: "club@example.com", role: models.RoleClubEnterprise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.userID, tt.email, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.userID, claims.Subject)
			assert.Equal(t, tt.email, claims.Email)
			assert.Equal(t, string(tt.role), claims.Role)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)

			id := claims.Identity()
			assert.Equal(t, tt.role, id.Role)
			assert.Equal(t, tt.userID, id.UserID)
		})
	}
}

func TestJWTMaker_DefaultTTL(t *testing.T) {
	maker := NewJWTMaker("secret", 0)
	assert.Equal(t, 7*24*time.Hour, DefaultTTL)

	token, err := maker.GenerateToken("u-1", "a@b.c", models.RoleUser)
	require.NoError(t, err)
	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt.Time, time.Second)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, err := maker.GenerateToken("u-1", "kim@example.com", models.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: createExpiredToken(t, secretKey)},
		{name: "wrong secret key", token: createTokenWithWrongSecret(t)},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "none algorithm", token: createUnsignedToken(t)},
		{name: "missing user id", token: createTokenWithoutUserID(t, secretKey)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_UnknownRoleClaimParsesToUnknown(t *testing.T) {
	maker := NewJWTMaker("secret", time.Minute)
	token, err := maker.GenerateToken("u-1", "kim@example.com", models.Role("legacy_vip"))
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUnknown, claims.Identity().Role)
}

// Смена роли не отражается в уже выпущенном токене.
func TestJWTMaker_IssuedTokenKeepsOldRole(t *testing.T) {
	maker := NewJWTMaker("secret", time.Hour)
	before, err := maker.GenerateToken("u-1", "kim@example.com", models.RoleUser)
	require.NoError(t, err)

	after, err := maker.GenerateToken("u-1", "kim@example.com", models.RolePro)
	require.NoError(t, err)

	oldClaims, err := maker.ParseToken(before)
	require.NoError(t, err)
	newClaims, err := maker.ParseToken(after)
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, oldClaims.Identity().Role)
	assert.Equal(t, models.RolePro, newClaims.Identity().Role)
}

func TestJWTMaker_DifferentSecretKeys(t *testing.T) {
	maker1 := NewJWTMaker("first_secret_key", 15*time.Minute)
	maker2 := NewJWTMaker("different_secret_key", 15*time.Minute)

	token, err := maker1.GenerateToken("u-1", "a@b.c", models.RoleAdmin)
	require.NoError(t, err)

	claims, err := maker2.ParseToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)

	claims, err = maker1.ParseToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
}

func TestJWTMaker_TokenExpiration(t *testing.T) {
	maker := NewJWTMaker("test_secret_key", time.Hour)
	now := time.Now()
	maker.now = func() time.Time { return now }

	token, err := maker.GenerateToken("u-1", "a@b.c", models.RoleUser)
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	require.NoError(t, err)

	maker.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = maker.ParseToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func createExpiredToken(t *testing.T, secretKey string) string {
	maker := NewJWTMaker(secretKey, -time.Hour)
	token, err := maker.GenerateToken("u-1", "a@b.c", models.RoleUser)
	require.NoError(t, err)
	return token
}

func createTokenWithWrongSecret(t *testing.T) string {
	wrongMaker := NewJWTMaker("wrong_secret_key", 15*time.Minute)
	token, err := wrongMaker.GenerateToken("u-1", "a@b.c", models.RoleUser)
	require.NoError(t, err)
	return token
}

func createUnsignedToken(t *testing.T) string {
	claims := CustomClaims{
		UserID: "u-1",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

func createTokenWithoutUserID(t *testing.T, secretKey string) string {
	claims := CustomClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	require.NoError(t, err)
	return token
}
