package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "my_test_jwt_secret"

func TestGenerateAndParseJWT(t *testing.T) {
	tokenString, err := GenerateJWT(testSecret, "u1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := ParseJWT(testSecret, tokenString)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.Time.After(time.Now()))
}

func TestGenerateJWT_EmptyUser(t *testing.T) {
	_, err := GenerateJWT(testSecret, "", time.Hour)
	assert.Error(t, err)
}

func TestParseJWT_InvalidToken(t *testing.T) {
	_, err := ParseJWT(testSecret, "this.is.not.a.valid.jwt")
	assert.Error(t, err)
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tokenString, err := GenerateJWT(testSecret, "u2", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT("totally_wrong_secret", tokenString)
	assert.Error(t, err)
}

func TestParseJWT_Expired(t *testing.T) {
	tokenString, err := GenerateJWT(testSecret, "u3", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(testSecret, tokenString)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
