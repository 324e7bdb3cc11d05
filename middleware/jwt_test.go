package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTValidator_ValidateToken(t *testing.T) {
	const secret = "test-signing-secret"
	validator := NewJWTValidator(secret)
	ctx := context.Background()

	t.Run("valid token returns claims", func(t *testing.T) {
		token := signToken(t, secret, &Claims{
			Actor: "analyst-7",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		claims, err := validator.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "analyst-7", claims.Actor)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := signToken(t, secret, &Claims{
			Actor: "analyst-7",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})

		_, err := validator.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		token := signToken(t, "some-other-secret", &Claims{Actor: "analyst-7"})

		_, err := validator.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := validator.ValidateToken(ctx, "not.a.token")
		assert.Error(t, err)
	})

	t.Run("empty secret rejects every token", func(t *testing.T) {
		empty := NewJWTValidator("")
		token := signToken(t, secret, &Claims{Actor: "analyst-7"})

		_, err := empty.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrNoSecret)
	})
}
