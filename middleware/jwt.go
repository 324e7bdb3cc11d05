package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSecret is returned when token validation is attempted without a configured secret.
var ErrNoSecret = errors.New("jwt secret is not configured")

// JWTValidator validates HS256-signed reviewer tokens.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator creates a JWTValidator with the given signing secret.
// An empty secret produces a validator that rejects every token.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// ValidateToken parses and verifies a token, returning its claims.
func (v *JWTValidator) ValidateToken(_ context.Context, token string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, ErrNoSecret
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token parsing failed: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("token is invalid")
	}

	return claims, nil
}
