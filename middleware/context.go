package middleware

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"

	// ActorKey is the context key for the authenticated reviewer identity
	ActorKey contextKey = "actor"
)

// Claims represents JWT claims extracted from a reviewer token.
// Actor is the identity recorded on governance decisions and audit entries.
type Claims struct {
	Actor string `json:"actor"`
	jwt.RegisteredClaims
}

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves JWT claims from context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds JWT claims to the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetActorFromContext retrieves the authenticated actor from context.
// Returns an empty string when the request was not authenticated.
func GetActorFromContext(ctx context.Context) string {
	if val := ctx.Value(ActorKey); val != nil {
		if actor, ok := val.(string); ok {
			return actor
		}
	}
	return ""
}

// WithActor adds the authenticated actor to the context
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}
