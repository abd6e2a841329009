package middleware

import (
	"context"

	"github.com/oskaz/oskaz-api/pkg/identity"
)

type contextKey string

const (
	ctxSessionID contextKey = "cart_session_id"
	ctxClaims    contextKey = "identity_claims"
)

// SessionIDFromContext returns the cart session identifier, if present.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromContext returns the verified identity claims, if present.
func ClaimsFromContext(ctx context.Context) *identity.SessionClaims {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxClaims).(*identity.SessionClaims); ok {
		return v
	}
	return nil
}

// WithSessionID injects the cart session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// WithClaims injects verified identity claims into the context.
func WithClaims(ctx context.Context, claims *identity.SessionClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClaims, claims)
}
