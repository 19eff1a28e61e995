// ABOUTME: Authenticated user identity propagation through request contexts
// ABOUTME: Provides WithUserID/UserIDFromContext used by all service handlers

package auth

import (
	"context"
)

// userIDKey is the key type for storing the authenticated user ID in context.
type userIDKey struct{}

// WithUserID returns a new context carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext retrieves the authenticated user ID from the context.
// Returns "" and false if the request was not authenticated.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// MustUserID retrieves the authenticated user ID, panicking if absent.
// Only for handlers that are always registered behind Middleware.
func MustUserID(ctx context.Context) string {
	id, ok := UserIDFromContext(ctx)
	if !ok {
		panic("auth: user ID not found in context")
	}
	return id
}
