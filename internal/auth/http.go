// ABOUTME: HTTP middleware gating protected endpoints behind bearer tokens
// ABOUTME: Supports local JWT verification or remote-first with local fallback

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/promptdeck/internal/httpapi"
)

// Mode selects how the middleware verifies presented tokens.
type Mode string

const (
	// ModeLocal decodes tokens with the shared secret in-process.
	ModeLocal Mode = "local"
	// ModeRemote asks the auth service to validate tokens, degrading to
	// local verification during authority outages when fallback is enabled.
	ModeRemote Mode = "remote"
)

// MiddlewareConfig wires the verifiers and policy for Middleware.
// Cache, when set, short-circuits repeat remote verifications of the same
// token; it is ignored in local mode.
type MiddlewareConfig struct {
	Mode          Mode
	Local         TokenVerifier
	Remote        *RemoteVerifier
	LocalFallback bool
	Cache         *TokenCache
	Logger        *slog.Logger
}

// ExtractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func ExtractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// Middleware authenticates every request once: it extracts the bearer
// token, verifies it per the configured mode, and attaches the user ID to
// the request context for downstream handlers.
//
// Failure mapping:
//   - missing/malformed header: 401 with the specific parse failure
//   - rejected token (local or authoritative remote 401): 401 "invalid token"
//   - authority unreachable with no fallback: 503 (client should retry,
//     not re-authenticate)
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth-middleware")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := ExtractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				httpapi.WriteError(w, http.StatusUnauthorized, errMsg)
				return
			}

			userID, err := verifyToken(r, token, cfg, logger)
			if err != nil {
				if errors.Is(err, ErrAuthorityUnavailable) {
					httpapi.WriteError(w, http.StatusServiceUnavailable, "auth service unavailable")
					return
				}
				httpapi.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// verifyToken runs the configured verification mode with the fallback
// policy. An authoritative rejection from the remote authority never falls
// back to local verification; only outages do.
func verifyToken(r *http.Request, token string, cfg MiddlewareConfig, logger *slog.Logger) (string, error) {
	if cfg.Mode != ModeRemote || cfg.Remote == nil {
		return cfg.Local.Verify(token)
	}

	if cfg.Cache != nil {
		if userID, ok := cfg.Cache.Get(token); ok {
			return userID, nil
		}
	}

	userID, err := cfg.Remote.Verify(r.Context(), token)
	if err == nil {
		if cfg.Cache != nil {
			cfg.Cache.Put(token, userID)
		}
		return userID, nil
	}
	if !errors.Is(err, ErrAuthorityUnavailable) {
		return "", err
	}

	if cfg.LocalFallback && cfg.Local != nil {
		logger.Warn("auth authority unavailable, falling back to local verification", "error", err)
		return cfg.Local.Verify(token)
	}
	return "", err
}
