// Package auth provides authentication and authorization for promptdeck
// services.
//
// # Tokens
//
// Users authenticate with JWT bearer tokens signed HS256 using the
// configured jwt_secret. The auth service issues tokens at login:
//
//	token, err := verifier.Generate(userID, ttl)
//	userID, err := verifier.Verify(token)
//
// # Verification Modes
//
// Protected services verify tokens in one of two modes, selected once at
// startup:
//
//   - local: decode the token in-process with the shared secret.
//   - remote: call the auth service's GET /auth/validate endpoint. A
//     transport failure or unexpected status degrades to local
//     verification when local_fallback is enabled, so services stay
//     available during an auth outage. A clean 401 from the authority is
//     final and never falls back.
//
// # HTTP Middleware
//
// Middleware extracts the bearer token, runs the configured verification,
// and attaches the user ID to the request context:
//
//	userID := auth.MustUserID(r.Context())
//
// # Ownership
//
// After authentication, handlers confirm resource ownership with
// Authorize before reading or mutating any project, prompt, or
// conversation. Mismatches surface to clients as 404 so resource
// existence is not leaked.
//
// # Passwords
//
// BcryptHasher provides the one-way hash and verify capability used at
// registration and login.
package auth
