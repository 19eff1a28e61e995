// ABOUTME: Remote token verification against the auth service's validate endpoint
// ABOUTME: Distinguishes authoritative rejections from authority outages

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrAuthorityUnavailable is returned when the auth service cannot be
// reached or answers with an unexpected status. Callers may degrade to
// local verification; a clean 401 never produces this error.
var ErrAuthorityUnavailable = errors.New("auth authority unavailable")

// DefaultRemoteTimeout bounds the validate call when none is configured.
const DefaultRemoteTimeout = 5 * time.Second

// RemoteVerifier verifies tokens by calling the auth service's
// GET /auth/validate endpoint with the token forwarded as a bearer header.
type RemoteVerifier struct {
	baseURL string
	client  *http.Client
}

// NewRemoteVerifier creates a verifier for the auth service at baseURL.
// A zero timeout falls back to DefaultRemoteTimeout.
func NewRemoteVerifier(baseURL string, timeout time.Duration) *RemoteVerifier {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &RemoteVerifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// validateResponse is the JSON body returned by GET /auth/validate.
type validateResponse struct {
	UserID string `json:"user_id"`
}

// Verify sends the token to the authority and returns the user ID it vouches
// for. A 401 or 404 is an authoritative rejection (ErrInvalidToken); any
// transport failure or other non-200 status is ErrAuthorityUnavailable.
func (v *RemoteVerifier) Verify(ctx context.Context, tokenString string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/validate", nil)
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrAuthorityUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenString)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthorityUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body validateResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("%w: decoding response: %v", ErrAuthorityUnavailable, err)
		}
		if body.UserID == "" {
			return "", fmt.Errorf("%w: empty user_id", ErrAuthorityUnavailable)
		}
		return body.UserID, nil
	case http.StatusUnauthorized, http.StatusNotFound:
		// The authority has seen the token and rejected it. This must not
		// trigger a local fallback.
		return "", ErrInvalidToken
	default:
		return "", fmt.Errorf("%w: unexpected status %d", ErrAuthorityUnavailable, resp.StatusCode)
	}
}
