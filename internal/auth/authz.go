// ABOUTME: Ownership authorization applied after authentication
// ABOUTME: Pure comparison of a loaded resource's owner against the caller

package auth

import "errors"

// ErrForbidden is returned when an authenticated user is not the owner of
// the targeted resource. Handlers surface this as 404 so callers cannot
// probe for the existence of other users' resources, but the error stays
// distinct from store.ErrNotFound internally.
var ErrForbidden = errors.New("forbidden")

// Owned is implemented by any resource that records its owning user.
type Owned interface {
	OwnerID() string
}

// Authorize confirms the resource belongs to userID. The resource must
// already be loaded; this performs no data access. It must run before any
// mutation and before returning any single-resource read.
func Authorize(resource Owned, userID string) error {
	if resource.OwnerID() != userID {
		return ErrForbidden
	}
	return nil
}
