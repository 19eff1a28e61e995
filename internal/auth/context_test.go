// ABOUTME: Unit tests for user ID context propagation
// ABOUTME: WithUserID/UserIDFromContext roundtrip and MustUserID panic

package auth

import (
	"context"
	"testing"
)

func TestUserIDFromContext(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-1")

	id, ok := UserIDFromContext(ctx)
	if !ok {
		t.Fatal("UserIDFromContext() ok = false, want true")
	}
	if id != "user-1" {
		t.Errorf("UserIDFromContext() = %q, want %q", id, "user-1")
	}
}

func TestUserIDFromContext_Absent(t *testing.T) {
	id, ok := UserIDFromContext(context.Background())
	if ok {
		t.Error("UserIDFromContext() ok = true, want false")
	}
	if id != "" {
		t.Errorf("UserIDFromContext() = %q, want empty", id)
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	ctx := WithUserID(context.Background(), "")
	if _, ok := UserIDFromContext(ctx); ok {
		t.Error("empty user ID should not count as authenticated")
	}
}

func TestMustUserID_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustUserID() did not panic on unauthenticated context")
		}
	}()
	MustUserID(context.Background())
}
