// ABOUTME: Unit tests for bcrypt password hashing
// ABOUTME: Roundtrip, wrong password, malformed hash, cost clamping

package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_Roundtrip(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "" || hash == "correct horse battery staple" {
		t.Fatalf("Hash() = %q, want salted hash", hash)
	}

	if !hasher.Verify("correct horse battery staple", hash) {
		t.Error("Verify() correct password = false, want true")
	}
	if hasher.Verify("wrong password", hash) {
		t.Error("Verify() wrong password = true, want false")
	}
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	h1, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if h1 == h2 {
		t.Error("two hashes of the same password are identical, salting is broken")
	}
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	if hasher.Verify("anything", "not-a-bcrypt-hash") {
		t.Error("Verify() malformed hash = true, want false")
	}
	if hasher.Verify("anything", "") {
		t.Error("Verify() empty hash = true, want false")
	}
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	// Out-of-range costs fall back to the default rather than failing at
	// hash time.
	for _, cost := range []int{-1, 0, 99} {
		hasher := NewBcryptHasher(cost)
		hash, err := hasher.Hash("pw")
		if err != nil {
			t.Errorf("cost %d: Hash() error = %v", cost, err)
			continue
		}
		if !strings.HasPrefix(hash, "$2") {
			t.Errorf("cost %d: Hash() = %q, want bcrypt format", cost, hash)
		}
	}
}
