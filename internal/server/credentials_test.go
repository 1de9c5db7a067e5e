package server

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// Tests use MinCost so each hash takes microseconds, not hundreds of
// milliseconds.
func testVault() *CredentialVault {
	return NewCredentialVault(bcrypt.MinCost)
}

func TestVaultHashAndVerify(t *testing.T) {
	v := testVault()

	hash, err := v.Hash("correct horse 1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correct horse 1" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash format: %q", hash)
	}

	if !v.Verify("correct horse 1", hash) {
		t.Fatal("correct password should verify")
	}
	if v.Verify("wrong horse 1", hash) {
		t.Fatal("wrong password should not verify")
	}
}

func TestVaultHashesAreSalted(t *testing.T) {
	v := testVault()

	h1, err := v.Hash("same password 1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := v.Hash("same password 1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password should differ")
	}
	if !v.Verify("same password 1", h1) || !v.Verify("same password 1", h2) {
		t.Fatal("both hashes should verify against the original password")
	}
}

func TestVaultRejectsEmptyPlaintext(t *testing.T) {
	v := testVault()

	if _, err := v.Hash(""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Hash(\"\") = %v, want ErrInvalidInput", err)
	}
}

func TestVaultVerifyMalformedHash(t *testing.T) {
	v := testVault()

	// A corrupt stored hash reads as a failed match, never a panic or
	// a distinguishable error.
	if v.Verify("anything", "not-a-bcrypt-hash") {
		t.Fatal("malformed hash should not verify")
	}
	if v.Verify("anything", "") {
		t.Fatal("empty hash should not verify")
	}
}

func TestVaultCostClamping(t *testing.T) {
	for _, cost := range []int{-1, 0, 3, 100} {
		v := NewCredentialVault(cost)
		if v.cost != defaultBcryptCost {
			t.Fatalf("cost %d: got %d, want default %d", cost, v.cost, defaultBcryptCost)
		}
	}

	v := NewCredentialVault(bcrypt.MinCost)
	if v.cost != bcrypt.MinCost {
		t.Fatalf("in-range cost should be kept, got %d", v.cost)
	}
}
