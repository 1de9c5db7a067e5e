// credentials.go - One-way password hashing and verification.
//
// Thin wrapper over bcrypt so the cost is configured once and the rest
// of the code never touches the library directly.
package server

import "golang.org/x/crypto/bcrypt"

// defaultBcryptCost balances security and login latency.
const defaultBcryptCost = 12

// CredentialVault hashes and verifies passwords. Pure functions over
// their inputs; no side effects.
type CredentialVault struct {
	cost int
}

// NewCredentialVault returns a vault using the given bcrypt cost, or the
// default when cost is zero or out of bcrypt's range.
func NewCredentialVault(cost int) *CredentialVault {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultBcryptCost
	}
	return &CredentialVault{cost: cost}
}

// Hash returns the bcrypt hash of plaintext. Empty input is rejected
// with ErrInvalidInput; nothing else fails in practice.
func (v *CredentialVault) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrInvalidInput
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether plaintext matches the stored hash. A malformed
// stored hash yields false, never an error: the caller treats it exactly
// like a wrong password.
func (v *CredentialVault) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
