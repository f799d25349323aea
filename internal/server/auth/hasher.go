// Package auth implements the credential-issuance core: password hashing,
// token issuing/parsing, and the workflow service composing them with the
// principals repository.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is the one-way secret hasher used for passwords.
type Hasher interface {
	// Hash returns a salted hash; hashing the same plaintext twice yields
	// different encodings.
	Hash(secret string) (string, error)

	// Verify reports whether candidate matches hashed. A mismatch is a
	// normal false, not an error.
	Verify(hashed, candidate string) bool
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a Hasher with the given work factor; cost values
// outside the bcrypt range fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(hashed, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(candidate)) == nil
}

// DigestToken returns the hex SHA-256 digest under which a refresh token is
// persisted. Refresh tokens are signed high-entropy strings, so an unsalted
// digest suffices, and the deterministic encoding is what the store's
// compare-and-set matches on.
func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// DigestEqual compares two token digests in constant time.
func DigestEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
