package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the fixed work factor for password hashing.
const DefaultBcryptCost = 12

// PasswordHasher is the narrow hashing contract the verifier depends on.
// Implementations must use a deliberately slow, salted algorithm; this is a
// security invariant, not a tuning knob.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// BcryptHasher hashes passwords with bcrypt. The salt is generated per hash
// and embedded in the encoded output.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher at the default work factor.
func NewBcryptHasher() BcryptHasher {
	return BcryptHasher{Cost: DefaultBcryptCost}
}

// Hash produces a salted bcrypt hash of the password.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	encoded, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(encoded), nil
}

// Verify reports whether the password matches the encoded hash. bcrypt's
// comparison is constant-time over the derived key.
func (h BcryptHasher) Verify(password, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}
