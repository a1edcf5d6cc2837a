package main

import "golang.org/x/crypto/bcrypt"

const defaultBcryptCost = 12

// passwordHasher wraps bcrypt so the cost lives in one place and tests can
// lower it.
type passwordHasher struct {
	cost int
}

func newPasswordHasher(cost int) *passwordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultBcryptCost
	}
	return &passwordHasher{cost: cost}
}

func (h *passwordHasher) hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

// verify reports whether plaintext matches the stored hash. A malformed
// stored hash is reported as a mismatch, not an error.
func (h *passwordHasher) verify(plaintext string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}
