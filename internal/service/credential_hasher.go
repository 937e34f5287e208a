package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialHasher turns generated passwords into bcrypt digests.
type CredentialHasher struct {
	cost int
}

// NewCredentialHasher builds a hasher; costs outside bcrypt's range fall back to the default.
func NewCredentialHasher(cost int) *CredentialHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialHasher{cost: cost}
}

// Cost returns the bcrypt work factor in use.
func (h *CredentialHasher) Cost() int {
	return h.cost
}

// Hash returns the bcrypt digest of plaintext.
func (h *CredentialHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Matches reports whether plaintext hashes to digest.
func (h *CredentialHasher) Matches(digest, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
