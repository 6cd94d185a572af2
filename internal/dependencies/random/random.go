package random

import (
	"crypto/rand"
	"encoding/hex"
)

// Random generates randomness that can be mocked for testing.
type Random interface {
	// Hex returns a random lowercase hex string of the given length.
	Hex(length int) string
}

// CryptoRandom implements Random using crypto/rand.
type CryptoRandom struct{}

// New creates a CryptoRandom.
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Hex returns a random hex string of the given length.
func (r *CryptoRandom) Hex(length int) string {
	if length <= 0 {
		return ""
	}
	b := make([]byte, (length+1)/2)
	// crypto/rand.Read never fails on supported platforms.
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)[:length]
}
