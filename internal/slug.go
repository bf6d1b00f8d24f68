package internal

import (
	"math/rand/v2"
)

// Base36 lowercase, matching what ends up in the public /s/{slug} path.
// Randomness is not cryptographic; the store's unique constraint on slug
// is the source of truth for collisions.
const (
	slugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	slugLength   = 6
)

func NewSlug() string {
	b := make([]byte, slugLength)
	for i := range b {
		b[i] = slugAlphabet[rand.IntN(len(slugAlphabet))]
	}
	return string(b)
}
