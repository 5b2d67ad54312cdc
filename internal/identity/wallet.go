package identity

import (
	"math/rand/v2"
	"strings"
)

// base58 is the Bitcoin/Solana alphabet: no 0, O, I, or l. The keys are
// cosmetic, wallet-shaped rather than cryptographic.
const base58 = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	walletLen = 44
	seedLen   = 5
)

// NewWallet mints a random wallet-shaped key for a freshly created
// identity. Uniqueness is probabilistic, which is plenty at this scale.
func NewWallet(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(walletLen)
	for i := 0; i < walletLen; i++ {
		b.WriteByte(base58[rng.IntN(len(base58))])
	}
	return b.String()
}

// NewSeed returns a short random letter sequence used to steer name
// generation and to derive the name fallback.
func NewSeed(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(seedLen)
	for i := 0; i < seedLen; i++ {
		b.WriteByte(letters[rng.IntN(len(letters))])
	}
	return b.String()
}
