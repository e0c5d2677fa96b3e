// Package pick draws random elements for prompt and caption assembly.
//
// The default source reads crypto/rand so every table entry has an equal,
// unpredictable chance; tests substitute a scripted Source.
package pick

import (
	"crypto/rand"
	"math/big"
)

// Source returns a uniform integer in [0, n).
type Source interface {
	IntN(n int) int
}

type cryptoSource struct{}

func (cryptoSource) IntN(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand.Reader does not fail on supported platforms.
		panic("pick: crypto/rand: " + err.Error())
	}
	return int(v.Int64())
}

// Crypto is the process-wide crypto/rand source. It is safe for concurrent use.
var Crypto Source = cryptoSource{}

// One returns a random element of items. items must not be empty.
func One[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}

// chanceResolution is the granularity of Chance.
const chanceResolution = 1_000_000

// Chance returns true with probability p.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.IntN(chanceResolution) < int(p*chanceResolution)
}

// Shuffle returns a shuffled copy of items.
func Shuffle[T any](src Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
