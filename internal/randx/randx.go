// Package randx centralizes the crypto/rand-backed helpers the engine uses in
// place of math/rand, the same choice the teacher repository makes throughout its
// shuffle and AI decision code.
package randx

import (
	"crypto/rand"
	"math/big"
)

// Intn returns a uniform random integer in [0, n). Panics if n <= 0, matching the
// teacher's own randomInt helper which never expects a non-positive bound.
func Intn(n int) int {
	if n <= 0 {
		panic("randx: Intn requires n > 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}

// Shuffle permutes s in place using a Fisher-Yates shuffle driven by Intn.
func Shuffle[T any](s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Chance reports true with the given probability in [0,100].
func Chance(percent int) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return Intn(100) < percent
}
