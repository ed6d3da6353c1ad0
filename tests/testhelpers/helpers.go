// Package testhelpers carries shared helpers for drover tests.
package testhelpers

import (
	"math/rand"
	"time"
)

// NewRand returns a seeded Rand for generating test data.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

const alphaNum = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenRandomAlphaNumericString generates a random string of length [1, 21)
// suitable for ids and type names.
func GenRandomAlphaNumericString(rng *rand.Rand) string {
	length := rng.Intn(20) + 1
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = alphaNum[rng.Intn(len(alphaNum))]
	}
	return string(result)
}

// Poll calls check every interval until it returns true or the timeout
// lapses; reports whether the condition was ever observed.
func Poll(timeout, interval time.Duration, check func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return true
		}
		time.Sleep(interval)
	}
	return false
}
