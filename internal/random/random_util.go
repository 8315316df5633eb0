package random

import (
	"math/rand"
	"time"

	"github.com/nspcc-dev/mptdb/pkg/util"
)

// String returns a random string with the n as its length.
func String(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(Int(65, 90))
	}

	return string(b)
}

// Bytes returns a random byte slice of specified length.
func Bytes(n int) []byte {
	b := make([]byte, n)
	Fill(b)
	return b
}

// Fill fills buffer with random bytes.
func Fill(buf []byte) {
	// Rand reader returns no errors
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Read(buf)
}

// Int returns a random integer in [minI,maxI).
func Int(minI, maxI int) int {
	return minI + rand.Intn(maxI-minI)
}

// Uint256 returns a random Uint256.
func Uint256() util.Uint256 {
	var u util.Uint256
	Fill(u[:])
	return u
}

// Keys returns n distinct random keys of up to maxLen bytes drawn from the
// given alphabet, small alphabets produce keys with long common prefixes.
func Keys(n, maxLen int, alphabet []byte) [][]byte {
	var (
		seen = make(map[string]bool, n)
		res  = make([][]byte, 0, n)
	)
	for len(res) < n {
		k := make([]byte, Int(0, maxLen+1))
		for i := range k {
			k[i] = alphabet[rand.Intn(len(alphabet))]
		}
		if !seen[string(k)] {
			seen[string(k)] = true
			res = append(res, k)
		}
	}
	return res
}
