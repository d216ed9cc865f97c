// Package rand generates random names for test fixtures.
package rand

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

const letters = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	once sync.Once
	mu   sync.Mutex
	rgen *rand.Rand
)

func seed() {
	rgen = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec
}

// LetterString returns a random string of n characters picked in [a-z0-9]
func LetterString(n int) string {
	once.Do(seed)
	var b strings.Builder
	b.Grow(n)
	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < n; i++ {
		b.WriteByte(letters[rgen.Intn(len(letters))])
	}
	return b.String()
}

// Name returns a random dotted package name, like "prefix.k3x9q0"
func Name(prefix string) string {
	if prefix == "" {
		prefix = "pkg"
	}
	return prefix + "." + LetterString(6)
}
