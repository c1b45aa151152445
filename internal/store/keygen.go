package store

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// keyGenerator issues ULID child keys. Monotonic entropy keeps keys
// strictly increasing within a process even at the same millisecond, so
// key order is a stable tie-break for equal timestamps.
type keyGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newKeyGenerator() *keyGenerator {
	return &keyGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (g *keyGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}
