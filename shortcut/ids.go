package shortcut

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"

	"shortcut-panel/clock"
)

// IDGenerator issues ULIDs: a millisecond timestamp followed by monotonic
// entropy, so ids created within the same millisecond still differ and sort
// in creation order.
type IDGenerator struct {
	mu      sync.Mutex
	clock   clock.Clock
	entropy *ulid.MonotonicEntropy
}

func NewIDGenerator(c clock.Clock) *IDGenerator {
	if c == nil {
		c = clock.Real()
	}
	return &IDGenerator{clock: c, entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns a fresh id.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(g.clock.Now()), g.entropy)
	if err != nil {
		// Entropy overflow within one millisecond.
		return ulid.Make().String()
	}
	return id.String()
}
