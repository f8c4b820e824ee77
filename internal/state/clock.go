package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Clock is a Lamport clock tagged with a per-surface site id. Strokes sent to
// peers carry both so receivers can order and deduplicate them.
type Clock struct {
	site    string
	lamport atomic.Uint64
}

func NewClock() *Clock {
	return &Clock{site: uuid.NewString()}
}

func (c *Clock) Site() string { return c.site }

// Tick advances the clock for a local event.
func (c *Clock) Tick() uint64 {
	return c.lamport.Add(1)
}

// Observe merges a remote timestamp and returns the new local time.
func (c *Clock) Observe(remote uint64) uint64 {
	for {
		cur := c.lamport.Load()
		next := max(cur, remote) + 1
		if c.lamport.CompareAndSwap(cur, next) {
			return next
		}
	}
}
