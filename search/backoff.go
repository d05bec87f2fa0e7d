package search

import (
	"math/rand"
	"time"
)

// Backoff paces retries after rate-limited attempts. Delays grow
// exponentially with the attempt number, capped at Cap, with half a second
// of jitter either way and a one second floor.
type Backoff struct {
	Cap    time.Duration
	jitter func() float64
}

func NewBackoff() *Backoff {
	return &Backoff{
		Cap:    16 * time.Second,
		jitter: func() float64 { return rand.Float64() - 0.5 },
	}
}

// NextDelay returns the pause before retry number attempt (zero-based).
func (b *Backoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	cap := b.Cap
	if cap <= 0 {
		cap = 16 * time.Second
	}

	base := cap
	if attempt < 63 {
		if d := time.Duration(uint64(1)<<uint(attempt)) * time.Second; d < cap {
			base = d
		}
	}

	delay := base + time.Duration(b.jitter()*float64(time.Second))
	if delay < time.Second {
		delay = time.Second
	}
	return delay
}
