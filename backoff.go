package featuregate

import (
	"time"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// backoff handles exponential backoff with jitter for the watcher's
// periodic refresh loop.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{
		current: initialBackoff,
	}
}

// next returns the next backoff duration and updates the current backoff
func (b *backoff) next() time.Duration {
	// Add jitter between 0-1s
	backoff := b.current + time.Duration(time.Now().UnixNano()%1e9)

	// Double the backoff time, but cap it
	if b.current < maxBackoff {
		b.current *= 2
	}

	return backoff
}

// reset resets the backoff to initial value
func (b *backoff) reset() {
	b.current = initialBackoff
}
