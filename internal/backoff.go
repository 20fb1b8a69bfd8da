package internal

import "time"

// Backoff paces a polling loop that has nothing to do. Each Miss sleeps and
// doubles the next wait up to a maximum; Hit resets the wait. A Backoff with
// a non-zero maximum is ready for use.
type Backoff struct {
	wait    time.Duration
	start   time.Duration
	maxWait time.Duration
}

// NewBackoff returns a Backoff whose first Miss sleeps start and whose wait
// never exceeds maxWait.
func NewBackoff(start, maxWait time.Duration) Backoff {
	if start <= 0 {
		start = time.Microsecond
	}
	if maxWait < start {
		maxWait = start
	}
	return Backoff{wait: start, start: start, maxWait: maxWait}
}

// Hit resets the wait to its starting value.
func (b *Backoff) Hit() {
	if b.maxWait == 0 {
		panic("maxWait cannot be zero")
	}
	b.wait = b.start
}

// Miss sleeps for the current wait, doubles it and returns the time slept.
func (b *Backoff) Miss() time.Duration {
	if b.maxWait == 0 {
		panic("maxWait cannot be zero")
	}
	wait := b.wait
	time.Sleep(wait)
	b.wait = min(2*wait, b.maxWait)
	return wait
}
