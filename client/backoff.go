package client

import (
	"context"
	"math/rand"
	"time"
)

const (
	backoffMin = 100 * time.Millisecond
	backoffMax = 5 * time.Second
)

// backoff spaces retries using the "Decorrelated Jitter" approach from
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
// sleep = min(cap, random_between(base, sleep * 3))
type backoff struct {
	duration time.Duration
}

func newBackoff() *backoff {
	return &backoff{duration: backoffMin}
}

// wait sleeps for the current backoff period, then advances it. It
// returns early when the context is cancelled.
func (b *backoff) wait(ctx context.Context) error {
	t := time.NewTimer(b.duration)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	b.duration = backoffMin + time.Duration(rand.Int63n(int64((b.duration*3)-backoffMin)))
	if b.duration > backoffMax {
		b.duration = backoffMax
	}
	return nil
}
