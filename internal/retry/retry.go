// Package retry provides bounded retries for transient provider failures.
package retry

import (
	"context"
	"time"

	"github.com/hangarops/docsense/internal/domain"
)

// DefaultDelay is the initial backoff delay; it doubles after each attempt.
const DefaultDelay = 500 * time.Millisecond

// Do runs fn up to attempts times, backing off between attempts. Only
// transient errors are retried; terminal errors and context cancellation
// return immediately. The last error is returned when attempts run out.
func Do(ctx context.Context, attempts int, initialDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	delay := initialDelay
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !domain.IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
