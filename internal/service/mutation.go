package service

import (
	"context"
	"time"

	domainerrors "github.com/gleamverse/readsync/internal/errors"
)

const (
	// toggleMaxAttempts bounds how many times a toggle is retried
	// before the failure surfaces to the caller.
	toggleMaxAttempts = 3
	// toggleBaseBackoff is the wait before the second attempt; it
	// doubles for each attempt after that.
	toggleBaseBackoff = 300 * time.Millisecond
)

// withRetry runs fn up to attempts times, sleeping base, 2*base, ...
// between tries. Only remote-unavailable failures are retried: a
// validation or duplicate error will not get better by waiting.
func withRetry(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	var err error
	backoff := base

	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !domainerrors.Is(err, domainerrors.ErrUnavailable) {
			return err
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return err
}
