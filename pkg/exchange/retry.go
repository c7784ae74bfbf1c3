package exchange

import (
	"context"
	"log"
	"time"
)

// backoffCap bounds the pause between attempts regardless of attempt count.
const backoffCap = 30 * time.Second

// sleep is swapped out by tests.
var sleep = sleepContext

// Retry runs fn up to attempts times, pausing 2^attempt seconds between
// transient failures. A fatal error from fn surfaces immediately; spending
// the whole budget on transient errors surfaces a fatal *APIError carrying
// the attempt count. No call blocks past attempts * backoffCap.
func Retry(ctx context.Context, op string, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		if backoff > backoffCap {
			backoff = backoffCap
		}
		log.Printf("%s: attempt %d/%d failed: %v (retrying in %s)", op, attempt, attempts, err, backoff)
		if err := sleep(ctx, backoff); err != nil {
			return Fatal(op, err)
		}
	}

	return &APIError{Op: op, Kind: KindFatal, Attempts: attempts, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
