package adapter

import (
	"context"
	"fmt"
	"time"
)

// Retry runs attempt up to 1+retries times with exponential backoff between
// tries. Errors for which permanent returns true stop the loop immediately.
// The label prefixes returned errors ("webhook", "redis").
func Retry(ctx context.Context, label string, retries int, attempt func(context.Context) error, permanent func(error) bool) error {
	attempts := 1 + retries

	var lastErr error
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", label, err)
		}

		if i > 0 {
			timer := time.NewTimer(Backoff(i))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s: context canceled during backoff: %w", label, ctx.Err())
			case <-timer.C:
			}
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}
		if permanent != nil && permanent(lastErr) {
			return fmt.Errorf("%s: non-retriable error: %w", label, lastErr)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", label, attempts, lastErr)
}
