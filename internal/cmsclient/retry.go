package cmsclient

import (
	"context"
	"time"
)

// retryRead retries an idempotent read up to 3 attempts total with bounded
// exponential backoff. Writes never go through this helper.
func retryRead[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	const maxAttempts = 3
	backoff := 100 * time.Millisecond

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err = fn(ctx)
		if err == nil || attempt == maxAttempts {
			return result, err
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return result, err
}
