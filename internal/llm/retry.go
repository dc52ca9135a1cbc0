package llm

import (
	"context"
	"time"

	"github.com/Iron-Ham/twentyq/internal/errors"
)

// withRetry runs call until it succeeds, fails with a non-retryable error,
// or the retry budget is spent. The delay doubles after every attempt.
func withRetry(ctx context.Context, o clientOptions, call func(context.Context) (string, error)) (string, error) {
	var lastErr error
	delay := o.backoff

	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", lastErr
			case <-timer.C:
			}
			delay = min(delay*2, maxBackoff)
		}

		text, err := call(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !errors.IsRetryable(err) || ctx.Err() != nil {
			return "", err
		}
	}

	return "", lastErr
}
