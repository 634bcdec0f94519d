package resolver

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// retryWithBackoff retries transient failures with exponential backoff and
// jitter. Definitive answers (NXDOMAIN and friends, malformed responses)
// stop the loop immediately; retrying them only burns the query budget.
func retryWithBackoff(ctx context.Context, maxRetries int, base time.Duration, fn func() error) error {
	if base <= 0 {
		base = 250 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if isPermanent(lastErr) || attempt == maxRetries {
			break
		}

		backoff := base * time.Duration(1<<attempt)
		if backoff > base*8 {
			backoff = base * 8
		}
		backoff = time.Duration(float64(backoff) * (0.7 + 0.6*rand.Float64()))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func isPermanent(err error) bool {
	return isNoData(err) || errors.Is(err, ErrMalformed)
}
