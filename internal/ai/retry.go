package ai

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

var (
	clientErrorPattern = regexp.MustCompile(`\b4\d{2}\b`)
	// hostPortPattern matches "host:port" in transport errors so that a
	// port such as 443 is not read as a status code.
	hostPortPattern = regexp.MustCompile(`(\[[0-9A-Fa-f:.]+\]|[\w-]+(?:\.[\w-]+)+|localhost):\d{1,5}\b`)
)

// IsRetryable reports whether a failed attempt may be tried again: anything
// whose message mentions a 4xx status is a client error and is final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := hostPortPattern.ReplaceAllString(err.Error(), "$1")
	return !clientErrorPattern.MatchString(msg)
}

// RetryPolicy retries with exponential backoff: the wait before attempt i
// (0-indexed, i >= 1) is BaseDelay * 2^(i-1).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the wait before the given 0-indexed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.BaseDelay * time.Duration(1<<(attempt-1))
}

type retryHook func(attempt int, err error, delay time.Duration)

// retry runs fn until it succeeds, fails with a non-retryable error or the
// policy runs out of attempts. It returns the number of attempts made.
func retry[T any](ctx context.Context, p RetryPolicy, fn func() (T, error), onRetry retryHook) (T, int, error) {
	var zero T
	var lastErr error
	max := p.attempts()
	for i := 0; i < max; i++ {
		if i > 0 {
			delay := p.Delay(i)
			if onRetry != nil {
				onRetry(i, lastErr, delay)
			}
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, i, fmt.Errorf("%w (last error: %w)", ctx.Err(), lastErr)
			case <-timer.C:
			}
		}
		out, err := fn()
		if err == nil {
			return out, i + 1, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return zero, i + 1, err
		}
	}
	return zero, max, lastErr
}
