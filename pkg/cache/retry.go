package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports a source or key that does not exist. It is never
	// retried.
	ErrNotFound = errors.New("not found")

	// ErrNetwork reports a transport failure: a timeout, a refused
	// connection or a 5xx response.
	ErrNetwork = errors.New("network error")
)

// RetryableError marks a failure worth another attempt.
type RetryableError struct{ Err error }

// Retryable marks err as retryable. It returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff is a retry policy. The wait doubles after every failed attempt,
// up to MaxDelay when it is set.
type Backoff struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultBackoff is used for image fetches, Redis cart writes and API
// calls: three attempts, waiting 1s and then 2s.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second, MaxDelay: 4 * time.Second}

// Do runs fn until it succeeds, fails with an error not marked Retryable,
// or runs out of attempts. The last error is returned.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
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
		if b.MaxDelay > 0 {
			delay = min(delay, b.MaxDelay)
		}
	}
	return err
}

// RetryWithBackoff runs fn with DefaultBackoff.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Do(ctx, fn)
}
