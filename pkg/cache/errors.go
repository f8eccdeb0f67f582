package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnknownBackend is returned by [Open] for an unrecognized cache spec.
	ErrUnknownBackend = errors.New("unknown cache backend")

	// ErrNetwork marks remote backend failures such as timeouts and
	// connection resets.
	ErrNetwork = errors.New("network error")
)

// RetryableError marks an error as transient. The redis and mongo backends
// wrap their network failures with it so RetryWithBackoff knows to retry.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err carries a RetryableError anywhere in its
// chain.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

const retryAttempts = 3

// RetryWithBackoff runs fn up to retryAttempts times, doubling the wait
// between attempts starting at one second. Non-retryable errors and context
// cancellation end the loop immediately.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := time.Second

	for attempt := 0; attempt < retryAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == retryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}
