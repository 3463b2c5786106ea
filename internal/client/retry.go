package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryableError marks an error that should be retried by RetryPolicy.Do.
// Anything else aborts the attempt loop immediately.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so the retry policy will re-run the operation.
func Retryable(err error) error {
	return &RetryableError{Err: err}
}

func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryPolicy retries an operation a fixed number of times with a backoff
// delay drawn uniformly from [BackoffFrom, BackoffTo] before each attempt
// after the first. Applied uniformly to search and product-detail calls.
type RetryPolicy struct {
	MaxAttempts int
	BackoffFrom time.Duration
	BackoffTo   time.Duration
}

// Do runs op until it succeeds, returns a non-retryable error, or the attempt
// budget is exhausted. Budget exhaustion returns the last retryable error
// wrapped as fatal.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		last = err
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff()):
		}
	}
	return fmt.Errorf("retry budget exhausted after %d attempts: %w", attempts, last)
}

func (p RetryPolicy) backoff() time.Duration {
	if p.BackoffTo <= p.BackoffFrom {
		return p.BackoffFrom
	}
	return p.BackoffFrom + rand.N(p.BackoffTo-p.BackoffFrom)
}
