package retry

import (
	"context"
	"fmt"
	"time"

	errs "likevault/pkg/errors"
	"likevault/pkg/logger"
)

// Class is the retry decision derived from a failed attempt
type Class int

const (
	// ClassFatal aborts immediately without retrying
	ClassFatal Class = iota
	// ClassRetryable retries on the standard backoff schedule
	ClassRetryable
	// ClassRateLimited retries on the extended rate-limit schedule
	ClassRateLimited
	// ClassNotFound propagates immediately as a "does not exist" outcome
	ClassNotFound
)

// Classifier maps a failed attempt's error to a retry class
type Classifier func(err error) Class

// SleepFunc blocks for the given delay; tests substitute a recorder
type SleepFunc func(ctx context.Context, delay time.Duration) error

// Policy executes operations with classifier-driven retries.
// The classifier decides whether an error retries at all; the class
// picks which backoff schedule prescribes the delay.
type Policy struct {
	MaxAttempts      int
	Classify         Classifier
	ServerBackoff    BackoffStrategy
	RateLimitBackoff BackoffStrategy
	Sleep            SleepFunc
	Logger           logger.Logger
}

// ClassifyStandard is the default classifier for feed API errors:
// server errors and timeouts retry, rate limits retry on the extended
// schedule, missing content propagates, and everything else is fatal.
func ClassifyStandard(err error) Class {
	switch errs.TypeOf(err) {
	case errs.ErrorTypeServerError, errs.ErrorTypeTimeout:
		return ClassRetryable
	case errs.ErrorTypeRateLimit:
		return ClassRateLimited
	case errs.ErrorTypeNotFound, errs.ErrorTypeContentGone:
		return ClassNotFound
	default:
		return ClassFatal
	}
}

// Do executes op, retrying per the policy's classification and backoff
// schedules. Every retryable failure sleeps before the next attempt,
// including the final one; exhaustion returns a RetryExhaustedError
// carrying each attempt's error.
func (p *Policy) Do(ctx context.Context, op func() error) error {
	attempts := make(map[int]error)

	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			if attempt > 1 && p.Logger != nil {
				p.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		class := p.Classify(err)
		if class == ClassNotFound || class == ClassFatal {
			if p.Logger != nil {
				p.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return err
		}

		backoff := p.ServerBackoff
		if class == ClassRateLimited {
			backoff = p.RateLimitBackoff
		}
		delay := backoff.NextDelay(attempt)
		attempts[attempt] = err

		if p.Logger != nil {
			p.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": p.MaxAttempts,
			})
		}

		if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
			return fmt.Errorf("retry cancelled: %w", sleepErr)
		}

		if attempt >= p.MaxAttempts {
			if p.Logger != nil {
				p.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt,
					"last_error": err.Error(),
				})
			}
			return &errs.RetryExhaustedError{
				MaxAttempts: p.MaxAttempts,
				Attempts:    attempts,
			}
		}
	}
}

func (p *Policy) sleep(ctx context.Context, delay time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, delay)
	}
	return Wait(ctx, delay)
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, p *Policy, op func() (T, error)) (T, error) {
	var result T

	err := p.Do(ctx, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})

	return result, err
}

// NewMetadataPolicy returns the retry policy for feed metadata requests:
// a small attempt budget with fixed delays.
func NewMetadataPolicy(maxAttempts int, serverDelay, rateLimitDelay time.Duration, log logger.Logger) *Policy {
	return &Policy{
		MaxAttempts:      maxAttempts,
		Classify:         ClassifyStandard,
		ServerBackoff:    &ConstantBackoff{Delay: serverDelay},
		RateLimitBackoff: &ConstantBackoff{Delay: rateLimitDelay},
		Logger:           log,
	}
}

// NewDownloadPolicy returns the retry policy for media byte fetches:
// a larger attempt budget, doubling delays for server errors and a
// fixed-increment schedule for rate limits.
func NewDownloadPolicy(maxAttempts int, serverBase, rateLimitBase, rateLimitIncrement time.Duration, log logger.Logger) *Policy {
	return &Policy{
		MaxAttempts: maxAttempts,
		Classify:    ClassifyStandard,
		ServerBackoff: &ExponentialBackoff{
			BaseDelay:  serverBase,
			Multiplier: 2.0,
		},
		RateLimitBackoff: &LinearBackoff{
			BaseDelay: rateLimitBase,
			Increment: rateLimitIncrement,
		},
		Logger: log,
	}
}
