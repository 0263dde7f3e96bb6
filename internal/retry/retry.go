// Package retry runs idempotent operations until they succeed or an attempt
// budget runs out, waiting with exponential backoff between attempts.
//
// Only the final error is reported. Errors of intermediate attempts are
// dropped, so the executor must not be used for operations whose repeated
// execution has side effects.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Attempt describes one invocation of an operation.
type Attempt struct {
	Index     int
	StartedAt time.Time
}

// Operation is a unit of work executed by the retry executor.
type Operation[T any] func(ctx context.Context, attempt Attempt) (T, error)

// Executor runs operations under a retry policy.
// The zero value uses the wall clock and the global logger.
type Executor struct {
	// NewTimer returns the timer used for one Execute call. Nil means real time.
	NewTimer func() backoff.Timer
	// Now returns the attempt start time. Nil means time.Now.
	Now func() time.Time
	// Logger overrides the global zerolog logger.
	Logger *zerolog.Logger
}

// Execute runs op with the default executor.
func Execute[T any](ctx context.Context, policy Policy, op Operation[T]) (T, error) {
	return Run(ctx, Executor{}, policy, op)
}

// Permanent marks err as not retryable. Execute returns it as is, without
// consuming the remaining attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Run executes op with the given executor until it succeeds, the attempts of
// policy are used up, or ctx is done.
func Run[T any](ctx context.Context, e Executor, policy Policy, op Operation[T]) (T, error) {
	var zero T

	if err := policy.Validate(); err != nil {
		return zero, err
	}
	if op == nil {
		return zero, fmt.Errorf("%w: operation is nil", ErrInvalidArgument)
	}

	logger := e.logger()
	now := e.Now
	if now == nil {
		now = time.Now
	}

	var (
		index     int
		cancelled bool
		permanent bool
	)

	wrapped := func() (T, error) {
		if err := ctx.Err(); err != nil {
			cancelled = true
			return zero, backoff.Permanent(err)
		}

		index++
		attempt := Attempt{Index: index, StartedAt: now()}

		res, err := op(ctx, attempt)
		if err == nil {
			return res, nil
		}

		var pe *backoff.PermanentError
		if errors.As(err, &pe) {
			permanent = true
		}
		return res, err
	}

	notify := func(err error, next time.Duration) {
		logger.Debug().
			Int("attempt", index).
			Int("max_attempts", policy.MaxAttempts).
			Dur("delay", next).
			Err(err).
			Msg("attempt failed, retrying")
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&policyBackOff{policy: policy}, uint64(policy.MaxAttempts-1)),
		ctx,
	)

	var timer backoff.Timer
	if e.NewTimer != nil {
		timer = e.NewTimer()
	}

	res, err := backoff.RetryNotifyWithTimerAndData(wrapped, b, notify, timer)
	if err == nil {
		return res, nil
	}

	switch {
	case cancelled || ctx.Err() != nil:
		cause := ctx.Err()
		if cause == nil {
			cause = err
		}
		return zero, fmt.Errorf("%w after %d attempts: %w", ErrCancelled, index, cause)
	case permanent:
		return zero, err
	}

	logger.Warn().
		Int("attempts", index).
		Err(err).
		Msg("retries exhausted")

	return zero, &RetriesExhaustedError{Attempts: index, Err: err}
}

func (e Executor) logger() *zerolog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return &log.Logger
}
