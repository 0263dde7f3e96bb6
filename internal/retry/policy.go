package retry

import (
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is the retry configuration for one call site.
// It is a plain value and is never mutated by the executor.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy returns the policy used when a caller does not provide one.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
	}
}

// Validate checks the policy preconditions.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidArgument, p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("%w: base delay must not be negative, got %s", ErrInvalidArgument, p.BaseDelay)
	}
	return nil
}

// DelayFor returns the wait after the given failed attempt:
// BaseDelay * 2^(attempt-1). Products that do not fit in a time.Duration
// saturate at the largest representable duration.
func (p Policy) DelayFor(attempt int) (time.Duration, error) {
	if attempt < 1 {
		return 0, fmt.Errorf("%w: attempt must be at least 1, got %d", ErrInvalidArgument, attempt)
	}
	if p.BaseDelay < 0 {
		return 0, fmt.Errorf("%w: base delay must not be negative, got %s", ErrInvalidArgument, p.BaseDelay)
	}
	if p.BaseDelay == 0 {
		return 0, nil
	}

	shift := attempt - 1
	if shift >= 63 || p.BaseDelay > time.Duration(math.MaxInt64>>uint(shift)) {
		return time.Duration(math.MaxInt64), nil
	}
	return p.BaseDelay << uint(shift), nil
}

// policyBackOff adapts a Policy to backoff.BackOff. Each NextBackOff call
// corresponds to one failed attempt.
type policyBackOff struct {
	policy  Policy
	attempt int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	b.attempt++
	d, err := b.policy.DelayFor(b.attempt)
	if err != nil {
		return backoff.Stop
	}
	return d
}

func (b *policyBackOff) Reset() {
	b.attempt = 0
}
