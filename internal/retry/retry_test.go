package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTimer fires immediately and remembers every requested delay.
type recordingTimer struct {
	delays []time.Duration
	c      chan time.Time
	onWait func()
}

func newRecordingTimer() *recordingTimer {
	return &recordingTimer{c: make(chan time.Time, 1)}
}

func (r *recordingTimer) Start(d time.Duration) {
	r.delays = append(r.delays, d)
	if r.onWait != nil {
		r.onWait()
		return
	}
	r.c <- time.Now()
}

func (r *recordingTimer) Stop() {}

func (r *recordingTimer) C() <-chan time.Time {
	return r.c
}

func newTestExecutor(timer *recordingTimer) Executor {
	logger := zerolog.Nop()
	return Executor{
		NewTimer: func() backoff.Timer { return timer },
		Logger:   &logger,
	}
}

// flakyOperation fails the first failures calls and then returns value.
type flakyOperation struct {
	failures int
	value    string
	attempts []Attempt
	errs     []error
}

func (f *flakyOperation) run(ctx context.Context, attempt Attempt) (string, error) {
	f.attempts = append(f.attempts, attempt)
	if len(f.attempts) <= f.failures {
		err := errors.New("transient failure")
		f.errs = append(f.errs, err)
		return "", err
	}
	return f.value, nil
}

func TestExecute_SucceedsFirstAttempt(t *testing.T) {
	// GIVEN
	timer := newRecordingTimer()
	op := &flakyOperation{value: "ok"}
	policy := Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond}

	// WHEN
	got, err := Run(context.Background(), newTestExecutor(timer), policy, op.run)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Len(t, op.attempts, 1)
	assert.Empty(t, timer.delays, "no delay expected on first-attempt success")
}

func TestExecute_SucceedsAfterFailures(t *testing.T) {
	policy := Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond}

	for k := 1; k < policy.MaxAttempts; k++ {
		t.Run(fmt.Sprintf("failures=%d", k), func(t *testing.T) {
			// GIVEN
			timer := newRecordingTimer()
			op := &flakyOperation{failures: k, value: "ok"}

			// WHEN
			got, err := Run(context.Background(), newTestExecutor(timer), policy, op.run)

			// THEN
			require.NoError(t, err)
			assert.Equal(t, "ok", got)
			assert.Len(t, op.attempts, k+1)

			require.Len(t, timer.delays, k)
			for i, d := range timer.delays {
				want, err := policy.DelayFor(i + 1)
				require.NoError(t, err)
				assert.Equal(t, want, d, "delay after attempt %d", i+1)
			}
		})
	}
}

func TestExecute_AttemptIndexStrictlyIncreasing(t *testing.T) {
	timer := newRecordingTimer()
	op := &flakyOperation{failures: 3, value: "ok"}

	_, err := Run(context.Background(), newTestExecutor(timer), Policy{MaxAttempts: 4}, op.run)
	require.NoError(t, err)

	for i, attempt := range op.attempts {
		assert.Equal(t, i+1, attempt.Index)
		assert.False(t, attempt.StartedAt.IsZero())
	}
}

func TestExecute_RetriesExhausted(t *testing.T) {
	// GIVEN
	timer := newRecordingTimer()
	op := &flakyOperation{failures: 1000}
	policy := Policy{MaxAttempts: 4, BaseDelay: 10 * time.Millisecond}

	// WHEN
	_, err := Run(context.Background(), newTestExecutor(timer), policy, op.run)

	// THEN
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Len(t, op.attempts, 4)
	assert.Len(t, timer.delays, 3)

	var exhausted *RetriesExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Same(t, op.errs[len(op.errs)-1], exhausted.Err, "must wrap the last error")
	assert.ErrorIs(t, err, op.errs[len(op.errs)-1])
	assert.NotErrorIs(t, err, op.errs[0])
}

func TestExecute_SingleAttemptPolicy(t *testing.T) {
	timer := newRecordingTimer()
	op := &flakyOperation{failures: 1}

	_, err := Run(context.Background(), newTestExecutor(timer), Policy{MaxAttempts: 1, BaseDelay: time.Second}, op.run)

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Len(t, op.attempts, 1)
	assert.Empty(t, timer.delays)
}

func TestExecute_InvalidPolicy(t *testing.T) {
	called := false
	op := func(ctx context.Context, attempt Attempt) (int, error) {
		called = true
		return 1, nil
	}

	_, err := Execute(context.Background(), Policy{MaxAttempts: 0}, op)

	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)
	assert.False(t, called, "operation must not run under an invalid policy")
}

func TestExecute_NilOperation(t *testing.T) {
	_, err := Execute[int](context.Background(), DefaultPolicy(), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestExecute_PermanentErrorStopsImmediately(t *testing.T) {
	timer := newRecordingTimer()
	notFound := errors.New("not found")
	calls := 0
	op := func(ctx context.Context, attempt Attempt) (string, error) {
		calls++
		return "", Permanent(notFound)
	}

	_, err := Run(context.Background(), newTestExecutor(timer), Policy{MaxAttempts: 5}, op)

	assert.ErrorIs(t, err, notFound)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 1, calls)
	assert.Empty(t, timer.delays)
}

func TestExecute_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := &flakyOperation{value: "ok"}
	_, err := Run(ctx, newTestExecutor(newRecordingTimer()), DefaultPolicy(), op.run)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, op.attempts)
}

func TestExecute_CancelledDuringWait(t *testing.T) {
	// GIVEN
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	timer := newRecordingTimer()
	// The timer never fires; cancelling is the only way out of the wait.
	timer.onWait = cancel

	op := &flakyOperation{failures: 1000}

	// WHEN
	_, err := Run(ctx, newTestExecutor(timer), Policy{MaxAttempts: 10, BaseDelay: time.Hour}, op.run)

	// THEN
	assert.ErrorIs(t, err, ErrCancelled)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)
	assert.Len(t, op.attempts, 1)
	assert.Equal(t, []time.Duration{time.Hour}, timer.delays)
}

func TestExecute_RealClock(t *testing.T) {
	calls := 0
	op := func(ctx context.Context, attempt Attempt) (int, error) {
		calls++
		if attempt.Index < 3 {
			return 0, errors.New("not yet")
		}
		return attempt.Index, nil
	}

	start := time.Now()
	got, err := Execute(context.Background(), Policy{MaxAttempts: 3, BaseDelay: 5 * time.Millisecond}, op)

	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestExecute_ConcurrentCallsAreIndependent(t *testing.T) {
	const workers = 8
	results := make(chan int, workers)
	errs := make(chan error, workers)

	for w := 0; w < workers; w++ {
		go func(failures int) {
			op := func(ctx context.Context, attempt Attempt) (int, error) {
				if attempt.Index <= failures {
					return 0, errors.New("fail")
				}
				return attempt.Index, nil
			}
			got, err := Execute(context.Background(), Policy{MaxAttempts: workers, BaseDelay: time.Millisecond}, op)
			if err != nil {
				errs <- err
				return
			}
			results <- got - failures
		}(w % 3)
	}

	for w := 0; w < workers; w++ {
		select {
		case err := <-errs:
			t.Fatalf("unexpected error: %v", err)
		case got := <-results:
			assert.Equal(t, 1, got, "each call should succeed right after its own failures")
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for concurrent executions")
		}
	}
}
