package retry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_DelayFor(t *testing.T) {
	tests := []struct {
		name      string
		baseDelay time.Duration
		attempt   int
		want      time.Duration
	}{
		{name: "first attempt uses base delay", baseDelay: 100 * time.Millisecond, attempt: 1, want: 100 * time.Millisecond},
		{name: "second attempt doubles", baseDelay: 100 * time.Millisecond, attempt: 2, want: 200 * time.Millisecond},
		{name: "fifth attempt", baseDelay: 100 * time.Millisecond, attempt: 5, want: 1600 * time.Millisecond},
		{name: "zero base delay", baseDelay: 0, attempt: 10, want: 0},
		{name: "saturates instead of overflowing", baseDelay: time.Second, attempt: 64, want: time.Duration(math.MaxInt64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := Policy{MaxAttempts: 3, BaseDelay: tt.baseDelay}

			got, err := policy.DelayFor(tt.attempt)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_DelayFor_MatchesFormula(t *testing.T) {
	policy := Policy{MaxAttempts: 3, BaseDelay: 7 * time.Millisecond}

	var prev time.Duration
	for attempt := 1; attempt <= 20; attempt++ {
		got, err := policy.DelayFor(attempt)
		require.NoError(t, err)

		want := policy.BaseDelay * time.Duration(1<<uint(attempt-1))
		assert.Equal(t, want, got, "attempt %d", attempt)
		assert.GreaterOrEqual(t, got, prev, "delay must not decrease at attempt %d", attempt)
		prev = got
	}
}

func TestPolicy_DelayFor_Monotonic(t *testing.T) {
	policy := Policy{MaxAttempts: 3, BaseDelay: 3 * time.Second}

	var prev time.Duration
	for attempt := 1; attempt <= 100; attempt++ {
		got, err := policy.DelayFor(attempt)
		require.NoError(t, err)
		require.GreaterOrEqual(t, got, prev, "attempt %d", attempt)
		prev = got
	}
}

func TestPolicy_DelayFor_InvalidAttempt(t *testing.T) {
	policy := DefaultPolicy()

	for _, attempt := range []int{0, -1, math.MinInt} {
		_, err := policy.DelayFor(attempt)
		assert.ErrorIs(t, err, ErrInvalidArgument, "attempt %d", attempt)
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{name: "default policy", policy: DefaultPolicy()},
		{name: "single attempt", policy: Policy{MaxAttempts: 1}},
		{name: "zero attempts", policy: Policy{MaxAttempts: 0}, wantErr: true},
		{name: "negative attempts", policy: Policy{MaxAttempts: -2}, wantErr: true},
		{name: "negative delay", policy: Policy{MaxAttempts: 2, BaseDelay: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			assert.NoError(t, err)
		})
	}
}
