package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/adyen/shopcheck/internal/models"
	"github.com/adyen/shopcheck/internal/retry"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFinder is a mock implementation of Finder for testing
type MockFinder struct {
	GetByReferenceFunc func(ctx context.Context, reference string) (*models.Order, error)
	calls              int
}

func (m *MockFinder) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	m.calls++
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, reference)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, reference)
}

// statusSequence returns a finder that reports the given statuses in order,
// repeating the last one
func statusSequence(statuses ...models.OrderStatus) *MockFinder {
	m := &MockFinder{}
	m.GetByReferenceFunc = func(ctx context.Context, reference string) (*models.Order, error) {
		i := m.calls - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		return &models.Order{Reference: reference, Status: statuses[i]}, nil
	}
	return m
}

type instantTimer struct{ c chan time.Time }

func (t *instantTimer) Start(time.Duration) { t.c <- time.Now() }
func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.c }

func instantExecutor() retry.Executor {
	return retry.Executor{
		NewTimer: func() backoff.Timer { return &instantTimer{c: make(chan time.Time, 1)} },
	}
}

func TestWaitForStatus(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 4, BaseDelay: time.Second}

	tests := []struct {
		name      string
		finder    *MockFinder
		want      models.OrderStatus
		wantCalls int
		wantErr   error
	}{
		{
			name:      "already in status",
			finder:    statusSequence(models.OrderStatusAuthorized),
			want:      models.OrderStatusAuthorized,
			wantCalls: 1,
		},
		{
			name:      "pending then authorized",
			finder:    statusSequence(models.OrderStatusPending, models.OrderStatusPending, models.OrderStatusAuthorized),
			want:      models.OrderStatusAuthorized,
			wantCalls: 3,
		},
		{
			name:      "never leaves pending",
			finder:    statusSequence(models.OrderStatusPending),
			want:      models.OrderStatusAuthorized,
			wantCalls: 4,
			wantErr:   retry.ErrRetriesExhausted,
		},
		{
			name:      "settled in another terminal status",
			finder:    statusSequence(models.OrderStatusPending, models.OrderStatusCancelled),
			want:      models.OrderStatusAuthorized,
			wantCalls: 2,
			wantErr:   ErrStatusMismatch,
		},
		{
			name:      "order never appears",
			finder:    &MockFinder{},
			want:      models.OrderStatusPending,
			wantCalls: 4,
			wantErr:   ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// WHEN
			order, err := WaitForStatus(context.Background(), instantExecutor(), tt.finder, "ORDER-1", tt.want, policy)

			// THEN
			assert.Equal(t, tt.wantCalls, tt.finder.calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, order)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, order.Status)
		})
	}
}

func TestWaitForStatus_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	finder := &MockFinder{}
	finder.GetByReferenceFunc = func(ctx context.Context, reference string) (*models.Order, error) {
		cancel()
		return &models.Order{Reference: reference, Status: models.OrderStatusPending}, nil
	}

	_, err := WaitForStatus(ctx, instantExecutor(), finder, "ORDER-1", models.OrderStatusAuthorized, retry.DefaultPolicy())

	assert.ErrorIs(t, err, retry.ErrCancelled)
	assert.Equal(t, 1, finder.calls)
}
