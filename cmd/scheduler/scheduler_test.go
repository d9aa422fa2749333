package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockSweeper is a mock implementation of StaleEnrollmentSweeper
type mockSweeper struct {
	calls  int
	gotNow time.Time
	err    error
}

func (m *mockSweeper) SweepStaleEnrollments(ctx context.Context, now time.Time) (int, error) {
	m.calls++
	m.gotNow = now
	return 3, m.err
}

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name        string
		spec        string
		expectedErr bool
	}{
		{name: "daily at noon", spec: "0 12 * * *"},
		{name: "descriptor", spec: "@hourly"},
		{name: "too many fields", spec: "0 0 12 * * *", expectedErr: true},
		{name: "garbage", spec: "every day", expectedErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(tt.spec, &mockSweeper{}, zap.NewNop())
			if tt.expectedErr {
				assert.Error(t, err)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestScheduler_NextRun(t *testing.T) {
	s, err := NewScheduler("0 12 * * *", &mockSweeper{}, zap.NewNop())
	require.NoError(t, err)

	s.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), s.nextRun())

	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), s.nextRun())
}

func TestScheduler_Sweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("passes the current time", func(t *testing.T) {
		sweeper := &mockSweeper{}
		s, err := NewScheduler("0 12 * * *", sweeper, zap.NewNop())
		require.NoError(t, err)
		s.now = func() time.Time { return now }

		s.sweep()

		assert.Equal(t, 1, sweeper.calls)
		assert.Equal(t, now, sweeper.gotNow)
	})

	t.Run("failure is logged", func(t *testing.T) {
		sweeper := &mockSweeper{err: errors.New("db down")}
		s, err := NewScheduler("0 12 * * *", sweeper, zap.NewNop())
		require.NoError(t, err)

		assert.NotPanics(t, s.sweep)
		assert.Equal(t, 1, sweeper.calls)
	})
}

func TestScheduler_StartStop(t *testing.T) {
	sweeper := &mockSweeper{}
	s, err := NewScheduler("0 12 1 1 *", sweeper, zap.NewNop())
	require.NoError(t, err)

	s.Start()
	s.Stop()

	assert.Equal(t, 0, sweeper.calls)
}
