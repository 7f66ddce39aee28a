package timelog_test

import (
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/timelog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// TestSession тестирует открытие и закрытие сессии
func TestSession(t *testing.T) {
	tests := []struct {
		name            string
		duration        time.Duration
		expectedSeconds int64
		expectedMinutes int
	}{
		{name: "success - whole minutes", duration: 25 * time.Minute, expectedSeconds: 1500, expectedMinutes: 25},
		{name: "success - half minute rounds up", duration: 90 * time.Second, expectedSeconds: 90, expectedMinutes: 2},
		{name: "success - under half minute rounds down", duration: 29 * time.Second, expectedSeconds: 29, expectedMinutes: 0},
		{name: "success - fractional seconds dropped", duration: 61*time.Second + 900*time.Millisecond, expectedSeconds: 61, expectedMinutes: 1},
		{name: "success - zero length session", duration: 0, expectedSeconds: 0, expectedMinutes: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := &task.Task{}

			opened, err := timelog.OpenSession(tk, "u-1", start)
			require.NoError(t, err)
			assert.True(t, opened.IsOpen())
			assert.Equal(t, 0, timelog.OpenEntry(tk))

			closed, err := timelog.CloseSession(tk, start.Add(tt.duration))
			require.NoError(t, err)
			assert.False(t, closed.IsOpen())
			assert.Equal(t, tt.expectedSeconds, closed.DurationSeconds)
			assert.Equal(t, tt.expectedMinutes, closed.DurationMinutes)
			assert.Equal(t, tt.expectedSeconds, tk.TrackedSeconds)
			assert.Equal(t, tt.expectedMinutes, tk.TotalTimeSpent)
			assert.Equal(t, -1, timelog.OpenEntry(tk))
		})
	}
}

func TestSession_Errors(t *testing.T) {
	t.Run("error - second open session", func(t *testing.T) {
		tk := &task.Task{}
		_, err := timelog.OpenSession(tk, "u-1", start)
		require.NoError(t, err)

		_, err = timelog.OpenSession(tk, "u-1", start.Add(time.Minute))
		assert.ErrorIs(t, err, timelog.ErrSessionOpen)
		assert.Len(t, tk.TimeLog, 1)
	})

	t.Run("error - close without open session", func(t *testing.T) {
		tk := &task.Task{}
		_, err := timelog.CloseSession(tk, start)
		assert.ErrorIs(t, err, timelog.ErrNoOpenSession)
	})

	t.Run("error - end before start leaves session open", func(t *testing.T) {
		tk := &task.Task{}
		_, err := timelog.OpenSession(tk, "u-1", start)
		require.NoError(t, err)

		_, err = timelog.CloseSession(tk, start.Add(-time.Second))
		assert.ErrorIs(t, err, timelog.ErrEndBeforeStart)
		assert.Equal(t, 0, timelog.OpenEntry(tk))
		assert.Zero(t, tk.TotalTimeSpent)
	})
}

// TestTotals тестирует, что итог равен сумме закрытых сессий
func TestTotals(t *testing.T) {
	tk := &task.Task{}
	durations := []time.Duration{10 * time.Minute, 31 * time.Second, 45 * time.Minute}

	cursor := start
	for _, d := range durations {
		_, err := timelog.OpenSession(tk, "u-1", cursor)
		require.NoError(t, err)
		_, err = timelog.CloseSession(tk, cursor.Add(d))
		require.NoError(t, err)
		cursor = cursor.Add(d + time.Minute)
	}
	_, err := timelog.OpenSession(tk, "u-1", cursor)
	require.NoError(t, err)

	assert.Equal(t, 10+1+45, tk.TotalTimeSpent)
	assert.Equal(t, timelog.TotalMinutes(tk), tk.TotalTimeSpent)
	assert.Equal(t, int64(600+31+2700), tk.TrackedSeconds)

	tk.TotalTimeSpent = 0
	tk.TrackedSeconds = 0
	timelog.Recompute(tk)
	assert.Equal(t, 56, tk.TotalTimeSpent)
	assert.Equal(t, int64(3331), tk.TrackedSeconds)
}

func TestMinutes(t *testing.T) {
	assert.Equal(t, 0, timelog.Minutes(-5))
	assert.Equal(t, 0, timelog.Minutes(29))
	assert.Equal(t, 1, timelog.Minutes(30))
	assert.Equal(t, 2, timelog.Minutes(119))
}
