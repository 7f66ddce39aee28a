package task_test

import (
	"taskPlanner/internal/models/task"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTask_Apply тестирует частичное обновление через опции
func TestTask_Apply(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		initial task.Task
		options []task.TaskOption
		check   func(t *testing.T, got task.Task)
	}{
		{
			name:    "success - done sets completed_at",
			initial: task.Task{Status: task.StatusTodo},
			options: []task.TaskOption{task.WithStatus(task.StatusDone, now)},
			check: func(t *testing.T, got task.Task) {
				assert.Equal(t, task.StatusDone, got.Status)
				require.NotNil(t, got.CompletedAt)
				assert.Equal(t, now, *got.CompletedAt)
			},
		},
		{
			name:    "success - done twice keeps first completed_at",
			initial: task.Task{Status: task.StatusDone, CompletedAt: &now},
			options: []task.TaskOption{task.WithStatus(task.StatusDone, now.Add(time.Hour))},
			check: func(t *testing.T, got task.Task) {
				require.NotNil(t, got.CompletedAt)
				assert.Equal(t, now, *got.CompletedAt)
			},
		},
		{
			name:    "success - reopen clears completed_at",
			initial: task.Task{Status: task.StatusDone, CompletedAt: &now},
			options: []task.TaskOption{task.WithStatus(task.StatusInProgress, now)},
			check: func(t *testing.T, got task.Task) {
				assert.Equal(t, task.StatusInProgress, got.Status)
				assert.Nil(t, got.CompletedAt)
			},
		},
		{
			name:    "success - empty values are ignored",
			initial: task.Task{Status: task.StatusTodo, Priority: task.PriorityHigh, Description: "старое"},
			options: []task.TaskOption{
				task.WithStatus("", now),
				task.WithPriority(task.PriorityUnset),
				task.WithDescription(""),
			},
			check: func(t *testing.T, got task.Task) {
				assert.Equal(t, task.StatusTodo, got.Status)
				assert.Equal(t, task.PriorityHigh, got.Priority)
				assert.Equal(t, "старое", got.Description)
			},
		},
		{
			name:    "success - schedule with inverted bounds is ignored",
			initial: task.Task{},
			options: []task.TaskOption{task.WithSchedule(now, now.Add(-time.Hour))},
			check: func(t *testing.T, got task.Task) {
				assert.Nil(t, got.ScheduledStart)
				assert.Nil(t, got.ScheduledEnd)
			},
		},
		{
			name:    "success - schedule sets both bounds",
			initial: task.Task{},
			options: []task.TaskOption{task.WithSchedule(now, now.Add(2*time.Hour))},
			check: func(t *testing.T, got task.Task) {
				require.NotNil(t, got.ScheduledStart)
				require.NotNil(t, got.ScheduledEnd)
				assert.Equal(t, 2*time.Hour, got.ScheduledEnd.Sub(*got.ScheduledStart))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.initial
			got.Apply(tt.options...)
			tt.check(t, got)
		})
	}
}

func TestPriority_Rank(t *testing.T) {
	assert.Greater(t, task.PriorityHigh.Rank(), task.PriorityMedium.Rank())
	assert.Greater(t, task.PriorityMedium.Rank(), task.PriorityLow.Rank())
	assert.Greater(t, task.PriorityLow.Rank(), task.PriorityUnset.Rank())
	assert.Equal(t, "unset", task.PriorityUnset.String())
	assert.Equal(t, "High", task.PriorityHigh.String())
	assert.False(t, task.Priority("Urgent").IsValid())
	assert.True(t, task.PriorityUnset.IsValid())
}

// TestTask_Clone тестирует, что копия не разделяет память с оригиналом
func TestTask_Clone(t *testing.T) {
	deadline := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	original := &task.Task{
		ID:       "t-1",
		Deadline: &deadline,
		Subtasks: []task.Subtask{{Title: "a"}},
		TimeLog:  []task.TimeLogEntry{{UserID: "u-1", StartTime: deadline}},
		AITags:   []string{"x"},
	}

	clone := original.Clone()
	require.Equal(t, original, clone)

	clone.Subtasks[0].Title = "b"
	clone.TimeLog[0].UserID = "u-2"
	clone.AITags[0] = "y"
	*clone.Deadline = deadline.Add(time.Hour)

	assert.Equal(t, "a", original.Subtasks[0].Title)
	assert.Equal(t, "u-1", original.TimeLog[0].UserID)
	assert.Equal(t, "x", original.AITags[0])
	assert.Equal(t, deadline, *original.Deadline)
}
