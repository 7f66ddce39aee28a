package repository_test

import (
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestTaskFilter_Match тестирует фильтр выборки в памяти
func TestTaskFilter_Match(t *testing.T) {
	deadline := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	horizon := deadline.Add(time.Hour)

	tests := []struct {
		name     string
		filter   repository.TaskFilter
		task     task.Task
		expected bool
	}{
		{name: "success - active task", filter: repository.TaskFilter{}, task: task.Task{AssignedTo: "u1"}, expected: true},
		{name: "success - deleted hidden", filter: repository.TaskFilter{}, task: task.Task{AssignedTo: "u1", IsDeleted: true}, expected: false},
		{name: "success - deleted included on request", filter: repository.TaskFilter{IncludeDeleted: true}, task: task.Task{IsDeleted: true}, expected: true},
		{name: "success - foreign team task", filter: repository.TaskFilter{OwnerOrTeam: "u1"}, task: task.Task{AssignedTo: "u2", TeamID: "t1"}, expected: true},
		{name: "success - foreign private task", filter: repository.TaskFilter{OwnerOrTeam: "u1"}, task: task.Task{AssignedTo: "u2"}, expected: false},
		{name: "success - excluded status", filter: repository.TaskFilter{ExcludeStatus: []task.Status{task.StatusDone}}, task: task.Task{Status: task.StatusDone}, expected: false},
		{name: "success - deadline before horizon", filter: repository.TaskFilter{DeadlineBefore: &horizon}, task: task.Task{Deadline: &deadline}, expected: true},
		{name: "success - no deadline", filter: repository.TaskFilter{DeadlineBefore: &horizon}, task: task.Task{}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.Match(&tt.task))
		})
	}
}
