package handlers

import (
	"context"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/service"
	"time"
)

type Service interface {
	HealthCheck(ctx context.Context) error

	CreateTask(ctx context.Context, ownerID string, in service.CreateTaskInput) (*task.Task, error)
	GetTask(ctx context.Context, taskID, callerID string) (*task.Task, error)
	ListTasks(ctx context.Context, callerID string) ([]*task.Task, error)
	UpdateTask(ctx context.Context, taskID, callerID string, in service.UpdateTaskInput) (*task.Task, error)
	DeleteTask(ctx context.Context, taskID, callerID string) error

	StartTimer(ctx context.Context, taskID, callerID string) (*task.Task, error)
	StopTimer(ctx context.Context, taskID, callerID string) (*task.Task, error)

	Advise(ctx context.Context, userID string) (string, error)
	BuildSchedule(ctx context.Context, userID string) ([]service.ScheduleEntry, error)
	ApplySchedule(ctx context.Context, userID string, day time.Time, entries []service.ScheduleEntry) ([]*task.Task, error)
}
