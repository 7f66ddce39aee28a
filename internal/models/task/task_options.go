package task

import (
	"time"
)

// TaskOption - частичное обновление задачи; nil означает "поле не передано"
type TaskOption func(*Task)

func WithDescription(description string) TaskOption {
	if description == "" {
		return nil
	}
	return func(task *Task) {
		task.Description = description
	}
}

// WithStatus меняет статус и ведёт отметку завершения:
// переход в Done ставит CompletedAt, выход из Done (reopen) её снимает
func WithStatus(status Status, now time.Time) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		if status == StatusDone && task.Status != StatusDone {
			completed := now
			task.CompletedAt = &completed
		}
		if status != StatusDone {
			task.CompletedAt = nil
		}
		task.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	if priority == PriorityUnset {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithSchedule(start, end time.Time) TaskOption {
	if !start.Before(end) {
		return nil
	}
	return func(task *Task) {
		task.ScheduledStart = &start
		task.ScheduledEnd = &end
	}
}

func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}
}
