package service

import (
	"context"
	"errors"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/timelog"
)

// StartTimer открывает рабочую сессию владельца задачи
func (s *TaskService) StartTimer(ctx context.Context, taskID, callerID string) (*task.Task, error) {
	return s.mutate(ctx, "start_timer", taskID, callerID, false, func(t *task.Task) error {
		if _, err := timelog.OpenSession(t, callerID, s.now()); err != nil {
			return timerError(t.ID, err)
		}
		return nil
	})
}

// StopTimer закрывает открытую сессию и пересчитывает затраченное время
func (s *TaskService) StopTimer(ctx context.Context, taskID, callerID string) (*task.Task, error) {
	return s.mutate(ctx, "stop_timer", taskID, callerID, false, func(t *task.Task) error {
		if _, err := timelog.CloseSession(t, s.now()); err != nil {
			return timerError(t.ID, err)
		}
		return nil
	})
}

func timerError(taskID string, err error) error {
	id := ToDetail("id", taskID)
	switch {
	case errors.Is(err, timelog.ErrSessionOpen):
		return NewConflict("Сессия уже запущена", err, id)
	case errors.Is(err, timelog.ErrNoOpenSession):
		return NewInvalidState("Нет запущенной сессии", err, id)
	case errors.Is(err, timelog.ErrEndBeforeStart):
		return NewInvalidState("Время окончания раньше начала", err, id)
	default:
		return err
	}
}
