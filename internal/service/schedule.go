package service

import (
	"context"
	"errors"
	"fmt"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/repository"
	"time"

	"go.uber.org/zap"
)

const ScheduleTaskLimit = 10

// Window - рабочий день в целых часах, [StartHour, EndHour)
type Window struct {
	StartHour int
	EndHour   int
}

func DefaultWindow() Window {
	return Window{StartHour: 9, EndHour: 17}
}

type ScheduleEntry struct {
	TaskID    string `json:"taskId"`
	Title     string `json:"title"`
	StartHour int    `json:"-"`
	EndHour   int    `json:"-"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Reasoning string `json:"reasoning"`
}

// BuildSchedule раскладывает задачи Todo пользователя по его рабочему дню.
// Задачи не изменяются.
func (s *TaskService) BuildSchedule(ctx context.Context, userID string) ([]ScheduleEntry, error) {
	pending, err := s.find(ctx, "build_schedule",
		repository.TaskFilter{
			AssignedTo: userID,
			Statuses:   []task.Status{task.StatusTodo},
		},
		repository.FindOptions{Sort: repository.SortPriorityDesc, Limit: s.planLimit})
	if err != nil {
		return nil, err
	}

	window := s.userWindow(ctx, userID)
	entries := PlanDay(pending, window)

	logger.Info("Service: Расписание построено",
		zap.String("user_id", userID),
		zap.Int("pending", len(pending)),
		zap.Int("scheduled", len(entries)))
	return entries, nil
}

// userWindow: настройки пользователя, иначе окно сервиса.
// Пользователь может отсутствовать в хранилище - это не ошибка.
func (s *TaskService) userWindow(ctx context.Context, userID string) Window {
	if s.users == nil {
		return s.window
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Service: Не удалось получить настройки пользователя",
				zap.String("user_id", userID),
				zap.Error(err))
		}
		return s.window
	}
	start, end := u.Settings.WorkWindow(s.window.StartHour, s.window.EndHour)
	return Window{StartHour: start, EndHour: end}
}

// PlanDay - жадная раскладка за один проход: задача, не влезающая в остаток дня,
// пропускается, курсор не двигается
func PlanDay(tasks []*task.Task, window Window) []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(tasks))
	cursor := window.StartHour

	for _, t := range tasks {
		estimated := t.AIEstimatedDurationMinutes
		if estimated <= 0 {
			estimated = DefaultEstimatedMinutes
		}
		end := cursor + ceilHours(estimated)
		if end > window.EndHour {
			continue
		}

		entries = append(entries, ScheduleEntry{
			TaskID:    t.ID,
			Title:     t.Title,
			StartHour: cursor,
			EndHour:   end,
			Start:     formatHour(cursor),
			End:       formatHour(end),
			Reasoning: fmt.Sprintf("Scheduled based on %s priority and estimated %d minutes", t.Priority, estimated),
		})
		cursor = end
	}
	return entries
}

// ApplySchedule сохраняет раскладку в задачи на указанный день (границы часов в UTC).
// Задачи, которые уже не Todo или удалены, пропускаются.
func (s *TaskService) ApplySchedule(ctx context.Context, userID string, day time.Time, entries []ScheduleEntry) ([]*task.Task, error) {
	y, m, d := day.UTC().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	updated := make([]*task.Task, 0, len(entries))
	for _, e := range entries {
		if e.EndHour <= e.StartHour {
			return updated, NewValidationError("schedule", "конец слота раньше начала")
		}
		start := midnight.Add(time.Duration(e.StartHour) * time.Hour)
		end := midnight.Add(time.Duration(e.EndHour) * time.Hour)

		t, err := s.mutate(ctx, "apply_schedule", e.TaskID, userID, false, func(t *task.Task) error {
			if t.Status != task.StatusTodo {
				return errUnchanged
			}
			t.Apply(task.WithSchedule(start, end))
			return nil
		})
		if err != nil {
			if HasCode(err, CodeNotFound) {
				continue
			}
			return updated, err
		}
		if t.Status == task.StatusTodo {
			updated = append(updated, t)
		}
	}
	return updated, nil
}

func ceilHours(minutes int) int {
	return (minutes + 59) / 60
}

func formatHour(hour int) string {
	return fmt.Sprintf("%d:00", hour)
}
